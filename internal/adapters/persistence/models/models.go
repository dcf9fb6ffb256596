package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth tables
// ============================================================

// User represents users table. RefreshToken holds the single live session
// token for the user; overwriting it invalidates the previous session.
type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Username             string     `gorm:"uniqueIndex;size:16;not null" json:"username"`
	Email                string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password             string     `gorm:"size:255;not null" json:"-"`
	RefreshToken         *string    `gorm:"uniqueIndex;size:36" json:"-"`
	RefreshTokenIssuedAt *time.Time `json:"-"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// ============================================================
// Payment table
// ============================================================

// PaymentStatus enumerates the payment state machine
type PaymentStatus string

const (
	StatusUnpaid    PaymentStatus = "unpaid"
	StatusUnchecked PaymentStatus = "unchecked"
	StatusPaid      PaymentStatus = "paid"
	StatusRejected  PaymentStatus = "rejected"
)

// ParsePaymentStatus validates an external status string
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case StatusUnpaid, StatusUnchecked, StatusPaid, StatusRejected:
		return PaymentStatus(s), true
	}
	return "", false
}

// MaxIssueLength bounds the free-text issue description
const MaxIssueLength = 42

// Payment represents payments table. The receiver requests money from the
// payer; legal transitions are unpaid → unchecked → paid|rejected. Records
// are never deleted. CheckedAt is set exactly when the record reaches a
// terminal status.
type Payment struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	PayerID    uint          `gorm:"index;not null" json:"payer_id"`
	ReceiverID uint          `gorm:"index;not null" json:"receiver_id"`
	Amount     float64       `gorm:"type:decimal(15,2);not null" json:"amount"`
	Issue      string        `gorm:"size:42;not null" json:"issue"`
	Status     PaymentStatus `gorm:"size:20;not null;default:'unpaid'" json:"status"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
	CheckedAt  *time.Time    `json:"checked_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether the payment reached a final status
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusPaid || p.Status == StatusRejected
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Payment{},
	)
}
