package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/repositories"
	"github.com/villalobos-05/pagame-backend/internal/pkg/identifier"

	"gorm.io/gorm"
)

// Payment errors
var (
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrIssueTooLong    = errors.New("issue description exceeds maximum length")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentConflict = errors.New("payment is not in a state the caller can transition")
)

// PaymentService owns the payment state machine: records are created unpaid,
// the payer moves them to unchecked, and the receiver settles them to paid
// or rejected.
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(paymentRepo repositories.PaymentRepository, userRepo repositories.UserRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
	}
}

// CreatePaymentInput represents create payment input
type CreatePaymentInput struct {
	PayerID string  `json:"payer_id" validate:"required"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Issue   string  `json:"issue" validate:"max=42"`
}

// Create records a new payment obligation. The caller is requesting money
// from the payer, so the caller becomes the receiver. The payer is not
// required to exist yet; existence is validated lazily when the payer acts
// on the record.
func (s *PaymentService) Create(ctx context.Context, receiverID uint, input *CreatePaymentInput) (*models.Payment, error) {
	payerID, err := identifier.Parse(input.PayerID)
	if err != nil {
		return nil, err
	}

	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(input.Issue) > models.MaxIssueLength {
		return nil, ErrIssueTooLong
	}

	payment := &models.Payment{
		PayerID:    payerID,
		ReceiverID: receiverID,
		Amount:     input.Amount,
		Issue:      input.Issue,
		Status:     models.StatusUnpaid,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	log.Printf("✅ Payment %d created: user %d requests %.2f from user %d", payment.ID, receiverID, payment.Amount, payerID)

	return payment, nil
}

// Pay moves an unpaid payment to unchecked. The caller must be the recorded
// payer and must exist as a user. The transition itself is one conditional
// update; when no row matches, the record is re-read to report which
// precondition failed instead of silently doing nothing.
func (s *PaymentService) Pay(ctx context.Context, paymentID, callerID uint) error {
	if err := s.requireUser(ctx, callerID); err != nil {
		return err
	}

	ok, err := s.paymentRepo.MarkUnchecked(ctx, paymentID, callerID)
	if err != nil {
		return err
	}
	if !ok {
		payment, err := s.paymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if payment.PayerID != callerID {
			return ErrPaymentNotFound
		}
		// Caller is the payer, so the status already advanced past unpaid.
		return ErrPaymentConflict
	}

	log.Printf("✅ Payment %d marked unchecked by payer %d", paymentID, callerID)
	return nil
}

// Check settles a payment to paid, or rejected when reject is set, stamping
// checked_at. The caller must be the recorded receiver and must exist as a
// user. The current status is deliberately not part of the match predicate:
// the receiver's verdict is matched on {id, receiver} only.
func (s *PaymentService) Check(ctx context.Context, paymentID, callerID uint, reject bool) error {
	if err := s.requireUser(ctx, callerID); err != nil {
		return err
	}

	status := models.StatusPaid
	if reject {
		status = models.StatusRejected
	}

	ok, err := s.paymentRepo.MarkChecked(ctx, paymentID, callerID, status, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrPaymentNotFound
	}

	log.Printf("✅ Payment %d checked by receiver %d: %s", paymentID, callerID, status)
	return nil
}

// List returns the payments visible to the caller, optionally narrowed by
// the opposite role and by status. Order is whatever the store iterates.
func (s *PaymentService) List(ctx context.Context, filter repositories.PaymentFilter) ([]*models.Payment, error) {
	return s.paymentRepo.ListForUser(ctx, filter)
}

// requireUser verifies the caller still exists in the store
func (s *PaymentService) requireUser(ctx context.Context, userID uint) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
