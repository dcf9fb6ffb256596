package repositories

import (
	"context"
	"time"

	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetRefreshToken(ctx context.Context, userID uint, token string, issuedAt time.Time) error
	RotateRefreshToken(ctx context.Context, userID uint, oldToken, newToken string, issuedAt time.Time) (bool, error)
	ClearRefreshTokensIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentFilter narrows payment listing. CallerID is always bound to one of
// the two roles; PayerID/ReceiverID bind the opposite role when set.
type PaymentFilter struct {
	CallerID   uint
	PayerID    *uint
	ReceiverID *uint
	Status     *models.PaymentStatus
}

// PaymentRepository defines payment repository interface. The Mark* methods
// are single conditional updates: they report whether a row matched, so two
// concurrent transitions on the same record resolve to exactly one winner.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	MarkUnchecked(ctx context.Context, paymentID, payerID uint) (bool, error)
	MarkChecked(ctx context.Context, paymentID, receiverID uint, status models.PaymentStatus, checkedAt time.Time) (bool, error)
	ListForUser(ctx context.Context, filter PaymentFilter) ([]*models.Payment, error)
}
