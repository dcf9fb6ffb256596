package repositories

import (
	"context"
	"time"

	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID gets a payment by ID
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkUnchecked moves an unpaid payment to unchecked, matched on the
// recorded payer. The status predicate makes the update a compare-and-set:
// of two concurrent calls only one row match succeeds.
func (r *paymentRepository) MarkUnchecked(ctx context.Context, paymentID, payerID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Where("payer_id = ?", payerID).
		Where("status = ?", models.StatusUnpaid).
		Update("status", models.StatusUnchecked)
	return res.RowsAffected > 0, res.Error
}

// MarkChecked settles a payment to paid or rejected, matched on the recorded
// receiver, stamping checked_at in the same update.
func (r *paymentRepository) MarkChecked(ctx context.Context, paymentID, receiverID uint, status models.PaymentStatus, checkedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Where("receiver_id = ?", receiverID).
		Updates(map[string]interface{}{
			"status":     status,
			"checked_at": checkedAt,
		})
	return res.RowsAffected > 0, res.Error
}

// ListForUser lists payments visible to the caller. Without role filters the
// caller may appear on either side; a payer filter pins the caller as
// receiver and vice versa.
func (r *paymentRepository) ListForUser(ctx context.Context, filter PaymentFilter) ([]*models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{})

	switch {
	case filter.PayerID != nil:
		query = query.Where("payer_id = ?", *filter.PayerID).Where("receiver_id = ?", filter.CallerID)
	case filter.ReceiverID != nil:
		query = query.Where("payer_id = ?", filter.CallerID).Where("receiver_id = ?", *filter.ReceiverID)
	default:
		query = query.Where("payer_id = ? OR receiver_id = ?", filter.CallerID, filter.CallerID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var payments []*models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
