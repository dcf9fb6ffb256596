package repositories

import (
	"context"
	"time"

	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user. Duplicate usernames and emails are ultimately
// rejected by the unique indexes, not by the service's existence checks.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername gets a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByRefreshToken gets the user holding the given session token
func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("refresh_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsername checks if username exists
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// SetRefreshToken overwrites the user's session token, invalidating any
// previous session
func (r *userRepository) SetRefreshToken(ctx context.Context, userID uint, token string, issuedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":           token,
			"refresh_token_issued_at": issuedAt,
		}).Error
}

// RotateRefreshToken swaps the session token only if the stored value still
// equals oldToken. A false return means the token was already rotated away
// (consumed by a concurrent refresh or superseded by a new login).
func (r *userRepository) RotateRefreshToken(ctx context.Context, userID uint, oldToken, newToken string, issuedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Where("refresh_token = ?", oldToken).
		Updates(map[string]interface{}{
			"refresh_token":           newToken,
			"refresh_token_issued_at": issuedAt,
		})
	return res.RowsAffected > 0, res.Error
}

// ClearRefreshTokensIssuedBefore drops stale session tokens (cleanup job)
func (r *userRepository) ClearRefreshTokensIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("refresh_token IS NOT NULL").
		Where("refresh_token_issued_at < ?", cutoff).
		Updates(map[string]interface{}{
			"refresh_token":           nil,
			"refresh_token_issued_at": nil,
		})
	return res.RowsAffected, res.Error
}
