package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/repositories"
	"github.com/villalobos-05/pagame-backend/internal/config"
	"github.com/villalobos-05/pagame-backend/internal/pkg/identifier"
	"github.com/villalobos-05/pagame-backend/internal/pkg/jwt"
	"github.com/villalobos-05/pagame-backend/internal/pkg/password"
	"github.com/villalobos-05/pagame-backend/internal/pkg/session"

	"gorm.io/gorm"
)

// Auth errors
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUsernameTaken          = errors.New("username already picked")
	ErrInvalidToken           = errors.New("invalid token")
	ErrUserNotFound           = errors.New("user not found")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// SignUpInput represents registration input
type SignUpInput struct {
	Username string `json:"username" validate:"required,min=4,max=16"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignInInput represents login input; one of Username or Email must be set
type SignInInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult represents the outcome of a successful authentication
type AuthResult struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// SignUp registers a new user and opens a session. Email is checked before
// username, so a request failing both reports the email conflict. The
// check-then-insert sequence is not atomic; the unique indexes on users are
// what actually guarantee uniqueness under concurrent sign-ups.
func (s *AuthService) SignUp(ctx context.Context, input *SignUpInput) (*AuthResult, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	exists, err = s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	refreshToken := session.GenerateRefreshToken()
	now := time.Now()

	user := &models.User{
		Username:             input.Username,
		Email:                input.Email,
		Password:             hashedPassword,
		RefreshToken:         &refreshToken,
		RefreshTokenIssuedAt: &now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	accessToken, err := s.issueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User registered: %s", user.Username)

	return &AuthResult{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// SignIn authenticates a user and rotates in a fresh session, invalidating
// any token issued to a previous login.
func (s *AuthService) SignIn(ctx context.Context, input *SignInInput) (*AuthResult, error) {
	user, err := s.lookupUser(ctx, input)
	if err != nil {
		return nil, err
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.issueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	refreshToken := session.GenerateRefreshToken()
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, refreshToken, time.Now()); err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Username)

	return &AuthResult{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair. The stored token
// is swapped with a conditional update, so a token can be consumed exactly
// once: the loser of a concurrent refresh gets ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	user, err := s.userRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	accessToken, err := s.issueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	newRefreshToken := session.GenerateRefreshToken()
	rotated, err := s.userRepo.RotateRefreshToken(ctx, user.ID, refreshToken, newRefreshToken, time.Now())
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrInvalidToken
	}

	log.Printf("✅ Session refreshed for user: %s", user.Username)

	return &AuthResult{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// lookupUser finds the user by email first, else username
func (s *AuthService) lookupUser(ctx context.Context, input *SignInInput) (*models.User, error) {
	var (
		user *models.User
		err  error
	)

	switch {
	case input.Email != "":
		user, err = s.userRepo.GetByEmail(ctx, input.Email)
	case input.Username != "":
		user, err = s.userRepo.GetByUsername(ctx, input.Username)
	default:
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// issueAccessToken signs a short-lived access token bound to the user id
func (s *AuthService) issueAccessToken(userID uint) (string, error) {
	ttl := time.Duration(s.cfg.JWT.AccessTokenMins) * time.Minute
	return jwt.GenerateAccessToken(identifier.Format(userID), s.cfg.JWT.Secret, s.cfg.JWT.Algorithm, ttl)
}
