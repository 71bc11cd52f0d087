package auth

import (
	"context"
	"errors"
	"time"

	"stablebricks-backend/internal/application/emails"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/pkg/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetPurpose  = "password_reset"
	resetTokenTTL = time.Hour
)

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Service handles login and password recovery.
type Service struct {
	DB         *gorm.DB
	Rdb        *redis.Client
	Secret     string
	Mailer     emails.Sender
	AppBaseURL string
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login finds the user by email and verifies the password.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}

// RequestPasswordReset emails a reset link when the address belongs to a user.
// Unknown addresses succeed silently so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s.Secret == "" {
		return ErrResetUnavailable
	}
	var u domain.User
	err := s.DB.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := s.IssueResetToken(u.ID)
	if err != nil {
		return err
	}
	if s.Mailer != nil {
		link := s.AppBaseURL + "/reset-password?token=" + token
		if err := s.Mailer.SendPasswordReset(ctx, u.Email, u.Name, link); err != nil {
			log.Error().Err(err).Str("user_id", u.ID.String()).Msg("password reset email failed")
		}
	}
	return nil
}

// IssueResetToken signs an HS256 token for userID valid for one hour.
func (s *Service) IssueResetToken(userID uuid.UUID) (string, error) {
	if s.Secret == "" {
		return "", ErrResetUnavailable
	}
	now := s.now()
	claims := resetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
}

// ParseResetToken returns the user id of a valid, unexpired reset token.
func (s *Service) ParseResetToken(token string) (uuid.UUID, error) {
	if s.Secret == "" {
		return uuid.Nil, ErrResetUnavailable
	}
	claims := &resetClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.Purpose != resetPurpose {
		return uuid.Nil, ErrInvalidResetToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidResetToken
	}
	return id, nil
}

// ResetPassword sets a new password from a reset token and signs the user out everywhere.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	userID, err := s.ParseResetToken(token)
	if err != nil {
		return err
	}
	if !validation.IsValidPassword(password) {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("password_hash", string(hash))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidResetToken
	}
	DestroyUserSessions(ctx, s.Rdb, userID.String())
	return nil
}
