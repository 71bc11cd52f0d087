package user

import (
	"context"
	"errors"
	"strings"
	"unicode"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/application/emails"
	"stablebricks-backend/internal/application/wallet"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"
	"stablebricks-backend/internal/pkg/constants"
	"stablebricks-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	bcryptCost         = 10
	referralCodeLength = 8
	referralBonusName  = "Referral Bonus"
)

// Service manages accounts. Wallets is optional; without it referral bonuses are skipped.
type Service struct {
	DB            *gorm.DB
	Rdb           *redis.Client
	Wallets       *wallet.Service
	Mailer        emails.Sender
	ReferralBonus decimal.Decimal
}

type RegisterInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	ReferralCode string `json:"referral_code"`
}

// Register creates a USER account. A matching referral code credits the referrer after the account exists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := normalizeName(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !validation.IsValidName(name) {
		return nil, ErrInvalidName
	}
	email := validation.NormalizeEmail(in.Email)
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" && !validation.IsValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	taken, err := s.emailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	var referrer *domain.User
	if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
		var r domain.User
		err := s.DB.WithContext(ctx).Where("referral_code = ?", code).First(&r).Error
		switch {
		case err == nil:
			referrer = &r
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Info().Str("referral_code", code).Msg("unknown referral code ignored")
		default:
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         constants.RoleUser,
	}
	if phone != "" {
		u.Phone = &phone
	}
	if referrer != nil {
		u.ReferredBy = &referrer.ID
	}

	// a referral code collision is retried with a fresh code
	for attempt := 0; ; attempt++ {
		u.ID = uuid.Nil
		u.ReferralCode = newReferralCode()
		err = s.DB.WithContext(ctx).Create(u).Error
		if err == nil {
			break
		}
		if !database.IsUniqueViolation(err) || attempt == 2 {
			return nil, err
		}
		if taken, _ := s.emailTaken(ctx, email, uuid.Nil); taken {
			return nil, ErrEmailTaken
		}
	}

	if referrer != nil && s.Wallets != nil && s.ReferralBonus.IsPositive() {
		if _, err := s.Wallets.AddReferralBonus(ctx, referrer.ID, s.ReferralBonus, referralBonusName+": "+u.Name); err != nil {
			log.Error().Err(err).Str("user_id", referrer.ID.String()).Str("referred_user_id", u.ID.String()).Msg("referral bonus failed")
		}
	}
	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, u.Email, u.Name); err != nil {
			log.Error().Err(err).Str("user_id", u.ID.String()).Msg("welcome email failed")
		}
	}
	return u, nil
}

func (s *Service) emailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	var n int64
	q := s.DB.WithContext(ctx).Unscoped().Model(&domain.User{}).Where("email = ?", email)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns users newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.User{}).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfileInput carries the self-service fields; nil means unchanged.
type UpdateProfileInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*domain.User, error) {
	upd := map[string]interface{}{}
	if in.Name != nil {
		name := normalizeName(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if !validation.IsValidName(name) {
			return nil, ErrInvalidName
		}
		upd["name"] = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			upd["phone"] = nil
		} else if !validation.IsValidPhone(phone) {
			return nil, ErrInvalidPhone
		} else {
			upd["phone"] = phone
		}
	}
	if in.Password != nil {
		if !validation.IsValidPassword(*in.Password) {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = string(hash)
	}
	if len(upd) == 0 {
		return nil, ErrNoUpdateFields
	}
	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(upd)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.Get(ctx, id)
}

// ChangeRole sets the target's role and revokes their sessions so the new role applies on next login.
func (s *Service) ChangeRole(ctx context.Context, actor authsvc.Principal, targetID uuid.UUID, role string) (*domain.User, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if !constants.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target domain.User
		if err := database.ForUpdate(tx).Where("id = ?", targetID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := checkRoleChange(tx, actor, &target, role); err != nil {
			return err
		}
		return tx.Model(&target).Update("role", role).Error
	})
	if err != nil {
		return nil, err
	}
	authsvc.DestroyUserSessions(ctx, s.Rdb, targetID.String())
	return s.Get(ctx, targetID)
}

// Delete soft-deletes the account and revokes its sessions.
func (s *Service) Delete(ctx context.Context, actor authsvc.Principal, targetID uuid.UUID) error {
	if actor.UserID == targetID {
		return ErrCannotDeleteSelf
	}
	res := s.DB.WithContext(ctx).Where("id = ?", targetID).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	authsvc.DestroyUserSessions(ctx, s.Rdb, targetID.String())
	return nil
}

func newReferralCode() string {
	id := ulid.Make().String()
	return id[len(id)-referralCodeLength:]
}

// normalizeName collapses inner whitespace and capitalises each word.
func normalizeName(s string) string {
	var b strings.Builder
	capitalize := true
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
