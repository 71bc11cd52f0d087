package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"stablebricks-backend/internal/application/emails"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"
	"stablebricks-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNameRequired     = errors.New("Name is required")
	ErrInvalidEmail     = errors.New("Invalid email format")
	ErrInvalidPhone     = errors.New("Invalid phone number")
	ErrSubjectRequired  = errors.New("Subject is required")
	ErrMessageRequired  = errors.New("Message is required")
	ErrResponseRequired = errors.New("Response is required")
	ErrContactNotFound  = errors.New("Contact not found")
)

type Service struct {
	DB     *gorm.DB
	Mailer emails.Sender
}

type CreateInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Create stores a message from the public contact form.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Contact, error) {
	c := domain.Contact{
		Name:    strings.TrimSpace(in.Name),
		Email:   validation.NormalizeEmail(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
		Status:  domain.ContactOpen,
	}
	switch {
	case c.Name == "":
		return nil, ErrNameRequired
	case !validation.IsValidEmail(c.Email):
		return nil, ErrInvalidEmail
	case c.Subject == "":
		return nil, ErrSubjectRequired
	case c.Message == "":
		return nil, ErrMessageRequired
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		if !validation.IsValidPhone(phone) {
			return nil, ErrInvalidPhone
		}
		c.Phone = &phone
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]domain.Contact, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Contact{})
	if status != "" {
		st, err := domain.ParseContactStatus(status)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("status = ?", st)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.Contact
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func find(tx *gorm.DB, id uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact
	if err := tx.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	return find(s.DB.WithContext(ctx), id)
}

// Respond records the admin's reply, marks the contact Responded and emails the sender.
// Replying again to a Responded contact replaces the reply.
func (s *Service) Respond(ctx context.Context, id uuid.UUID, response string) (*domain.Contact, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, ErrResponseRequired
	}
	var c *domain.Contact
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if c.Status != domain.ContactResponded {
			if err := c.Status.TransitionTo(domain.ContactResponded); err != nil {
				return err
			}
		}
		now := time.Now()
		c.Status = domain.ContactResponded
		c.Response = &response
		c.RespondedAt = &now
		return tx.Model(&domain.Contact{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":       c.Status,
			"response":     response,
			"responded_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	if s.Mailer != nil {
		if err := s.Mailer.SendContactResponse(ctx, c.Email, c.Name, c.Subject, response); err != nil {
			log.Error().Err(err).Str("contact_id", c.ID.String()).Msg("contact response email failed")
		}
	}
	return c, nil
}

func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Contact, error) {
	var c *domain.Contact
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		to, err := domain.ParseContactStatus(status)
		if err != nil {
			return err
		}
		if err := c.Status.TransitionTo(to); err != nil {
			return err
		}
		c.Status = to
		return tx.Model(&domain.Contact{}).Where("id = ?", id).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}
