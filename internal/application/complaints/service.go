package complaints

import (
	"context"
	"errors"
	"strings"
	"time"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/application/emails"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrSubjectRequired     = errors.New("Subject is required")
	ErrDescriptionRequired = errors.New("Description is required")
	ErrResponseRequired    = errors.New("Response is required")
	ErrComplaintNotFound   = errors.New("Complaint not found")
)

type Service struct {
	DB     *gorm.DB
	Mailer emails.Sender
}

type CreateInput struct {
	Subject     string `json:"subject"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (s *Service) Create(ctx context.Context, actor authsvc.Principal, in CreateInput) (*domain.Complaint, error) {
	c := domain.Complaint{
		UserID:      actor.UserID,
		Subject:     strings.TrimSpace(in.Subject),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Status:      domain.ComplaintOpen,
	}
	if c.Subject == "" {
		return nil, ErrSubjectRequired
	}
	if c.Description == "" {
		return nil, ErrDescriptionRequired
	}
	if c.Category == "" {
		c.Category = "General"
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) list(q *gorm.DB, limit, offset int) ([]domain.Complaint, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.Complaint
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Complaint, int64, error) {
	return s.list(s.DB.WithContext(ctx).Model(&domain.Complaint{}).Where("user_id = ?", userID), limit, offset)
}

// ListAll returns every complaint with its author, optionally filtered by status.
func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]domain.Complaint, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Complaint{})
	if status != "" {
		st, err := domain.ParseComplaintStatus(status)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("status = ?", st)
	}
	return s.list(q.Preload("User"), limit, offset)
}

func find(tx *gorm.DB, id uuid.UUID) (*domain.Complaint, error) {
	var c domain.Complaint
	if err := tx.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Respond stores the reply, resolves the complaint and emails its author.
func (s *Service) Respond(ctx context.Context, id uuid.UUID, response string) (*domain.Complaint, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, ErrResponseRequired
	}
	var c *domain.Complaint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if c.Status != domain.ComplaintResolved {
			if err := c.Status.TransitionTo(domain.ComplaintResolved); err != nil {
				return err
			}
		}
		now := time.Now()
		c.Status = domain.ComplaintResolved
		c.Response = &response
		c.RespondedAt = &now
		return tx.Model(&domain.Complaint{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":       c.Status,
			"response":     response,
			"responded_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, c, response)
	return c, nil
}

func (s *Service) notify(ctx context.Context, c *domain.Complaint, response string) {
	if s.Mailer == nil {
		return
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("id = ?", c.UserID).First(&u).Error; err != nil {
		log.Warn().Err(err).Str("complaint_id", c.ID.String()).Msg("complaint author not found; response not emailed")
		return
	}
	if err := s.Mailer.SendComplaintResponse(ctx, u.Email, u.Name, c.Subject, response); err != nil {
		log.Error().Err(err).Str("complaint_id", c.ID.String()).Msg("complaint response email failed")
	}
}

func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Complaint, error) {
	var c *domain.Complaint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		to, err := domain.ParseComplaintStatus(status)
		if err != nil {
			return err
		}
		if err := c.Status.TransitionTo(to); err != nil {
			return err
		}
		c.Status = to
		return tx.Model(&domain.Complaint{}).Where("id = ?", id).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Complaint{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrComplaintNotFound
	}
	return nil
}
