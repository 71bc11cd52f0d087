package land

import (
	"context"
	"errors"
	"strings"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrLocationRequired   = errors.New("Location is required")
	ErrInvalidSize        = errors.New("Size must be greater than 0")
	ErrInvalidPrice       = errors.New("Asking price must be greater than 0")
	ErrSubmissionNotFound = errors.New("Land submission not found")
)

type Service struct {
	DB *gorm.DB
}

type SubmitInput struct {
	Location         string          `json:"location"`
	SizeSqm          decimal.Decimal `json:"size_sqm"`
	AskingPrice      decimal.Decimal `json:"asking_price"`
	TitleDocumentURL string          `json:"title_document_url"`
	Description      string          `json:"description"`
}

func (s *Service) Submit(ctx context.Context, actor authsvc.Principal, in SubmitInput) (*domain.LandSubmission, error) {
	l := domain.LandSubmission{
		UserID:           actor.UserID,
		Location:         strings.TrimSpace(in.Location),
		SizeSqm:          in.SizeSqm,
		AskingPrice:      in.AskingPrice,
		TitleDocumentURL: strings.TrimSpace(in.TitleDocumentURL),
		Description:      strings.TrimSpace(in.Description),
		Status:           domain.LandPending,
	}
	switch {
	case l.Location == "":
		return nil, ErrLocationRequired
	case !l.SizeSqm.IsPositive():
		return nil, ErrInvalidSize
	case !l.AskingPrice.IsPositive():
		return nil, ErrInvalidPrice
	}
	if err := s.DB.WithContext(ctx).Create(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Service) list(q *gorm.DB, limit, offset int) ([]domain.LandSubmission, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.LandSubmission
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LandSubmission, int64, error) {
	return s.list(s.DB.WithContext(ctx).Model(&domain.LandSubmission{}).Where("user_id = ?", userID), limit, offset)
}

func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]domain.LandSubmission, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.LandSubmission{})
	if status != "" {
		st, err := domain.ParseLandStatus(status)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("status = ?", st)
	}
	return s.list(q, limit, offset)
}

type ReviewInput struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// Review moves a submission to the reviewer's verdict and records who decided.
func (s *Service) Review(ctx context.Context, reviewer authsvc.Principal, id uuid.UUID, in ReviewInput) (*domain.LandSubmission, error) {
	var l domain.LandSubmission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).Where("id = ?", id).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}
		to, err := domain.ParseLandStatus(in.Status)
		if err != nil {
			return err
		}
		if err := l.Status.TransitionTo(to); err != nil {
			return err
		}
		upd := map[string]interface{}{"status": to, "reviewed_by": reviewer.UserID}
		l.Status = to
		l.ReviewedBy = &reviewer.UserID
		if note := strings.TrimSpace(in.Note); note != "" {
			upd["review_note"] = note
			l.ReviewNote = &note
		}
		return tx.Model(&domain.LandSubmission{}).Where("id = ?", id).Updates(upd).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}
