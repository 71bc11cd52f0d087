package reports

import (
	"context"
	"errors"
	"strings"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidTargetType = errors.New("Target type must be PROJECT, LISTING or USER")
	ErrTargetNotFound    = errors.New("Reported item not found")
	ErrReasonRequired    = errors.New("Reason is required")
	ErrReportNotFound    = errors.New("Report not found")
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	TargetType string    `json:"target_type"`
	TargetID   uuid.UUID `json:"target_id"`
	Reason     string    `json:"reason"`
	Details    string    `json:"details"`
}

// targetModel returns the model a report target type points at.
func targetModel(targetType string) interface{} {
	switch targetType {
	case domain.ReportTargetProject:
		return &domain.Project{}
	case domain.ReportTargetListing:
		return &domain.Listing{}
	case domain.ReportTargetUser:
		return &domain.User{}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor authsvc.Principal, in CreateInput) (*domain.Report, error) {
	targetType := strings.ToUpper(strings.TrimSpace(in.TargetType))
	model := targetModel(targetType)
	if model == nil {
		return nil, ErrInvalidTargetType
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(model).Where("id = ?", in.TargetID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrTargetNotFound
	}
	r := domain.Report{
		ReporterID: actor.UserID,
		TargetType: targetType,
		TargetID:   in.TargetID,
		Reason:     reason,
		Details:    strings.TrimSpace(in.Details),
		Status:     domain.ReportOpen,
	}
	if err := s.DB.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns reports newest first, filtered by status and target type when given.
func (s *Service) List(ctx context.Context, status, targetType string, limit, offset int) ([]domain.Report, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Report{})
	if status != "" {
		st, err := domain.ParseReportStatus(status)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("status = ?", st)
	}
	if targetType != "" {
		tt := strings.ToUpper(strings.TrimSpace(targetType))
		if targetModel(tt) == nil {
			return nil, 0, ErrInvalidTargetType
		}
		q = q.Where("target_type = ?", tt)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.Report
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Report, error) {
	var r domain.Report
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReportNotFound
			}
			return err
		}
		to, err := domain.ParseReportStatus(status)
		if err != nil {
			return err
		}
		if err := r.Status.TransitionTo(to); err != nil {
			return err
		}
		r.Status = to
		return tx.Model(&domain.Report{}).Where("id = ?", id).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}
