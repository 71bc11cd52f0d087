package projects

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

type Service struct {
	DB *gorm.DB
}

// View adds the derived share availability to a project.
type View struct {
	domain.Project
	AvailableShares int `json:"available_shares"`
}

func newView(p domain.Project) View {
	return View{Project: p, AvailableShares: p.AvailableShares()}
}

type CreateInput struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Location           string          `json:"location"`
	ImageURL           string          `json:"image_url"`
	InvestmentRequired decimal.Decimal `json:"investment_required"`
	SharePrice         decimal.Decimal `json:"share_price"`
	ExpectedReturn     decimal.Decimal `json:"expected_return"`
	Status             string          `json:"project_status"`
	DeveloperID        *uuid.UUID      `json:"developer_id"`
}

// TotalShares is how many whole shares of sharePrice fit in the requirement.
func TotalShares(investmentRequired, sharePrice decimal.Decimal) int {
	return int(investmentRequired.Div(sharePrice).Floor().IntPart())
}

// Create opens a project. Developers always own what they create; admins may assign a developer.
func (s *Service) Create(ctx context.Context, actor authsvc.Principal, in CreateInput) (*View, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !in.InvestmentRequired.IsPositive() {
		return nil, ErrInvalidRequirement
	}
	if !in.SharePrice.IsPositive() {
		return nil, ErrInvalidSharePrice
	}
	if in.SharePrice.GreaterThan(in.InvestmentRequired) {
		return nil, ErrSharePriceTooHigh
	}
	if in.ExpectedReturn.IsNegative() {
		return nil, ErrInvalidReturn
	}
	status := domain.ProjectOpen
	if in.Status != "" {
		status = domain.ProjectStatus(strings.ToUpper(in.Status))
		if status != domain.ProjectOpen && status != domain.ProjectUpcoming {
			return nil, ErrInvalidInitialStatus
		}
	}

	p := domain.Project{
		Name:               name,
		Description:        strings.TrimSpace(in.Description),
		Location:           strings.TrimSpace(in.Location),
		ImageURL:           strings.TrimSpace(in.ImageURL),
		InvestmentRequired: in.InvestmentRequired,
		SharePrice:         in.SharePrice,
		TotalShares:        TotalShares(in.InvestmentRequired, in.SharePrice),
		SoldShares:         0,
		ExpectedReturn:     in.ExpectedReturn,
		ProjectStatus:      status,
	}
	if actor.IsAdmin() {
		p.DeveloperID = in.DeveloperID
	} else {
		id := actor.UserID
		p.DeveloperID = &id
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	v := newView(p)
	return &v, nil
}

// List returns projects newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]View, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Project{})
	if status != "" {
		st, err := domain.ParseProjectStatus(status)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("project_status = ?", st)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.Project
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]View, 0, len(rows))
	for _, p := range rows {
		out = append(out, newView(p))
	}
	return out, total, nil
}

func (s *Service) find(tx *gorm.DB, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	p, err := s.find(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	v := newView(*p)
	return &v, nil
}

func canModify(actor authsvc.Principal, p *domain.Project) bool {
	if actor.IsAdmin() {
		return true
	}
	return p.DeveloperID != nil && *p.DeveloperID == actor.UserID
}

// UpdateInput holds editable fields; nil means unchanged. TotalShares is never recomputed.
type UpdateInput struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	Location           *string          `json:"location"`
	ImageURL           *string          `json:"image_url"`
	InvestmentRequired *decimal.Decimal `json:"investment_required"`
	SharePrice         *decimal.Decimal `json:"share_price"`
	ExpectedReturn     *decimal.Decimal `json:"expected_return"`
}

func (s *Service) Update(ctx context.Context, actor authsvc.Principal, id uuid.UUID, in UpdateInput) (*View, error) {
	var out *View
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if !canModify(actor, p) {
			return ErrForbidden
		}
		upd := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrNameRequired
			}
			upd["name"] = name
			p.Name = name
		}
		if in.Description != nil {
			upd["description"] = strings.TrimSpace(*in.Description)
			p.Description = upd["description"].(string)
		}
		if in.Location != nil {
			upd["location"] = strings.TrimSpace(*in.Location)
			p.Location = upd["location"].(string)
		}
		if in.ImageURL != nil {
			upd["image_url"] = strings.TrimSpace(*in.ImageURL)
			p.ImageURL = upd["image_url"].(string)
		}
		if in.InvestmentRequired != nil {
			if !in.InvestmentRequired.IsPositive() {
				return ErrInvalidRequirement
			}
			upd["investment_required"] = *in.InvestmentRequired
			p.InvestmentRequired = *in.InvestmentRequired
		}
		if in.SharePrice != nil {
			if !in.SharePrice.IsPositive() {
				return ErrInvalidSharePrice
			}
			upd["share_price"] = *in.SharePrice
			p.SharePrice = *in.SharePrice
		}
		if p.SharePrice.GreaterThan(p.InvestmentRequired) {
			return ErrSharePriceTooHigh
		}
		if in.ExpectedReturn != nil {
			if in.ExpectedReturn.IsNegative() {
				return ErrInvalidReturn
			}
			upd["expected_return"] = *in.ExpectedReturn
			p.ExpectedReturn = *in.ExpectedReturn
		}
		if len(upd) > 0 {
			if err := tx.Model(&domain.Project{}).Where("id = ?", id).Updates(upd).Error; err != nil {
				return err
			}
		}
		v := newView(*p)
		out = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChangeStatus moves the project along its lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, actor authsvc.Principal, id uuid.UUID, status string) (*View, error) {
	to := domain.ProjectStatus(strings.ToUpper(strings.TrimSpace(status)))
	var out *View
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if !canModify(actor, p) {
			return ErrForbidden
		}
		if err := p.ProjectStatus.TransitionTo(to); err != nil {
			return err
		}
		if err := tx.Model(&domain.Project{}).Where("id = ?", id).Update("project_status", to).Error; err != nil {
			return err
		}
		p.ProjectStatus = to
		v := newView(*p)
		out = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a project that nobody has invested in.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.find(database.ForUpdate(tx), id); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&domain.Investment{}).Where("project_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrProjectHasInvestments
		}
		return tx.Where("id = ?", id).Delete(&domain.Project{}).Error
	})
}
