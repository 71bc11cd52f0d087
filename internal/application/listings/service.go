package listings

import (
	"context"
	"errors"
	"strings"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTitleRequired    = errors.New("Title is required")
	ErrLocationRequired = errors.New("Location is required")
	ErrInvalidPrice     = errors.New("Price must be greater than 0")
	ErrInvalidSize      = errors.New("Size cannot be negative")
	ErrInvalidBedrooms  = errors.New("Bedrooms cannot be negative")
	ErrProjectNotFound  = errors.New("Project not found")
	ErrListingNotFound  = errors.New("Listing not found")
	ErrForbidden        = errors.New("You do not have permission to modify this listing")
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Location     string          `json:"location"`
	Price        decimal.Decimal `json:"price"`
	PropertyType string          `json:"property_type"`
	SizeSqm      decimal.Decimal `json:"size_sqm"`
	Bedrooms     int             `json:"bedrooms"`
	Images       []string        `json:"images"`
	ProjectID    *uuid.UUID      `json:"project_id"`
}

func cleanImages(in []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (s *Service) checkProject(tx *gorm.DB, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(&domain.Project{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor authsvc.Principal, in CreateInput) (*domain.Listing, error) {
	l := domain.Listing{
		OwnerID:      actor.UserID,
		ProjectID:    in.ProjectID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Location:     strings.TrimSpace(in.Location),
		Price:        in.Price,
		PropertyType: strings.TrimSpace(in.PropertyType),
		SizeSqm:      in.SizeSqm,
		Bedrooms:     in.Bedrooms,
		Images:       cleanImages(in.Images),
		Status:       domain.ListingAvailable,
	}
	switch {
	case l.Title == "":
		return nil, ErrTitleRequired
	case l.Location == "":
		return nil, ErrLocationRequired
	case !l.Price.IsPositive():
		return nil, ErrInvalidPrice
	case l.SizeSqm.IsNegative():
		return nil, ErrInvalidSize
	case l.Bedrooms < 0:
		return nil, ErrInvalidBedrooms
	}
	db := s.DB.WithContext(ctx)
	if err := s.checkProject(db, l.ProjectID); err != nil {
		return nil, err
	}
	if err := db.Create(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// Filter narrows List; empty fields match everything.
type Filter struct {
	Status   string
	Location string
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]domain.Listing, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Listing{})
	if f.Status != "" {
		st, err := domain.ParseListingStatus(f.Status)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("status = ?", st)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(loc)+"%")
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.Listing
	if err := q.Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func find(tx *gorm.DB, id uuid.UUID) (*domain.Listing, error) {
	var l domain.Listing
	if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	return find(s.DB.WithContext(ctx), id)
}

type UpdateInput struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Location     *string          `json:"location"`
	Price        *decimal.Decimal `json:"price"`
	PropertyType *string          `json:"property_type"`
	SizeSqm      *decimal.Decimal `json:"size_sqm"`
	Bedrooms     *int             `json:"bedrooms"`
	Images       *[]string        `json:"images"`
}

// Update edits a listing owned by the caller, or any listing for an admin.
func (s *Service) Update(ctx context.Context, actor authsvc.Principal, id uuid.UUID, in UpdateInput) (*domain.Listing, error) {
	var l *domain.Listing
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		l, err = find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if !actor.CanAccess(l.OwnerID) {
			return ErrForbidden
		}
		if in.Title != nil {
			if l.Title = strings.TrimSpace(*in.Title); l.Title == "" {
				return ErrTitleRequired
			}
		}
		if in.Description != nil {
			l.Description = strings.TrimSpace(*in.Description)
		}
		if in.Location != nil {
			if l.Location = strings.TrimSpace(*in.Location); l.Location == "" {
				return ErrLocationRequired
			}
		}
		if in.Price != nil {
			if !in.Price.IsPositive() {
				return ErrInvalidPrice
			}
			l.Price = *in.Price
		}
		if in.PropertyType != nil {
			l.PropertyType = strings.TrimSpace(*in.PropertyType)
		}
		if in.SizeSqm != nil {
			if in.SizeSqm.IsNegative() {
				return ErrInvalidSize
			}
			l.SizeSqm = *in.SizeSqm
		}
		if in.Bedrooms != nil {
			if *in.Bedrooms < 0 {
				return ErrInvalidBedrooms
			}
			l.Bedrooms = *in.Bedrooms
		}
		if in.Images != nil {
			l.Images = cleanImages(*in.Images)
		}
		return tx.Model(&domain.Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":         l.Title,
			"description":   l.Description,
			"location":      l.Location,
			"price":         l.Price,
			"property_type": l.PropertyType,
			"size_sqm":      l.SizeSqm,
			"bedrooms":      l.Bedrooms,
			"images":        l.Images,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) ChangeStatus(ctx context.Context, actor authsvc.Principal, id uuid.UUID, status string) (*domain.Listing, error) {
	var l *domain.Listing
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		l, err = find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if !actor.CanAccess(l.OwnerID) {
			return ErrForbidden
		}
		to, err := domain.ParseListingStatus(status)
		if err != nil {
			return err
		}
		if err := l.Status.TransitionTo(to); err != nil {
			return err
		}
		l.Status = to
		return tx.Model(&domain.Listing{}).Where("id = ?", id).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, actor authsvc.Principal, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if !actor.CanAccess(l.OwnerID) {
			return ErrForbidden
		}
		return tx.Where("id = ?", id).Delete(&domain.Listing{}).Error
	})
}
