package events

import (
	"context"
	"errors"
	"strings"
	"time"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTitleRequired        = errors.New("Title is required")
	ErrStartRequired        = errors.New("Start time is required")
	ErrInvalidCapacity      = errors.New("Capacity must be greater than 0")
	ErrCapacityBelowSeats   = errors.New("Capacity cannot be less than current registrations")
	ErrEventNotFound        = errors.New("Event not found")
	ErrEventNotOpen         = errors.New("Event is not open for registration")
	ErrAlreadyRegistered    = errors.New("Already registered for this event")
	ErrEventFull            = errors.New("Event is full")
	ErrRegistrationNotFound = errors.New("Registration not found")
)

// seatHolding are registration states that occupy a seat.
var seatHolding = []domain.RegistrationStatus{domain.RegistrationRegistered, domain.RegistrationAttended}

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// View adds the number of taken seats to an event.
type View struct {
	domain.Event
	RegisteredCount int64 `json:"registered_count"`
}

type CreateInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity"`
}

func (s *Service) Create(ctx context.Context, actor authsvc.Principal, in CreateInput) (*View, error) {
	e := domain.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartsAt:    in.StartsAt,
		Capacity:    in.Capacity,
		Status:      domain.EventUpcoming,
		CreatedBy:   actor.UserID,
	}
	if e.Title == "" {
		return nil, ErrTitleRequired
	}
	if e.StartsAt.IsZero() {
		return nil, ErrStartRequired
	}
	if e.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if err := s.DB.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, err
	}
	return &View{Event: e}, nil
}

func seatsTaken(tx *gorm.DB, eventID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&domain.EventRegistration{}).
		Where("event_id = ? AND status IN ?", eventID, seatHolding).
		Count(&n).Error
	return n, err
}

func findEvent(tx *gorm.DB, id uuid.UUID) (*domain.Event, error) {
	var e domain.Event
	if err := tx.Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns events by start time, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]View, int64, error) {
	db := s.DB.WithContext(ctx)
	q := db.Model(&domain.Event{})
	if status != "" {
		st, err := domain.ParseEventStatus(status)
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
	var rows []domain.Event
	if err := q.Order("starts_at ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []View{}, total, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, e := range rows {
		ids = append(ids, e.ID)
	}
	var counts []struct {
		EventID uuid.UUID
		N       int64
	}
	err := db.Model(&domain.EventRegistration{}).
		Select("event_id, COUNT(*) AS n").
		Where("event_id IN ? AND status IN ?", ids, seatHolding).
		Group("event_id").
		Scan(&counts).Error
	if err != nil {
		return nil, 0, err
	}
	byEvent := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byEvent[c.EventID] = c.N
	}
	out := make([]View, 0, len(rows))
	for _, e := range rows {
		out = append(out, View{Event: e, RegisteredCount: byEvent[e.ID]})
	}
	return out, total, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	db := s.DB.WithContext(ctx)
	e, err := findEvent(db, id)
	if err != nil {
		return nil, err
	}
	n, err := seatsTaken(db, id)
	if err != nil {
		return nil, err
	}
	return &View{Event: *e, RegisteredCount: n}, nil
}

type UpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	Capacity    *int       `json:"capacity"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*View, error) {
	var out *View
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := findEvent(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		taken, err := seatsTaken(tx, id)
		if err != nil {
			return err
		}
		upd := map[string]interface{}{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return ErrTitleRequired
			}
			upd["title"], e.Title = title, title
		}
		if in.Description != nil {
			v := strings.TrimSpace(*in.Description)
			upd["description"], e.Description = v, v
		}
		if in.Location != nil {
			v := strings.TrimSpace(*in.Location)
			upd["location"], e.Location = v, v
		}
		if in.StartsAt != nil {
			if in.StartsAt.IsZero() {
				return ErrStartRequired
			}
			upd["starts_at"], e.StartsAt = *in.StartsAt, *in.StartsAt
		}
		if in.Capacity != nil {
			if *in.Capacity <= 0 {
				return ErrInvalidCapacity
			}
			if int64(*in.Capacity) < taken {
				return ErrCapacityBelowSeats
			}
			upd["capacity"], e.Capacity = *in.Capacity, *in.Capacity
		}
		if len(upd) > 0 {
			if err := tx.Model(&domain.Event{}).Where("id = ?", id).Updates(upd).Error; err != nil {
				return err
			}
		}
		out = &View{Event: *e, RegisteredCount: taken}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Event, error) {
	var e *domain.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		e, err = findEvent(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		to, err := domain.ParseEventStatus(status)
		if err != nil {
			return err
		}
		if err := e.Status.TransitionTo(to); err != nil {
			return err
		}
		e.Status = to
		return tx.Model(&domain.Event{}).Where("id = ?", id).Update("status", to).Error
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes the event and its registrations.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEvent(database.ForUpdate(tx), id); err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&domain.EventRegistration{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Event{}).Error
	})
}

// Register takes a seat for the caller. The event row stays locked from the capacity check to the insert.
func (s *Service) Register(ctx context.Context, actor authsvc.Principal, eventID uuid.UUID) (*domain.EventRegistration, error) {
	var reg domain.EventRegistration
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := findEvent(database.ForUpdate(tx), eventID)
		if err != nil {
			return err
		}
		if e.Status != domain.EventUpcoming {
			return ErrEventNotOpen
		}
		var mine int64
		if err := tx.Model(&domain.EventRegistration{}).
			Where("event_id = ? AND user_id = ? AND status IN ?", eventID, actor.UserID, seatHolding).
			Count(&mine).Error; err != nil {
			return err
		}
		if mine > 0 {
			return ErrAlreadyRegistered
		}
		taken, err := seatsTaken(tx, eventID)
		if err != nil {
			return err
		}
		if taken >= int64(e.Capacity) {
			return ErrEventFull
		}
		reg = domain.EventRegistration{EventID: eventID, UserID: actor.UserID, Status: domain.RegistrationRegistered}
		return tx.Create(&reg).Error
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// CancelRegistration frees the caller's seat.
func (s *Service) CancelRegistration(ctx context.Context, actor authsvc.Principal, eventID uuid.UUID) (*domain.EventRegistration, error) {
	var reg domain.EventRegistration
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := database.ForUpdate(tx).
			Where("event_id = ? AND user_id = ? AND status = ?", eventID, actor.UserID, domain.RegistrationRegistered).
			First(&reg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		if err != nil {
			return err
		}
		if err := reg.Status.TransitionTo(domain.RegistrationCancelled); err != nil {
			return err
		}
		reg.Status = domain.RegistrationCancelled
		return tx.Model(&domain.EventRegistration{}).Where("id = ?", reg.ID).Update("status", reg.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Registrations lists an event's registrations with the registered users.
func (s *Service) Registrations(ctx context.Context, eventID uuid.UUID) ([]domain.EventRegistration, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findEvent(db, eventID); err != nil {
		return nil, err
	}
	var rows []domain.EventRegistration
	if err := db.Preload("User").Where("event_id = ?", eventID).Order(`"createdAt" ASC`).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CompleteStale marks UPCOMING and ONGOING events that started more than grace ago as COMPLETED.
func (s *Service) CompleteStale(ctx context.Context, grace time.Duration) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Event{}).
		Where("status IN ? AND starts_at < ?", []domain.EventStatus{domain.EventUpcoming, domain.EventOngoing}, s.now().Add(-grace)).
		Update("status", domain.EventCompleted)
	return res.RowsAffected, res.Error
}
