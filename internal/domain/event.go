package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title       string      `gorm:"column:title;not null" json:"title"`
	Description string      `gorm:"column:description;type:text" json:"description"`
	Location    string      `gorm:"column:location" json:"location"`
	StartsAt    time.Time   `gorm:"column:starts_at;not null" json:"starts_at"`
	Capacity    int         `gorm:"column:capacity;not null" json:"capacity"`
	Status      EventStatus `gorm:"column:status;type:varchar(20);not null;default:'UPCOMING'" json:"status"`
	CreatedBy   uuid.UUID   `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time   `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Event) TableName() string {
	return "Events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type EventRegistration struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID          `gorm:"column:event_id;type:uuid;not null;index" json:"event_id"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Status    RegistrationStatus `gorm:"column:status;type:varchar(20);not null;default:'REGISTERED'" json:"status"`
	CreatedAt time.Time          `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time          `gorm:"column:updatedAt" json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (EventRegistration) TableName() string {
	return "EventRegistrations"
}

func (r *EventRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
