package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a message left through the public contact form.
type Contact struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string        `gorm:"column:name;not null" json:"name"`
	Email       string        `gorm:"column:email;not null" json:"email"`
	Phone       *string       `gorm:"column:phone" json:"phone"`
	Subject     string        `gorm:"column:subject;not null" json:"subject"`
	Message     string        `gorm:"column:message;type:text;not null" json:"message"`
	Status      ContactStatus `gorm:"column:status;type:varchar(20);not null;default:'Open'" json:"status"`
	Response    *string       `gorm:"column:response;type:text" json:"response"`
	RespondedAt *time.Time    `gorm:"column:responded_at" json:"responded_at"`
	CreatedAt   time.Time     `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Contact) TableName() string {
	return "Contacts"
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Complaint struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Subject     string          `gorm:"column:subject;not null" json:"subject"`
	Category    string          `gorm:"column:category" json:"category"`
	Description string          `gorm:"column:description;type:text;not null" json:"description"`
	Status      ComplaintStatus `gorm:"column:status;type:varchar(20);not null;default:'Open'" json:"status"`
	Response    *string         `gorm:"column:response;type:text" json:"response"`
	RespondedAt *time.Time      `gorm:"column:responded_at" json:"responded_at"`
	CreatedAt   time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updatedAt" json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Complaint) TableName() string {
	return "Complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

const (
	ReportTargetProject = "PROJECT"
	ReportTargetListing = "LISTING"
	ReportTargetUser    = "USER"
)

// Report flags a project, listing or user for admin review.
type Report struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ReporterID uuid.UUID    `gorm:"column:reporter_id;type:uuid;not null;index" json:"reporter_id"`
	TargetType string       `gorm:"column:target_type;type:varchar(20);not null" json:"target_type"`
	TargetID   uuid.UUID    `gorm:"column:target_id;type:uuid;not null" json:"target_id"`
	Reason     string       `gorm:"column:reason;not null" json:"reason"`
	Details    string       `gorm:"column:details;type:text" json:"details"`
	Status     ReportStatus `gorm:"column:status;type:varchar(20);not null;default:'Open'" json:"status"`
	CreatedAt  time.Time    `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt  time.Time    `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Report) TableName() string {
	return "Reports"
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
