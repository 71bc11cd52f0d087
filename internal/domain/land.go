package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LandSubmission is a plot offered to StableBricks for development.
type LandSubmission struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Location         string          `gorm:"column:location;not null" json:"location"`
	SizeSqm          decimal.Decimal `gorm:"column:size_sqm;type:decimal(12,2);not null" json:"size_sqm"`
	AskingPrice      decimal.Decimal `gorm:"column:asking_price;type:decimal(18,2);not null" json:"asking_price"`
	TitleDocumentURL string          `gorm:"column:title_document_url" json:"title_document_url"`
	Description      string          `gorm:"column:description;type:text" json:"description"`
	Status           LandStatus      `gorm:"column:status;type:varchar(20);not null;default:'PENDING'" json:"status"`
	ReviewNote       *string         `gorm:"column:review_note;type:text" json:"review_note"`
	ReviewedBy       *uuid.UUID      `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by"`
	CreatedAt        time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (LandSubmission) TableName() string {
	return "LandSubmissions"
}

func (l *LandSubmission) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
