package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing is a property advertised for sale by a developer or admin.
type Listing struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID                   `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	ProjectID    *uuid.UUID                  `gorm:"column:project_id;type:uuid" json:"project_id"`
	Title        string                      `gorm:"column:title;not null" json:"title"`
	Description  string                      `gorm:"column:description" json:"description"`
	Location     string                      `gorm:"column:location;not null" json:"location"`
	Price        decimal.Decimal             `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	PropertyType string                      `gorm:"column:property_type" json:"property_type"`
	SizeSqm      decimal.Decimal             `gorm:"column:size_sqm;type:decimal(12,2)" json:"size_sqm"`
	Bedrooms     int                         `gorm:"column:bedrooms" json:"bedrooms"`
	Images       datatypes.JSONSlice[string] `gorm:"column:images;type:json" json:"images"`
	Status       ListingStatus               `gorm:"column:status;type:varchar(20);not null;default:'AVAILABLE'" json:"status"`
	CreatedAt    time.Time                   `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time                   `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Listing) TableName() string {
	return "Listings"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Images == nil {
		l.Images = datatypes.JSONSlice[string]{}
	}
	return nil
}
