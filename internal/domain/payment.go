package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProviderStripe      = "stripe"
	ProviderFlutterwave = "flutterwave"
)

// Payment records a gateway settlement once; ProviderRef is the idempotency key.
type Payment struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Provider    string          `gorm:"column:provider;type:varchar(20);not null" json:"provider"`
	ProviderRef string          `gorm:"column:provider_ref;uniqueIndex;not null" json:"provider_ref"`
	EventID     string          `gorm:"column:event_id" json:"event_id"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Currency    string          `gorm:"column:currency;not null" json:"currency"`
	Status      string          `gorm:"column:status;not null" json:"status"`
	Raw         datatypes.JSON  `gorm:"column:raw;type:jsonb" json:"raw"`
	CreatedAt   time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Payment) TableName() string {
	return "Payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
