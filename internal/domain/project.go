package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project is a property offered for fractional investment.
// TotalShares is fixed at creation; SoldShares never exceeds it.
type Project struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name               string          `gorm:"column:name;not null" json:"name"`
	Description        string          `gorm:"column:description" json:"description"`
	Location           string          `gorm:"column:location" json:"location"`
	ImageURL           string          `gorm:"column:image_url" json:"image_url"`
	InvestmentRequired decimal.Decimal `gorm:"column:investment_required;type:decimal(18,2);not null" json:"investment_required"`
	SharePrice         decimal.Decimal `gorm:"column:share_price;type:decimal(18,2);not null" json:"share_price"`
	TotalShares        int             `gorm:"column:total_shares;not null" json:"total_shares"`
	SoldShares         int             `gorm:"column:sold_shares;not null;default:0" json:"sold_shares"`
	ExpectedReturn     decimal.Decimal `gorm:"column:expected_return;type:decimal(5,2)" json:"expected_return"`
	ProjectStatus      ProjectStatus   `gorm:"column:project_status;type:varchar(20);not null;default:'OPEN'" json:"project_status"`
	DeveloperID        *uuid.UUID      `gorm:"column:developer_id;type:uuid" json:"developer_id"`
	CreatedAt          time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt          time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Project) TableName() string {
	return "Projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Project) AvailableShares() int {
	if p.SoldShares >= p.TotalShares {
		return 0
	}
	return p.TotalShares - p.SoldShares
}
