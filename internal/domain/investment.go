package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvestmentTerm is the holding period between investment and return.
const InvestmentTerm = 365 * 24 * time.Hour

type Investment struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ProjectID         uuid.UUID         `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	InvestmentAmount  decimal.Decimal   `gorm:"column:investment_amount;type:decimal(18,2);not null" json:"investment_amount"`
	Shares            int               `gorm:"column:shares;not null" json:"shares"`
	Status            InvestmentStatus  `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CertificateID     string            `gorm:"column:certificate_id" json:"certificate_id"`
	VerificationToken string            `gorm:"column:verification_token;not null;uniqueIndex" json:"verification_token"`
	DateOfInvestment  time.Time         `gorm:"column:date_of_investment;not null" json:"date_of_investment"`
	DateOfReturn      time.Time         `gorm:"column:date_of_return;not null" json:"date_of_return"`
	TransactionRef    *string           `gorm:"column:transaction_ref" json:"transaction_ref"`
	FlutterwaveRef    *string           `gorm:"column:flutterwave_ref" json:"flutterwave_ref"`
	CertificateStatus CertificateStatus `gorm:"column:certificate_status;type:varchar(20);not null;default:'PENDING'" json:"certificate_status"`
	CertificateURL    *string           `gorm:"column:certificate_url" json:"certificate_url"`
	CertificateError  *string           `gorm:"column:certificate_error" json:"certificate_error,omitempty"`
	ClaimedAt         *time.Time        `gorm:"column:certificate_claimed_at" json:"-"`
	CreatedAt         time.Time         `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt         time.Time         `gorm:"column:updatedAt" json:"updatedAt"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Investment) TableName() string {
	return "Investments"
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// CertificateNumber falls back to the last eight characters of the id for rows created without one.
func (i *Investment) CertificateNumber() string {
	if i.CertificateID != "" {
		return i.CertificateID
	}
	id := i.ID.String()
	return "SB-CERT-" + id[len(id)-8:]
}
