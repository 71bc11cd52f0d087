package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Wallet struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(18,2);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updatedAt" json:"updatedAt"`

	Bonuses []Bonus `gorm:"foreignKey:WalletID" json:"bonuses,omitempty"`
}

func (Wallet) TableName() string {
	return "Wallets"
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

type Bonus struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WalletID  uuid.UUID       `gorm:"column:wallet_id;type:uuid;not null;index" json:"wallet_id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Bonus) TableName() string {
	return "Bonuses"
}

func (b *Bonus) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"

	LedgerDeposit    = "DEPOSIT"
	LedgerWithdrawal = "WITHDRAWAL"
	LedgerBonus      = "BONUS"
	LedgerReversal   = "REVERSAL"

	LedgerPending   = "PENDING"
	LedgerCompleted = "COMPLETED"
	LedgerFailed    = "FAILED"
)

// LedgerEntry is an append-only record of a balance movement. Only Status changes after insert.
type LedgerEntry struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WalletID     uuid.UUID       `gorm:"column:wallet_id;type:uuid;not null;index" json:"wallet_id"`
	Direction    string          `gorm:"column:direction;type:varchar(10);not null" json:"direction"`
	Kind         string          `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:decimal(18,2);not null" json:"balance_after"`
	Reference    string          `gorm:"column:reference;not null;uniqueIndex" json:"reference"`
	Status       string          `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Metadata     datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (LedgerEntry) TableName() string {
	return "LedgerEntries"
}

func (l *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
