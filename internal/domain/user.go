package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	Email         string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash  string         `gorm:"column:password_hash;not null" json:"-"`
	Role          string         `gorm:"column:role;type:varchar(20);not null;default:'USER'" json:"role"`
	Phone         *string        `gorm:"column:phone" json:"phone"`
	EmailVerified *time.Time     `gorm:"column:email_verified" json:"email_verified"`
	ReferralCode  string         `gorm:"column:referral_code;uniqueIndex" json:"referral_code"`
	ReferredBy    *uuid.UUID     `gorm:"column:referred_by;type:uuid" json:"referred_by"`
	CreatedAt     time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deletedAt;index" json:"-"`
}

func (User) TableName() string {
	return "Users"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
