package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID      `gorm:"type:uuid;column:user_id;index" json:"userId,omitempty"`
	Type      string          `gorm:"column:type;not null;index" json:"type"`
	Status    string          `gorm:"column:status;not null;index" json:"status"`
	CVU       *string         `gorm:"column:cvu;uniqueIndex" json:"cvu,omitempty"`
	Alias     string          `gorm:"column:alias" json:"alias,omitempty"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(20,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
