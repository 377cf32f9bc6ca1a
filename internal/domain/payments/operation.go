package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusConfirmed OperationStatus = "confirmed"
	OperationStatusError     OperationStatus = "error"
	OperationStatusReversed  OperationStatus = "reversed"
)

func (s OperationStatus) Valid() bool {
	switch s {
	case OperationStatusPending, OperationStatusConfirmed, OperationStatusError, OperationStatusReversed:
		return true
	}
	return false
}

func (s OperationStatus) Terminal() bool {
	return s == OperationStatusConfirmed || s == OperationStatusError || s == OperationStatusReversed
}

// CanTransition reports whether a webhook may move an operation from s to next.
// A reversal is the only move allowed out of a terminal status, and only from confirmed.
func (s OperationStatus) CanTransition(next OperationStatus) bool {
	switch s {
	case OperationStatusPending:
		return next.Terminal()
	case OperationStatusConfirmed:
		return next == OperationStatusReversed
	}
	return false
}

// Operation is a payment-rail transfer. Externally it is exposed as a "transaction".
type Operation struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID        *string         `gorm:"column:external_id;uniqueIndex" json:"externalId,omitempty"`
	Status            OperationStatus `gorm:"column:status;not null;index" json:"status"`
	Amount            decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	Currency          string          `gorm:"column:currency;not null;default:'ARS'" json:"currency"`
	Type              string          `gorm:"column:type;not null;index" json:"type"`
	ReverseExternalID *string         `gorm:"column:reverse_external_id" json:"reverseExternalId,omitempty"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime;index" json:"updatedAt"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Operation) TableName() string { return "transactions" }

func (o *Operation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OperationStatusPending
	}
	if o.Currency == "" {
		o.Currency = "ARS"
	}
	return nil
}

// CursorKey is the paginator key.
func (o *Operation) CursorKey() string { return o.ID.String() }
