package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WebhookOutcome string

const (
	WebhookOutcomeProcessed     WebhookOutcome = "processed"
	WebhookOutcomeNoop          WebhookOutcome = "noop"
	WebhookOutcomeAnomaly       WebhookOutcome = "anomaly"
	WebhookOutcomeNotFound      WebhookOutcome = "not_found"
	WebhookOutcomeUnknownAction WebhookOutcome = "unknown_action"
)

// WebhookEvent is the audit trail of every inbound COELSA callback.
type WebhookEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Action      string         `gorm:"column:action;not null;index" json:"action"`
	ExternalID  string         `gorm:"column:external_id;index" json:"externalId,omitempty"`
	OperationID *uuid.UUID     `gorm:"type:uuid;column:operation_id;index" json:"operationId,omitempty"`
	Outcome     WebhookOutcome `gorm:"column:outcome;not null;index" json:"outcome"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime;index" json:"createdAt"`
}

func (WebhookEvent) TableName() string { return "coelsa_webhook_events" }

func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
