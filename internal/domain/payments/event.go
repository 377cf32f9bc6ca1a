package payments

import (
	"time"

	"github.com/google/uuid"
)

const EventOperationStatusChanged = "operation.status_changed"

// OperationEvent is published after a webhook moves an operation to a new status.
type OperationEvent struct {
	Type              string          `json:"type"`
	OperationID       uuid.UUID       `json:"operationId"`
	ExternalID        string          `json:"externalId,omitempty"`
	Action            string          `json:"action"`
	From              OperationStatus `json:"from"`
	To                OperationStatus `json:"to"`
	ReverseExternalID string          `json:"reverseExternalId,omitempty"`
	OccurredAt        time.Time       `json:"occurredAt"`
}
