package services

import (
	"bytes"
	"encoding/json"
	"strings"

	types "github.com/unexbilletera/unex-api/internal/domain"
)

// WebhookAction is a COELSA callback kind. Only the actions in webhookDispatch
// are handled; anything else is acknowledged as unprocessed.
type WebhookAction string

const (
	ActionTransferCompleted WebhookAction = "transfer_completed"
	ActionTransferFailed    WebhookAction = "transfer_failed"
	ActionTransferReversed  WebhookAction = "transfer_reversed"
)

type webhookHandler struct {
	target        types.OperationStatus
	label         string
	recordReverse bool
}

var webhookDispatch = map[WebhookAction]webhookHandler{
	ActionTransferCompleted: {target: types.OperationStatusConfirmed, label: "completed"},
	ActionTransferFailed:    {target: types.OperationStatusError, label: "failed"},
	ActionTransferReversed:  {target: types.OperationStatusReversed, label: "reversed", recordReverse: true},
}

// WebhookPayload is the normalized webhook body. The rail sends the operation
// id as coelsaId or externalId (coelsaId wins) and the reversal id as
// reverseExternalId or reverseCoelsaId (reverseExternalId wins).
type WebhookPayload struct {
	ExternalID        string
	ReverseExternalID string
}

type webhookBody struct {
	CoelsaID          flexString `json:"coelsaId"`
	ExternalID        flexString `json:"externalId"`
	ReverseExternalID flexString `json:"reverseExternalId"`
	ReverseCoelsaID   flexString `json:"reverseCoelsaId"`
}

// ParseWebhookPayload normalizes raw. An empty body is an empty payload.
func ParseWebhookPayload(raw []byte) (WebhookPayload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return WebhookPayload{}, nil
	}
	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return WebhookPayload{}, err
	}
	return WebhookPayload{
		ExternalID:        firstNonEmpty(string(body.CoelsaID), string(body.ExternalID)),
		ReverseExternalID: firstNonEmpty(string(body.ReverseExternalID), string(body.ReverseCoelsaID)),
	}, nil
}

// flexString accepts a JSON string or number; null and other kinds decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	default:
		*f = ""
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// WebhookResult is the body returned to the rail. Processed is omitted for a
// lookup miss.
type WebhookResult struct {
	Message       string `json:"message"`
	Processed     *bool  `json:"processed,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Anomaly       bool   `json:"anomaly,omitempty"`
}

func boolPtr(v bool) *bool { return &v }
