package domain

import "github.com/unexbilletera/unex-api/internal/domain/payments"

const (
	OperationStatusPending   = payments.OperationStatusPending
	OperationStatusConfirmed = payments.OperationStatusConfirmed
	OperationStatusError     = payments.OperationStatusError
	OperationStatusReversed  = payments.OperationStatusReversed
)

type OperationStatus = payments.OperationStatus
type Operation = payments.Operation
type Account = payments.Account
type WebhookEvent = payments.WebhookEvent
type WebhookOutcome = payments.WebhookOutcome
type Merchant = payments.Merchant
type OperationEvent = payments.OperationEvent

const (
	WebhookOutcomeProcessed     = payments.WebhookOutcomeProcessed
	WebhookOutcomeNoop          = payments.WebhookOutcomeNoop
	WebhookOutcomeAnomaly       = payments.WebhookOutcomeAnomaly
	WebhookOutcomeNotFound      = payments.WebhookOutcomeNotFound
	WebhookOutcomeUnknownAction = payments.WebhookOutcomeUnknownAction

	EventOperationStatusChanged = payments.EventOperationStatusChanged
)
