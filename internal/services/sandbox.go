package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unexbilletera/unex-api/internal/data/repos"
	types "github.com/unexbilletera/unex-api/internal/domain"
	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

const sandboxExternalPrefix = "SBX-"

type SandboxOperationInput struct {
	ExternalID string `json:"externalId"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Type       string `json:"type"`
}

// SandboxService seeds pending operations and replays webhooks against them in
// non-production environments.
type SandboxService interface {
	Enabled() bool
	CreateOperation(ctx context.Context, in SandboxOperationInput) (*types.Operation, error)
	ReplayWebhook(ctx context.Context, action string, raw []byte) (*WebhookResult, error)
}

type sandboxService struct {
	log     *logger.Logger
	enabled bool
	ops     repos.OperationRepo
	coelsa  CoelsaService
}

func NewSandboxService(log *logger.Logger, enabled bool, ops repos.OperationRepo, coelsa CoelsaService) SandboxService {
	serviceLog := log.With("service", "SandboxService")
	return &sandboxService{log: serviceLog, enabled: enabled, ops: ops, coelsa: coelsa}
}

func (s *sandboxService) Enabled() bool { return s.enabled }

func (s *sandboxService) CreateOperation(ctx context.Context, in SandboxOperationInput) (*types.Operation, error) {
	if !s.enabled {
		return nil, fmt.Errorf("sandbox disabled: %w", pkgerrors.ErrNotFound)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be a positive decimal: %w", pkgerrors.ErrInvalidArgument)
	}
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		externalID = sandboxExternalPrefix + strings.ToUpper(uuid.NewString()[:8])
	}
	opType := strings.TrimSpace(in.Type)
	if opType == "" {
		opType = "transfer_out"
	}
	op := &types.Operation{
		ExternalID: &externalID,
		Status:     types.OperationStatusPending,
		Amount:     amount.Round(2),
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
		Type:       opType,
	}
	created, err := s.ops.Create(dbctx.New(ctx), []*types.Operation{op})
	if err != nil {
		return nil, err
	}
	s.log.Info("Sandbox operation created", "operation_id", op.ID, "external_id", externalID)
	return created[0], nil
}

func (s *sandboxService) ReplayWebhook(ctx context.Context, action string, raw []byte) (*WebhookResult, error) {
	if !s.enabled {
		return nil, fmt.Errorf("sandbox disabled: %w", pkgerrors.ErrNotFound)
	}
	return s.coelsa.ProcessWebhook(ctx, action, raw)
}
