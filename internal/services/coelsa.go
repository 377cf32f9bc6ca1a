package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/unexbilletera/unex-api/internal/clients/coelsa"
	"github.com/unexbilletera/unex-api/internal/clients/redis"
	"github.com/unexbilletera/unex-api/internal/data/pagination"
	"github.com/unexbilletera/unex-api/internal/data/repos"
	types "github.com/unexbilletera/unex-api/internal/domain"
	"github.com/unexbilletera/unex-api/internal/observability"
	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

var proxyAPIPattern = regexp.MustCompile(`^[A-Za-z0-9/_-]+$`)

type CoelsaService interface {
	GetOperationStatus(ctx context.Context, identifier string) (*types.Operation, error)
	GetMerchantByIdentifier(ctx context.Context, taxID string) (*types.Merchant, error)
	ListOperations(ctx context.Context, filter OperationFilter, p pagination.Params) (pagination.Page[*types.Operation], error)
	ProcessWebhook(ctx context.Context, action string, raw []byte) (*WebhookResult, error)
	ProxyRequest(ctx context.Context, api string, body []byte) (*coelsa.Response, error)
	Echo(ctx context.Context, req EchoRequest) EchoResult
}

type EchoRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

type EchoResult struct {
	Method     string              `json:"method"`
	Path       string              `json:"path"`
	Query      map[string][]string `json:"query"`
	Body       any                 `json:"body"`
	ReceivedAt time.Time           `json:"receivedAt"`
}

type coelsaService struct {
	log     *logger.Logger
	ops     repos.OperationRepo
	events  repos.WebhookEventRepo
	client  coelsa.Client
	bus     redis.OperationEventBus
	metrics *observability.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

func NewCoelsaService(
	log *logger.Logger,
	ops repos.OperationRepo,
	events repos.WebhookEventRepo,
	client coelsa.Client,
	bus redis.OperationEventBus,
	metrics *observability.Metrics,
) CoelsaService {
	serviceLog := log.With("service", "CoelsaService")
	if bus == nil {
		bus = redis.NewNoopEventBus()
	}
	return &coelsaService{
		log:     serviceLog,
		ops:     ops,
		events:  events,
		client:  client,
		bus:     bus,
		metrics: metrics,
		tracer:  observability.Tracer(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *coelsaService) GetOperationStatus(ctx context.Context, identifier string) (*types.Operation, error) {
	ctx, span := s.tracer.Start(ctx, "coelsa.GetOperationStatus")
	defer span.End()

	op, err := s.ops.FindByIdentifier(dbctx.New(ctx), identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("operation %q: %w", identifier, pkgerrors.ErrNotFound)
	}
	span.SetAttributes(attribute.String("operation.id", op.ID.String()))
	return op, nil
}

func (s *coelsaService) GetMerchantByIdentifier(ctx context.Context, taxID string) (*types.Merchant, error) {
	return SyntheticMerchant(taxID)
}

func (s *coelsaService) ListOperations(ctx context.Context, filter OperationFilter, p pagination.Params) (pagination.Page[*types.Operation], error) {
	cond, err := filter.Condition()
	if err != nil {
		return pagination.Page[*types.Operation]{}, err
	}
	return s.ops.List(dbctx.New(ctx), cond, p)
}

// ProcessWebhook applies a COELSA callback. Lookup misses and unknown actions
// are acknowledged, never returned as errors.
func (s *coelsaService) ProcessWebhook(ctx context.Context, action string, raw []byte) (*WebhookResult, error) {
	ctx, span := s.tracer.Start(ctx, "coelsa.ProcessWebhook", trace.WithAttributes(attribute.String("webhook.action", action)))
	defer span.End()

	act := WebhookAction(strings.TrimSpace(action))
	handler, known := webhookDispatch[act]
	if !known {
		s.log.Warn("Unknown COELSA webhook action", "action", action)
		s.audit(ctx, action, "", nil, types.WebhookOutcomeUnknownAction, raw)
		return &WebhookResult{Message: "Unknown action: " + action, Processed: boolPtr(false)}, nil
	}

	payload, err := ParseWebhookPayload(raw)
	if err != nil {
		s.log.Warn("Malformed COELSA webhook payload", "action", action, "error", err)
	}
	received := &WebhookResult{Message: fmt.Sprintf("Transfer %s webhook received", handler.label)}
	if payload.ExternalID == "" {
		s.log.Warn("COELSA webhook without operation id", "action", action)
		s.audit(ctx, action, "", nil, types.WebhookOutcomeNotFound, raw)
		return received, nil
	}
	span.SetAttributes(attribute.String("operation.external_id", payload.ExternalID))

	dbc := dbctx.New(ctx)
	found, err := s.ops.GetByExternalIDs(dbc, []string{payload.ExternalID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}
	if len(found) == 0 {
		s.log.Warn("COELSA webhook for unknown operation", "action", action, "external_id", payload.ExternalID)
		s.audit(ctx, action, payload.ExternalID, nil, types.WebhookOutcomeNotFound, raw)
		return received, nil
	}
	op := found[0]
	processed := &WebhookResult{
		Message:       fmt.Sprintf("Transfer %s webhook processed", handler.label),
		Processed:     boolPtr(true),
		TransactionID: op.ID.String(),
	}

	from := op.Status
	switch {
	case from == handler.target:
		s.log.Info("COELSA webhook already applied", "action", action, "operation_id", op.ID, "status", from)
		s.audit(ctx, action, payload.ExternalID, &op.ID, types.WebhookOutcomeNoop, raw)
		return processed, nil
	case !from.CanTransition(handler.target):
		s.log.Warn("operation status anomaly",
			"action", action,
			"operation_id", op.ID,
			"from", from,
			"to", handler.target,
		)
		s.audit(ctx, action, payload.ExternalID, &op.ID, types.WebhookOutcomeAnomaly, raw)
		processed.Processed = boolPtr(false)
		processed.Anomaly = true
		return processed, nil
	}

	upd := repos.StatusUpdate{Status: handler.target, At: s.now()}
	if handler.recordReverse && payload.ReverseExternalID != "" {
		upd.ReverseExternalID = &payload.ReverseExternalID
	}
	if err := s.ops.UpdateStatus(dbc, op.ID, upd); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		return nil, err
	}
	s.log.Info("Operation status updated", "action", action, "operation_id", op.ID, "from", from, "to", handler.target)
	s.metrics.IncStatusChange(string(from), string(handler.target))
	s.audit(ctx, action, payload.ExternalID, &op.ID, types.WebhookOutcomeProcessed, raw)
	s.publish(ctx, types.OperationEvent{
		Type:              types.EventOperationStatusChanged,
		OperationID:       op.ID,
		ExternalID:        payload.ExternalID,
		Action:            action,
		From:              from,
		To:                handler.target,
		ReverseExternalID: payload.ReverseExternalID,
		OccurredAt:        upd.At,
	})
	return processed, nil
}

func (s *coelsaService) ProxyRequest(ctx context.Context, api string, body []byte) (*coelsa.Response, error) {
	if s.client == nil || !s.client.Configured() {
		return nil, fmt.Errorf("coelsa proxy: %w", pkgerrors.ErrNotConfigured)
	}
	api = strings.Trim(strings.TrimSpace(api), "/")
	if api == "" || !proxyAPIPattern.MatchString(api) || strings.Contains(api, "..") {
		return nil, fmt.Errorf("invalid coelsa api path %q: %w", api, pkgerrors.ErrInvalidArgument)
	}
	if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		return nil, fmt.Errorf("proxy body must be json: %w", pkgerrors.ErrInvalidArgument)
	}

	ctx, span := s.tracer.Start(ctx, "coelsa.ProxyRequest", trace.WithAttributes(attribute.String("coelsa.api", api)))
	defer span.End()

	start := time.Now()
	resp, err := s.client.Forward(ctx, api, body)
	if err != nil {
		s.metrics.ObserveCoelsaProxy("error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream call failed")
		return nil, err
	}
	s.metrics.ObserveCoelsaProxy(strconv.Itoa(resp.Status), time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	return resp, nil
}

func (s *coelsaService) Echo(ctx context.Context, req EchoRequest) EchoResult {
	var body any
	if b := bytes.TrimSpace(req.Body); len(b) > 0 {
		if err := json.Unmarshal(b, &body); err != nil {
			body = string(b)
		}
	}
	q := map[string][]string(req.Query)
	if q == nil {
		q = map[string][]string{}
	}
	return EchoResult{
		Method:     req.Method,
		Path:       req.Path,
		Query:      q,
		Body:       body,
		ReceivedAt: s.now(),
	}
}

// audit records the delivery. Failures are logged only.
func (s *coelsaService) audit(ctx context.Context, action, externalID string, opID *uuid.UUID, outcome types.WebhookOutcome, raw []byte) {
	s.metrics.IncWebhook(action, string(outcome))
	if s.events == nil {
		return
	}
	ev := &types.WebhookEvent{
		Action:     action,
		ExternalID: externalID,
		Outcome:    outcome,
	}
	if opID != nil {
		id := *opID
		ev.OperationID = &id
	}
	if b := bytes.TrimSpace(raw); len(b) > 0 && json.Valid(b) {
		ev.Payload = datatypes.JSON(b)
	}
	if err := s.events.Create(dbctx.New(ctx), ev); err != nil {
		s.log.Warn("webhook audit write failed", "action", action, "outcome", outcome, "error", err)
	}
}

func (s *coelsaService) publish(ctx context.Context, ev types.OperationEvent) {
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("operation event publish failed", "operation_id", ev.OperationID, "error", err)
	}
}
