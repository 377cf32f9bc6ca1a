package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unexbilletera/unex-api/internal/clients/coelsa"
	"github.com/unexbilletera/unex-api/internal/data/pagination"
	types "github.com/unexbilletera/unex-api/internal/domain"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
	"github.com/unexbilletera/unex-api/internal/services"
)

type fakeCoelsaService struct {
	webhookAction string
	webhookBody   []byte
	webhookRes    *services.WebhookResult
	webhookErr    error

	op    *types.Operation
	opErr error

	filter services.OperationFilter
	params pagination.Params
	page   pagination.Page[*types.Operation]

	proxyAPI  string
	proxyBody []byte
	proxyRes  *coelsa.Response
	proxyErr  error
}

func (f *fakeCoelsaService) GetOperationStatus(ctx context.Context, identifier string) (*types.Operation, error) {
	return f.op, f.opErr
}

func (f *fakeCoelsaService) GetMerchantByIdentifier(ctx context.Context, taxID string) (*types.Merchant, error) {
	return services.SyntheticMerchant(taxID)
}

func (f *fakeCoelsaService) ListOperations(ctx context.Context, filter services.OperationFilter, p pagination.Params) (pagination.Page[*types.Operation], error) {
	f.filter = filter
	f.params = p
	return f.page, nil
}

func (f *fakeCoelsaService) ProcessWebhook(ctx context.Context, action string, raw []byte) (*services.WebhookResult, error) {
	f.webhookAction = action
	f.webhookBody = raw
	return f.webhookRes, f.webhookErr
}

func (f *fakeCoelsaService) ProxyRequest(ctx context.Context, api string, body []byte) (*coelsa.Response, error) {
	f.proxyAPI = api
	f.proxyBody = body
	return f.proxyRes, f.proxyErr
}

func (f *fakeCoelsaService) Echo(ctx context.Context, req services.EchoRequest) services.EchoResult {
	return services.EchoResult{Method: req.Method, Path: req.Path, Query: req.Query, Body: string(req.Body)}
}

func newCoelsaRouter(svc services.CoelsaService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCoelsaHandler(logger.Nop(), svc)
	r := gin.New()
	r.POST("/coelsa/webhook/:action", h.Webhook)
	r.GET("/coelsa/operations", h.ListOperations)
	r.GET("/coelsa/operations/:id", h.GetOperationStatus)
	r.GET("/coelsa/merchants/:cuit", h.GetMerchant)
	r.POST("/coelsa/proxy/*api", h.Proxy)
	r.GET("/coelsa/echo", h.Echo)
	r.POST("/coelsa/echo", h.Echo)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, rec.Body.String())
	}
	return env.Error.Code, env.Error.Message
}

func TestWebhookAnswersOKForUnknownAction(t *testing.T) {
	processed := false
	svc := &fakeCoelsaService{webhookRes: &services.WebhookResult{Message: "Unknown action: refund", Processed: &processed}}
	rec := serve(newCoelsaRouter(svc), http.MethodPost, "/coelsa/webhook/refund", `{"coelsaId":"C-1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if svc.webhookAction != "refund" {
		t.Fatalf("action: want=refund got=%q", svc.webhookAction)
	}
	if string(svc.webhookBody) != `{"coelsaId":"C-1"}` {
		t.Fatalf("body: got=%s", svc.webhookBody)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["message"] != "Unknown action: refund" || got["processed"] != false {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestWebhookEmptyBodyReachesService(t *testing.T) {
	svc := &fakeCoelsaService{webhookRes: &services.WebhookResult{Message: "Transfer completed webhook received"}}
	rec := serve(newCoelsaRouter(svc), http.MethodPost, "/coelsa/webhook/transfer_completed", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if svc.webhookBody != nil {
		t.Fatalf("expected nil body, got=%q", svc.webhookBody)
	}
	if strings.Contains(rec.Body.String(), "processed") {
		t.Fatalf("processed should be omitted: %s", rec.Body.String())
	}
}

func TestWebhookStorageFailureHidesDetails(t *testing.T) {
	svc := &fakeCoelsaService{webhookErr: errors.New("pq: connection refused")}
	rec := serve(newCoelsaRouter(svc), http.MethodPost, "/coelsa/webhook/transfer_completed", `{"coelsaId":"C-1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=%d got=%d", http.StatusInternalServerError, rec.Code)
	}
	code, msg := decodeErrorCode(t, rec)
	if code != "webhook_failed" || msg != "internal server error" {
		t.Fatalf("envelope: code=%q msg=%q", code, msg)
	}
}

func TestGetOperationStatus(t *testing.T) {
	ext := "C-42"
	op := &types.Operation{
		ID:         uuid.New(),
		ExternalID: &ext,
		Status:     types.OperationStatusConfirmed,
		Amount:     decimal.RequireFromString("10.50"),
		Currency:   "ARS",
		Type:       "transfer_out",
	}
	rec := serve(newCoelsaRouter(&fakeCoelsaService{op: op}), http.MethodGet, "/coelsa/operations/C-42", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["externalId"] != ext || got["status"] != "confirmed" || got["amount"] != "10.5" {
		t.Fatalf("unexpected body: %v", got)
	}

	missing := &fakeCoelsaService{opErr: fmt.Errorf("operation %q: %w", "nope", pkgerrors.ErrNotFound)}
	rec = serve(newCoelsaRouter(missing), http.MethodGet, "/coelsa/operations/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	if code, _ := decodeErrorCode(t, rec); code != "not_found" {
		t.Fatalf("code: want=not_found got=%q", code)
	}
}

func TestGetMerchant(t *testing.T) {
	r := newCoelsaRouter(&fakeCoelsaService{})

	rec := serve(r, http.MethodGet, "/coelsa/merchants/30-71234567-8", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	var m types.Merchant
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.PersonType != "juridica" || m.CUIT != "30-71234567-8" {
		t.Fatalf("unexpected merchant: %+v", m)
	}

	rec = serve(r, http.MethodGet, "/coelsa/merchants/123", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
}

func TestListOperationsBindsQuery(t *testing.T) {
	svc := &fakeCoelsaService{page: pagination.Page[*types.Operation]{Data: []*types.Operation{}}}
	rec := serve(newCoelsaRouter(svc), http.MethodGet,
		"/coelsa/operations?take=5&sortBy=amount&sortOrder=asc&status=pending&minAmount=10&search=C-&excludeStatus=error,reversed", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if svc.params.Take != 5 || svc.params.SortBy != "amount" || svc.params.SortOrder != pagination.SortAsc {
		t.Fatalf("params: %+v", svc.params)
	}
	if svc.filter.Status == nil || *svc.filter.Status != "pending" {
		t.Fatalf("status filter: %+v", svc.filter.Status)
	}
	if svc.filter.MinAmount == nil || *svc.filter.MinAmount != "10" || svc.filter.MaxAmount != nil {
		t.Fatalf("amount filter: min=%v max=%v", svc.filter.MinAmount, svc.filter.MaxAmount)
	}
	if svc.filter.Search != "C-" || svc.filter.ExcludeStatus != "error,reversed" {
		t.Fatalf("filter: %+v", svc.filter)
	}
	var page map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page["hasMore"] != false || page["hasPrevious"] != false {
		t.Fatalf("unexpected page: %v", page)
	}
}

func TestListOperationsRejectsBadTake(t *testing.T) {
	rec := serve(newCoelsaRouter(&fakeCoelsaService{}), http.MethodGet, "/coelsa/operations?take=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
}

func TestProxyRelaysUpstreamResponse(t *testing.T) {
	svc := &fakeCoelsaService{proxyRes: &coelsa.Response{
		Status:      http.StatusAccepted,
		Body:        []byte(`{"queued":true}`),
		ContentType: "application/json; charset=utf-8",
	}}
	rec := serve(newCoelsaRouter(svc), http.MethodPost, "/coelsa/proxy/transfers/status", `{"id":"C-1"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: want=%d got=%d", http.StatusAccepted, rec.Code)
	}
	if svc.proxyAPI != "/transfers/status" {
		t.Fatalf("api: want=/transfers/status got=%q", svc.proxyAPI)
	}
	if string(svc.proxyBody) != `{"id":"C-1"}` {
		t.Fatalf("forwarded body: %s", svc.proxyBody)
	}
	if rec.Body.String() != `{"queued":true}` {
		t.Fatalf("relayed body: %s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type: %q", ct)
	}
}

func TestProxyErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"not configured", fmt.Errorf("coelsa proxy: %w", pkgerrors.ErrNotConfigured), http.StatusNotImplemented, "not_configured"},
		{"bad path", fmt.Errorf("bad api: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{"upstream down", errors.New("dial tcp: connection refused"), http.StatusBadGateway, "upstream_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(newCoelsaRouter(&fakeCoelsaService{proxyErr: tc.err}), http.MethodPost, "/coelsa/proxy/x", `{}`)
			if rec.Code != tc.want {
				t.Fatalf("status: want=%d got=%d", tc.want, rec.Code)
			}
			if code, _ := decodeErrorCode(t, rec); code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, code)
			}
		})
	}
}

func TestEcho(t *testing.T) {
	r := newCoelsaRouter(&fakeCoelsaService{})

	rec := serve(r, http.MethodPost, "/coelsa/echo?a=1", `{"ping":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	var got services.EchoResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Method != http.MethodPost || got.Path != "/coelsa/echo" || got.Query["a"][0] != "1" || got.Body != `{"ping":true}` {
		t.Fatalf("unexpected echo: %+v", got)
	}

	rec = serve(r, http.MethodGet, "/coelsa/echo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
}
