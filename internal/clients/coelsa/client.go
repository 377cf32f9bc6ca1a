// Package coelsa is the outbound HTTP client for the COELSA payment rail.
package coelsa

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/pkg/httpx"
	"github.com/unexbilletera/unex-api/internal/platform/ctxutil"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

const (
	headerAPIKey    = "X-Api-Key"
	headerRequestID = "X-Request-Id"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries int
}

// Response is the upstream reply, passed through untouched.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

type Client interface {
	Configured() bool
	Forward(ctx context.Context, api string, body []byte) (*Response, error)
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *resty.Client
}

func NewClient(log *logger.Logger, cfg Config) Client {
	clientLog := log.With("client", "CoelsaClient")
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	rc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return httpx.IsRetryableError(err)
			}
			return r != nil && httpx.IsRetryableHTTPStatus(r.StatusCode())
		})
	if cfg.BaseURL != "" {
		rc.SetBaseURL(cfg.BaseURL)
	}
	return &client{log: clientLog, cfg: cfg, http: rc}
}

func (c *client) Configured() bool {
	return c != nil && c.cfg.BaseURL != ""
}

// Forward POSTs body to <BaseURL>/<api>. Non-2xx upstream replies are not
// errors; the caller relays them.
func (c *client) Forward(ctx context.Context, api string, body []byte) (*Response, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("coelsa api url: %w", pkgerrors.ErrNotConfigured)
	}
	api = strings.TrimLeft(api, "/")

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if len(body) > 0 {
		req.SetBody(body)
	}
	if c.cfg.APIKey != "" {
		req.SetHeader(headerAPIKey, c.cfg.APIKey)
	}
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.SetHeader(headerRequestID, td.RequestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := req.Post("/" + api)
	if err != nil {
		c.log.Warn("coelsa request failed", "api", api, "error", err)
		return nil, fmt.Errorf("coelsa %s: %w", api, err)
	}
	ct := resp.Header().Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		c.log.Warn("coelsa upstream error", "api", api, "status", resp.StatusCode())
	}
	return &Response{Status: resp.StatusCode(), Body: resp.Body(), ContentType: ct}, nil
}
