package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

// Metrics is a nil-safe registry; every method is a no-op on a nil receiver.
type Metrics struct {
	apiRequests     *CounterVec
	apiLatency      *HistogramVec
	apiInflight     *Gauge
	apiReqTotal     *Counter
	apiReqError     *Counter
	webhookOutcomes *CounterVec
	statusChanges   *CounterVec
	coelsaRequests  *CounterVec
	coelsaLatency   *HistogramVec
	complianceAuth  *CounterVec
	pgStats         *GaugeVec
	redisUp         *Gauge
	redisPing       *Gauge

	scrapeInterval time.Duration
}

type MetricsConfig struct {
	Enabled        bool
	ScrapeInterval time.Duration
}

var (
	defaultOnce sync.Once
	defaultInst *Metrics
)

// New returns nil when metrics are disabled.
func New(log *logger.Logger, cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	interval := cfg.ScrapeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	m := &Metrics{
		apiRequests: NewCounterVec("unex_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"unex_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight:     NewGauge("unex_api_inflight_requests", "In-flight API requests."),
		apiReqTotal:     NewCounter("unex_api_requests_total_all", "Total API requests (all)."),
		apiReqError:     NewCounter("unex_api_requests_error_total", "Total API requests with 5xx status."),
		webhookOutcomes: NewCounterVec("unex_coelsa_webhooks_total", "COELSA webhook deliveries by action/outcome.", []string{"action", "outcome"}),
		statusChanges:   NewCounterVec("unex_operation_status_changes_total", "Operation status transitions.", []string{"from", "to"}),
		coelsaRequests:  NewCounterVec("unex_coelsa_proxy_requests_total", "Outbound COELSA proxy calls by status.", []string{"status"}),
		coelsaLatency: NewHistogramVec(
			"unex_coelsa_proxy_duration_seconds",
			"Outbound COELSA proxy latency in seconds.",
			[]string{"status"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		complianceAuth: NewCounterVec("unex_compliance_auth_total", "Compliance credential checks by endpoint/result.", []string{"endpoint", "result"}),
		pgStats:        NewGaugeVec("unex_postgres_pool", "Postgres connection pool stats.", []string{"stat"}),
		redisUp:        NewGauge("unex_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing:      NewGauge("unex_redis_ping_seconds", "Redis ping latency in seconds."),
		scrapeInterval: interval,
	}
	if log != nil {
		log.Info("Observability metrics enabled")
	}
	return m
}

// Init builds the process-wide registry once; later calls return the same instance.
func Init(log *logger.Logger, cfg MetricsConfig) *Metrics {
	defaultOnce.Do(func() {
		defaultInst = New(log, cfg)
	})
	return defaultInst
}

func Current() *Metrics {
	return defaultInst
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, pw := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.webhookOutcomes, m.statusChanges, m.coelsaRequests, m.coelsaLatency,
		m.complianceAuth, m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncWebhook(action, outcome string) {
	if m == nil {
		return
	}
	m.webhookOutcomes.Inc(action, outcome)
}

func (m *Metrics) IncStatusChange(from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.Inc(from, to)
}

func (m *Metrics) ObserveCoelsaProxy(status string, dur time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "error"
	}
	m.coelsaRequests.Inc(status)
	m.coelsaLatency.Observe(dur.Seconds(), status)
}

func (m *Metrics) IncComplianceAuth(endpoint string, ok bool) {
	if m == nil {
		return
	}
	result := "denied"
	if ok {
		result = "granted"
	}
	m.complianceAuth.Inc(endpoint, result)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings through the given client; the caller owns its lifecycle.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
