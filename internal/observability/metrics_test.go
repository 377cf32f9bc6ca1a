package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncWebhook("transfer_completed", "processed")
	m.ObserveCoelsaProxy("200", time.Millisecond)
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("nil metrics should write nothing: err=%v len=%d", err, buf.Len())
	}
}

func TestNewDisabledReturnsNil(t *testing.T) {
	if m := New(nil, MetricsConfig{Enabled: false}); m != nil {
		t.Fatalf("disabled metrics: want nil")
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New(nil, MetricsConfig{Enabled: true})
	m.ObserveAPI("POST", "/coelsa/webhook/:action", "500", 30*time.Millisecond)
	m.IncWebhook("transfer_completed", "processed")
	m.IncWebhook("transfer_completed", "processed")
	m.IncComplianceAuth("cvu-summary", false)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`unex_coelsa_webhooks_total{action="transfer_completed",outcome="processed"} 2.000000`,
		`unex_api_requests_error_total 1.000000`,
		`unex_compliance_auth_total{endpoint="cvu-summary",result="denied"} 1.000000`,
		`unex_api_request_duration_seconds_bucket{method="POST",route="/coelsa/webhook/:action",status="500",le="0.05"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing line %q in:\n%s", want, out)
		}
	}
}
