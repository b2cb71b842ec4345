package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/storefront"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot storefront.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() storefront.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestCollectOnlyAuditDroppedWhenMetricsDisabled(t *testing.T) {
	exp, err := NewPrometheusExporterFromSource(fakeSource{
		snapshot: storefront.MetricsSnapshot{
			Counters:   map[storefront.MetricID]uint64{},
			Histograms: map[storefront.MetricID][]uint64{},
		},
	})
	if err != nil {
		t.Fatalf("NewPrometheusExporterFromSource failed: %v", err)
	}

	if got := testutil.CollectAndCount(exp); got != 1 {
		t.Fatalf("expected only the audit drop counter, got %d series", got)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	exp, err := NewPrometheusExporterFromSource(fakeSource{
		snapshot: storefront.MetricsSnapshot{
			Counters: map[storefront.MetricID]uint64{
				storefront.MetricLoginSuccess: 7,
				storefront.MetricOrderCreated: 2,
			},
			Histograms: map[storefront.MetricID][]uint64{
				storefront.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})
	if err != nil {
		t.Fatalf("NewPrometheusExporterFromSource failed: %v", err)
	}

	expected := `
# HELP storefront_login_success_total Successful logins.
# TYPE storefront_login_success_total counter
storefront_login_success_total 7
# HELP storefront_order_created_total Orders placed.
# TYPE storefront_order_created_total counter
storefront_order_created_total 2
# HELP storefront_audit_dropped_total Audit events dropped because the dispatcher buffer was full.
# TYPE storefront_audit_dropped_total counter
storefront_audit_dropped_total 2
`
	if err := testutil.CollectAndCompare(exp, strings.NewReader(expected),
		"storefront_login_success_total",
		"storefront_order_created_total",
		"storefront_audit_dropped_total",
	); err != nil {
		t.Fatalf("unexpected collection: %v", err)
	}
}

func TestHandlerServesCumulativeBuckets(t *testing.T) {
	exp, err := NewPrometheusExporterFromSource(fakeSource{
		snapshot: storefront.MetricsSnapshot{
			Counters: map[storefront.MetricID]uint64{},
			Histograms: map[storefront.MetricID][]uint64{
				storefront.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewPrometheusExporterFromSource failed: %v", err)
	}

	rr := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`storefront_validate_latency_seconds_bucket{le="0.005"} 1`,
		`storefront_validate_latency_seconds_bucket{le="0.5"} 28`,
		`storefront_validate_latency_seconds_bucket{le="+Inf"} 36`,
		`storefront_validate_latency_seconds_count 36`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, body)
		}
	}
}

func TestNilSourceRejected(t *testing.T) {
	if _, err := NewPrometheusExporterFromSource(nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}
