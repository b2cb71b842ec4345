package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/storefront"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot storefront.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() storefront.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := storefront.MetricsSnapshot{
		Counters:   make(map[storefront.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[storefront.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, b := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), b...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestExporterReportsCountersAndBuckets(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("storefront-test")

	src := &fakeSource{
		snapshot: storefront.MetricsSnapshot{
			Counters: map[storefront.MetricID]uint64{
				storefront.MetricLoginSuccess: 3,
				storefront.MetricOrderCreated: 5,
			},
			Histograms: map[storefront.MetricID][]uint64{
				storefront.MetricValidateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collect(t, reader)

	login, ok := got["storefront_login_success_total"]
	if !ok {
		t.Fatal("login counter missing")
	}
	sum, ok := login.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 3 {
		t.Fatalf("unexpected login counter data: %#v", login.Data)
	}

	buckets, ok := got["storefront_validate_latency_seconds_bucket"]
	if !ok {
		t.Fatal("bucket gauge missing")
	}
	gauge, ok := buckets.Data.(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) != 8 {
		t.Fatalf("expected 8 bucket points, got %#v", buckets.Data)
	}
	var inf int64 = -1
	for _, dp := range gauge.DataPoints {
		if v, ok := dp.Attributes.Value("le"); ok && v.AsString() == "+Inf" {
			inf = dp.Value
		}
	}
	if inf != 8 {
		t.Fatalf("expected +Inf bucket 8, got %d", inf)
	}

	if _, ok := got["storefront_audit_dropped_total"]; !ok {
		t.Fatal("audit dropped counter missing")
	}
}

func TestExporterSkipsDisabledMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("storefront-test")

	src := &fakeSource{snapshot: storefront.MetricsSnapshot{
		Counters:   map[storefront.MetricID]uint64{},
		Histograms: map[storefront.MetricID][]uint64{},
	}}
	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	got := collect(t, reader)
	if _, ok := got["storefront_login_success_total"]; ok {
		t.Fatal("disabled metrics should not be reported")
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("storefront-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollect(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("storefront-test")

	src := &fakeSource{
		snapshot: storefront.MetricsSnapshot{
			Counters:   map[storefront.MetricID]uint64{storefront.MetricLoginSuccess: 1},
			Histograms: map[storefront.MetricID][]uint64{},
		},
	}
	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[storefront.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
