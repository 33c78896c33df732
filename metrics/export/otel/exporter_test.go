package otel

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	sessionkit "github.com/kyralabs/sessionkit"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot sessionkit.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() sessionkit.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := sessionkit.MetricsSnapshot{
		Counters: make(map[sessionkit.MetricID]uint64, len(f.snapshot.Counters)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func (f *fakeSource) set(id sessionkit.MetricID, value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot.Counters[id] = value
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	values := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				values[m.Name] = dp.Value
			}
		}
	}
	return values
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("sessionkit-test")

	src := &fakeSource{
		snapshot: sessionkit.MetricsSnapshot{
			Counters: map[sessionkit.MetricID]uint64{
				sessionkit.MetricLoginSuccess:         3,
				sessionkit.MetricPhoneChallengeIssued: 1,
			},
		},
		dropped: 2,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	defer func() {
		if err := exp.Shutdown(); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	}()

	values := collect(t, reader)
	if values["sessionkit_login_success_total"] != 3 {
		t.Fatalf("unexpected login counter %d", values["sessionkit_login_success_total"])
	}
	if values["sessionkit_phone_challenge_issued_total"] != 1 {
		t.Fatalf("unexpected challenge counter %d", values["sessionkit_phone_challenge_issued_total"])
	}
	if values["sessionkit_audit_dropped_total"] != 2 {
		t.Fatalf("unexpected dropped counter %d", values["sessionkit_audit_dropped_total"])
	}
}

func TestExporterObservesLiveValues(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("sessionkit-test")

	src := &fakeSource{
		snapshot: sessionkit.MetricsSnapshot{
			Counters: map[sessionkit.MetricID]uint64{},
		},
	}
	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	defer func() { _ = exp.Shutdown() }()

	if got := collect(t, reader)["sessionkit_logout_total"]; got != 0 {
		t.Fatalf("expected 0 before increment, got %d", got)
	}

	src.set(sessionkit.MetricLogout, 5)
	if got := collect(t, reader)["sessionkit_logout_total"]; got != 5 {
		t.Fatalf("expected 5 after increment, got %d", got)
	}
}

func TestExporterNilArguments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("sessionkit-test")

	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

func TestExporterShutdownIdempotent(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("sessionkit-test")

	exp, err := NewOTelExporterFromSource(meter, &fakeSource{
		snapshot: sessionkit.MetricsSnapshot{Counters: map[sessionkit.MetricID]uint64{}},
	})
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	if err := exp.Shutdown(); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := exp.Shutdown(); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	var nilExp *OTelExporter
	if err := nilExp.Shutdown(); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}
}
