package observe_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ghost-assistant/ghost/internal/observe"
)

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *observe.Metrics
	ctx := context.Background()

	// Must not panic.
	m.RecordRecognition(ctx, "greeting", observe.SourceModel, 0.01)
	m.RecordFallbackHit(ctx, "greeting")
	m.RecordTraining(ctx, "success", 0.5)
	m.RecordQueryLogFailure(ctx)
}

func TestRecordRecognitionEmitsInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordRecognition(ctx, "get_time", observe.SourceModel, 0.002)
	m.RecordTraining(ctx, "skipped", 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			names[metric.Name] = true
		}
	}
	for _, want := range []string{
		"ghost.recognition.calls",
		"ghost.recognition.duration",
		"ghost.training.runs",
	} {
		if !names[want] {
			t.Errorf("metric %q not collected; got %v", want, names)
		}
	}
}
