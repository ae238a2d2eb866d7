// Package observe provides application-wide observability primitives for
// Ghost: OpenTelemetry metrics, tracing, and trace-aware structured logging.
//
// Metrics are recorded through the OTel Metrics API and exported via a
// Prometheus bridge set up by [InitProvider], so they remain scrapable from
// the standard /metrics endpoint. Tests should construct their own [Metrics]
// with [NewMetrics] and a private meter provider to avoid cross-test
// pollution. A nil *Metrics is a valid no-op recorder.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all Ghost metrics.
const meterName = "github.com/ghost-assistant/ghost"

// Values for the "source" attribute on recognition metrics.
const (
	SourceModel    = "model"    // label came from the trained classifier
	SourceFallback = "fallback" // label came from the keyword matcher
	SourceNone     = "none"     // neither produced a label
)

// Metrics holds the OTel instruments for the recognition engine. The
// underlying OTel types handle their own synchronisation.
type Metrics struct {
	// RecognitionDuration tracks end-to-end recognize latency in seconds.
	RecognitionDuration metric.Float64Histogram

	// Recognitions counts recognition calls. Attributes: intent, source.
	Recognitions metric.Int64Counter

	// FallbackHits counts keyword-matcher hits. Attribute: intent.
	FallbackHits metric.Int64Counter

	// TrainingDuration tracks model training latency in seconds.
	TrainingDuration metric.Float64Histogram

	// TrainingRuns counts training attempts. Attribute: status
	// (success, skipped, error).
	TrainingRuns metric.Int64Counter

	// QueryLogFailures counts query-history writes that failed.
	QueryLogFailures metric.Int64Counter
}

// NewMetrics creates all instruments on a meter from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.RecognitionDuration, err = meter.Float64Histogram(
		"ghost.recognition.duration",
		metric.WithDescription("End-to-end intent recognition latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.Recognitions, err = meter.Int64Counter(
		"ghost.recognition.calls",
		metric.WithDescription("Recognition calls by intent and label source"),
	); err != nil {
		return nil, err
	}
	if m.FallbackHits, err = meter.Int64Counter(
		"ghost.recognition.fallback_hits",
		metric.WithDescription("Keyword fallback matches"),
	); err != nil {
		return nil, err
	}
	if m.TrainingDuration, err = meter.Float64Histogram(
		"ghost.training.duration",
		metric.WithDescription("Classifier training latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.TrainingRuns, err = meter.Int64Counter(
		"ghost.training.runs",
		metric.WithDescription("Classifier training attempts by status"),
	); err != nil {
		return nil, err
	}
	if m.QueryLogFailures, err = meter.Int64Counter(
		"ghost.store.query_log_failures",
		metric.WithDescription("Query history writes that failed"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRecognition records one recognition call.
func (m *Metrics) RecordRecognition(ctx context.Context, label, source string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("intent", label),
		attribute.String("source", source),
	)
	m.Recognitions.Add(ctx, 1, attrs)
	m.RecognitionDuration.Record(ctx, seconds, attrs)
}

// RecordFallbackHit records a keyword-matcher hit.
func (m *Metrics) RecordFallbackHit(ctx context.Context, label string) {
	if m == nil {
		return
	}
	m.FallbackHits.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", label)))
}

// RecordTraining records a training attempt and its outcome.
func (m *Metrics) RecordTraining(ctx context.Context, status string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.TrainingRuns.Add(ctx, 1, attrs)
	m.TrainingDuration.Record(ctx, seconds, attrs)
}

// RecordQueryLogFailure records a failed query-history write.
func (m *Metrics) RecordQueryLogFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.QueryLogFailures.Add(ctx, 1)
}
