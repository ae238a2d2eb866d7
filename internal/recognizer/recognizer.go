// Package recognizer orchestrates intent recognition and continuous
// learning. For each utterance it normalises the text, consults the
// statistical classifier, falls back to keyword rules when the model is
// absent or under-confident, resolves the entity for the chosen label, and
// records the query for auditing. A separate feedback path turns corrected
// labels into new training examples and retrains the model once the data
// distribution allows it.
//
// The service never fails a recognition call: every error is contained and
// surfaces only as the unknown label or degraded confidence. Recognize may
// be called concurrently; training (triggered by feedback or Bootstrap) is
// serialised internally and swaps the model atomically, so readers always
// see a complete model.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ghost-assistant/ghost/internal/intent"
	"github.com/ghost-assistant/ghost/internal/intent/classify"
	"github.com/ghost-assistant/ghost/internal/intent/entity"
	"github.com/ghost-assistant/ghost/internal/intent/fallback"
	"github.com/ghost-assistant/ghost/internal/observe"
	"github.com/ghost-assistant/ghost/internal/store"
)

// DefaultConfidenceThreshold is the minimum classifier confidence accepted
// before the keyword fallback is consulted.
const DefaultConfidenceThreshold = 0.6

// DefaultUncertaintyThreshold is the confidence below which logged queries
// are surfaced for human review.
const DefaultUncertaintyThreshold = 0.7

// ErrInvalidInput is returned by ProvideFeedback when the text or the
// corrected label is empty.
var ErrInvalidInput = errors.New("recognizer: text and intent must be non-empty")

// Service is the recognition façade. Construct with [New]; the zero value is
// not usable.
type Service struct {
	store     *store.Store
	clf       *classify.Classifier
	matcher   *fallback.Matcher
	metrics   *observe.Metrics
	threshold float64
	uncertain float64

	// trainMu serialises train-and-persist so that at most one training
	// pipeline runs per process.
	trainMu sync.Mutex
}

// Option configures a Service during construction.
type Option func(*Service)

// WithMatcher replaces the default keyword fallback rules.
func WithMatcher(m *fallback.Matcher) Option {
	return func(s *Service) { s.matcher = m }
}

// WithConfidenceThreshold overrides [DefaultConfidenceThreshold]. Values
// outside (0,1] are ignored.
func WithConfidenceThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithUncertaintyThreshold overrides [DefaultUncertaintyThreshold]. Values
// outside (0,1] are ignored.
func WithUncertaintyThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.uncertain = t
		}
	}
}

// WithMetrics attaches metric instruments. Without this option the service
// records nothing.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service over the given store and classifier.
func New(st *store.Store, clf *classify.Classifier, opts ...Option) *Service {
	s := &Service{
		store:     st,
		clf:       clf,
		matcher:   fallback.Default(),
		threshold: DefaultConfidenceThreshold,
		uncertain: DefaultUncertaintyThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Trained reports whether a trained model is currently serving predictions.
func (s *Service) Trained() bool { return s.clf.Trained() }

// Bootstrap prepares the service for first use: it seeds the example store
// when empty and attempts initial training when no persisted model was
// loaded. Training failure due to data distribution is not an error here;
// the service simply keeps answering via the keyword fallback.
func (s *Service) Bootstrap(ctx context.Context) error {
	n, err := s.store.Seed(ctx)
	if err != nil {
		return fmt.Errorf("recognizer: seed store: %w", err)
	}
	if n > 0 {
		observe.Logger(ctx).Info("seeded initial training examples", "count", n)
	}
	if !s.clf.Trained() {
		s.train(ctx)
	}
	return nil
}

// Recognize maps raw text to a recognition result. It never returns an
// error; internal failures degrade to the unknown label or to the keyword
// fallback. Exactly one query-history row is written per call, before the
// result is returned.
func (s *Service) Recognize(ctx context.Context, raw string) intent.Result {
	ctx, span := observe.StartSpan(ctx, "recognizer.Recognize")
	defer span.End()
	start := time.Now()

	res, source := s.recognize(ctx, raw)
	s.logQuery(ctx, raw, res)

	s.metrics.RecordRecognition(ctx, string(res.Intent), source, time.Since(start).Seconds())
	return res
}

// recognize runs the classify-or-fallback pipeline and reports which source
// produced the label.
func (s *Service) recognize(ctx context.Context, raw string) (intent.Result, string) {
	if strings.TrimSpace(raw) == "" {
		return unknownResult(0), observe.SourceNone
	}
	norm := intent.Normalize(raw)
	if norm == "" {
		return unknownResult(0), observe.SourceNone
	}

	if !s.clf.Trained() {
		observe.Logger(ctx).Debug("no trained model, using keyword fallback")
		return s.fallbackResult(ctx, raw, 0)
	}

	label, confidence, err := s.predict(norm)
	if err != nil {
		observe.Logger(ctx).Error("prediction failed, degrading to fallback", "err", err)
		return s.fallbackResult(ctx, raw, 0)
	}

	if confidence < s.threshold {
		return s.fallbackResult(ctx, raw, confidence)
	}

	resolved, ent, typ := entity.Resolve(label, raw)
	return intent.Result{Intent: resolved, Entity: ent, Type: typ, Confidence: confidence}, observe.SourceModel
}

// predict calls the classifier with panic containment: a misbehaving model
// must never propagate past the recognition boundary.
func (s *Service) predict(norm string) (label intent.Label, confidence float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			label, confidence = intent.Unknown, 0
			err = fmt.Errorf("recognizer: prediction panic: %v", r)
		}
	}()
	return s.clf.Predict(norm)
}

// fallbackResult consults the keyword matcher on the raw (not normalised)
// text. On a hit the confidence is boosted to at least
// [fallback.MinConfidence]; on a miss the classifier's confidence is kept
// and the label is unknown.
func (s *Service) fallbackResult(ctx context.Context, raw string, confidence float64) (intent.Result, string) {
	label, ok := s.matcher.Match(raw)
	if !ok {
		return unknownResult(confidence), observe.SourceNone
	}
	s.metrics.RecordFallbackHit(ctx, string(label))

	resolved, ent, typ := entity.Resolve(label, raw)
	return intent.Result{
		Intent:     resolved,
		Entity:     ent,
		Type:       typ,
		Confidence: math.Max(confidence, fallback.MinConfidence),
	}, observe.SourceFallback
}

func unknownResult(confidence float64) intent.Result {
	return intent.Result{Intent: intent.Unknown, Type: intent.TypeUnknown, Confidence: confidence}
}

// logQuery writes the single query-history row for this call. Store failures
// are logged and counted, never surfaced.
func (s *Service) logQuery(ctx context.Context, raw string, res intent.Result) {
	if err := s.store.LogQuery(ctx, raw, res.Intent, res.Confidence); err != nil {
		observe.Logger(ctx).Error("failed to log query", "err", err)
		s.metrics.RecordQueryLogFailure(ctx)
	}
}

// ProvideFeedback records a corrected label for raw. The most recent
// query-history row with the same text is annotated, and the normalised
// (text, label) pair is added to the training store unless already present.
// Retraining is then attempted; its failure is deliberately silent to the
// caller and only logged.
func (s *Service) ProvideFeedback(ctx context.Context, raw string, correct intent.Label) error {
	ctx, span := observe.StartSpan(ctx, "recognizer.ProvideFeedback")
	defer span.End()

	if strings.TrimSpace(raw) == "" || strings.TrimSpace(string(correct)) == "" {
		return ErrInvalidInput
	}
	norm := intent.Normalize(raw)
	if norm == "" {
		return ErrInvalidInput
	}

	updated, err := s.store.RecordCorrection(ctx, raw, correct)
	if err != nil {
		return fmt.Errorf("recognizer: record correction: %w", err)
	}
	if !updated {
		observe.Logger(ctx).Debug("feedback text has no query history entry", "text", raw)
	}

	exists, err := s.store.HasExample(ctx, norm, correct)
	if err != nil {
		return fmt.Errorf("recognizer: check example: %w", err)
	}
	if exists {
		observe.Logger(ctx).Debug("feedback already in training data", "text", norm, "intent", correct)
		return nil
	}

	if err := s.store.AddExample(ctx, norm, correct, intent.SourceFeedback); err != nil {
		return fmt.Errorf("recognizer: add training example: %w", err)
	}
	observe.Logger(ctx).Info("added training example from feedback", "text", norm, "intent", correct)

	s.train(ctx)
	return nil
}

// UncertainQueries returns uncorrected queries whose prediction confidence
// fell below the configured review threshold, most recent first.
func (s *Service) UncertainQueries(ctx context.Context) ([]store.UncertainQuery, error) {
	return s.store.UncertainQueries(ctx, s.uncertain)
}

// train retrains the model from the full example store when the data
// distribution allows it: at least two distinct intents, each with at least
// the per-class minimum. Precondition misses and training failures are
// logged, never returned; the previous model stays active.
func (s *Service) train(ctx context.Context) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	log := observe.Logger(ctx)

	counts, err := s.store.IntentCounts(ctx)
	if err != nil {
		log.Warn("cannot read intent distribution, skipping training", "err", err)
		s.metrics.RecordTraining(ctx, "error", 0)
		return
	}
	if !trainable(counts, s.clf.MinSamples()) {
		log.Debug("intent distribution below training thresholds",
			"distinct_intents", len(counts),
			"min_samples_per_class", s.clf.MinSamples(),
		)
		s.metrics.RecordTraining(ctx, "skipped", 0)
		return
	}

	data, err := s.store.TrainingData(ctx)
	if err != nil {
		log.Warn("cannot load training data", "err", err)
		s.metrics.RecordTraining(ctx, "error", 0)
		return
	}
	examples := make([]classify.Example, len(data))
	for i, row := range data {
		examples[i] = classify.Example{Text: row.Text, Label: row.Label}
	}

	start := time.Now()
	if err := s.clf.Train(examples); err != nil {
		switch {
		case errors.Is(err, classify.ErrInsufficientData), errors.Is(err, classify.ErrSparseClass):
			log.Warn("training preconditions unmet", "err", err)
			s.metrics.RecordTraining(ctx, "skipped", time.Since(start).Seconds())
		default:
			log.Error("training failed, keeping previous model", "err", err)
			s.metrics.RecordTraining(ctx, "error", time.Since(start).Seconds())
		}
		return
	}

	s.metrics.RecordTraining(ctx, "success", time.Since(start).Seconds())
	log.Info("model trained",
		"examples", len(examples),
		"intents", len(counts),
		"took", time.Since(start),
	)
}

// trainable reports whether counts satisfies the training preconditions.
func trainable(counts map[intent.Label]int, minSamples int) bool {
	if len(counts) < 2 {
		return false
	}
	for _, n := range counts {
		if n < minSamples {
			return false
		}
	}
	return true
}
