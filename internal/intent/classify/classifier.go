// Package classify implements the trainable statistical intent classifier.
//
// The model is a TF-IDF weighted naive Bayes classifier
// (github.com/jbrukh/bayesian) over normalised word tokens. It is
// multi-class, deterministic for fixed training data, and produces
// normalised class-membership probabilities so that confidence thresholds
// remain meaningful across retrainings.
//
// A trained model is an immutable snapshot swapped in atomically: concurrent
// [Classifier.Predict] calls always observe either the previous complete
// model or the new complete model, never a half-trained one. The snapshot is
// persisted to disk (write-to-temp + rename) before it becomes visible to
// readers, so a crash between training and persistence leaves the previous
// valid model intact on restart.
package classify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/jbrukh/bayesian"

	"github.com/ghost-assistant/ghost/internal/intent"
)

// DefaultMinSamplesPerClass is the training precondition applied when no
// explicit minimum is configured.
const DefaultMinSamplesPerClass = 3

var (
	// ErrInsufficientData is returned by Train when fewer than two distinct
	// intent labels are present.
	ErrInsufficientData = errors.New("classify: need at least two distinct intents")

	// ErrSparseClass is returned by Train when some intent label has fewer
	// examples than the per-class minimum.
	ErrSparseClass = errors.New("classify: intent below minimum sample count")

	// ErrNotTrained is returned by Predict when no trained model is
	// available.
	ErrNotTrained = errors.New("classify: no trained model available")
)

// Example is a single labeled training document. Text must already be
// normalised with [intent.Normalize].
type Example struct {
	Text  string
	Label intent.Label
}

// snapshot is an immutable trained model. Never mutated after construction.
type snapshot struct {
	clf *bayesian.Classifier
}

// Classifier owns the model lifecycle: loading a persisted model at startup,
// training replacements, and serving predictions from the current snapshot.
//
// Predict may be called concurrently with Train; training itself must be
// serialised by the caller (the recognition service holds a training mutex).
type Classifier struct {
	path       string
	minSamples int
	snap       atomic.Pointer[snapshot]
}

// New creates a Classifier that persists its model at modelPath.
// minSamplesPerClass values below one fall back to
// [DefaultMinSamplesPerClass].
func New(modelPath string, minSamplesPerClass int) *Classifier {
	if minSamplesPerClass < 1 {
		minSamplesPerClass = DefaultMinSamplesPerClass
	}
	return &Classifier{path: modelPath, minSamples: minSamplesPerClass}
}

// MinSamples returns the per-class training minimum.
func (c *Classifier) MinSamples() int { return c.minSamples }

// Trained reports whether a model snapshot is available for prediction.
func (c *Classifier) Trained() bool { return c.snap.Load() != nil }

// Load restores a previously persisted model from disk. A missing model file
// is not an error; the classifier simply stays untrained.
func (c *Classifier) Load() error {
	clf, err := bayesian.NewClassifierFromFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("classify: load model %q: %w", c.path, err)
	}
	c.snap.Store(&snapshot{clf: clf})
	return nil
}

// Train fits a new model on examples and atomically replaces the current
// snapshot.
//
// It fails with [ErrInsufficientData] when fewer than two distinct labels are
// present and with [ErrSparseClass] when any label has fewer than MinSamples
// examples. On any failure, including a persistence failure, the previous
// model stays active both in memory and on disk.
func (c *Classifier) Train(examples []Example) error {
	counts := make(map[intent.Label]int)
	for _, ex := range examples {
		if strings.TrimSpace(ex.Text) == "" || ex.Label == "" {
			continue
		}
		counts[ex.Label]++
	}

	if len(counts) < 2 {
		return fmt.Errorf("%w: have %d", ErrInsufficientData, len(counts))
	}
	for label, n := range counts {
		if n < c.minSamples {
			return fmt.Errorf("%w: intent %q has %d of %d required samples", ErrSparseClass, label, n, c.minSamples)
		}
	}

	// Sort class order so the fitted model is identical across runs with the
	// same training data.
	labels := make([]intent.Label, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	classes := make([]bayesian.Class, len(labels))
	for i, label := range labels {
		classes[i] = bayesian.Class(label)
	}

	clf := bayesian.NewClassifierTfIdf(classes...)
	for _, ex := range examples {
		words := strings.Fields(ex.Text)
		if len(words) == 0 || ex.Label == "" {
			continue
		}
		clf.Learn(words, bayesian.Class(ex.Label))
	}
	clf.ConvertTermsFreqToTfIdf()

	if err := c.persist(clf); err != nil {
		return fmt.Errorf("classify: persist model: %w", err)
	}
	c.snap.Store(&snapshot{clf: clf})
	return nil
}

// Predict scores text against the current model snapshot and returns the
// winning label with its class-membership probability.
func (c *Classifier) Predict(text string) (intent.Label, float64, error) {
	snap := c.snap.Load()
	if snap == nil {
		return intent.Unknown, 0, ErrNotTrained
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return intent.Unknown, 0, fmt.Errorf("classify: empty document")
	}

	scores, best, _, err := snap.clf.SafeProbScores(words)
	if err != nil {
		return intent.Unknown, 0, fmt.Errorf("classify: score document: %w", err)
	}
	return intent.Label(snap.clf.Classes[best]), scores[best], nil
}

// Labels returns the classes of the current snapshot in training order, or
// nil when untrained. Useful for diagnostics.
func (c *Classifier) Labels() []intent.Label {
	snap := c.snap.Load()
	if snap == nil {
		return nil
	}
	labels := make([]intent.Label, len(snap.clf.Classes))
	for i, class := range snap.clf.Classes {
		labels[i] = intent.Label(class)
	}
	return labels
}

// persist writes clf next to the target path and renames it into place, so a
// crash mid-write never corrupts the active model file.
func (c *Classifier) persist(clf *bayesian.Classifier) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".intent-model-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := clf.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("serialize model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}
