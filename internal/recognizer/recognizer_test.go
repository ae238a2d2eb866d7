package recognizer_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ghost-assistant/ghost/internal/intent"
	"github.com/ghost-assistant/ghost/internal/intent/classify"
	"github.com/ghost-assistant/ghost/internal/recognizer"
	"github.com/ghost-assistant/ghost/internal/store"
)

// newService builds a Service on an empty temp store. The classifier is
// untrained until Bootstrap or feedback trains it.
func newService(t *testing.T) (*recognizer.Service, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(context.Background(), filepath.Join(dir, "intents.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	clf := classify.New(filepath.Join(dir, "model.gob"), 3)
	return recognizer.New(st, clf), st
}

func TestRecognizeEmptyInput(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	for _, raw := range []string{"", "   ", "?!...", "a is at"} {
		res := svc.Recognize(ctx, raw)
		if res.Intent != intent.Unknown || res.Entity != "" || res.Type != intent.TypeUnknown || res.Confidence != 0 {
			t.Errorf("Recognize(%q) = %+v, want (unknown, , unknown, 0)", raw, res)
		}
	}

	// Every call logged exactly one query row at confidence 0.
	uncertain, err := st.UncertainQueries(ctx, 0.5)
	if err != nil {
		t.Fatalf("UncertainQueries: %v", err)
	}
	if len(uncertain) != 4 {
		t.Errorf("logged %d query rows, want 4", len(uncertain))
	}
}

func TestRecognizeFallbackWithoutModel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if svc.Trained() {
		t.Fatal("service must start untrained")
	}

	res := svc.Recognize(ctx, "hello")
	if res.Intent != intent.Greeting {
		t.Errorf("intent = %q, want greeting", res.Intent)
	}
	if res.Type != intent.TypeGreeting {
		t.Errorf("type = %q, want greeting", res.Type)
	}
	if res.Entity != "" {
		t.Errorf("entity = %q, want empty", res.Entity)
	}
	if res.Confidence < 0.8 {
		t.Errorf("confidence = %f, want at least 0.8 for a keyword hit", res.Confidence)
	}
}

func TestRecognizeWeatherEntity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	res := svc.Recognize(ctx, "weather in London please")
	if res.Intent != intent.GetWeather {
		t.Fatalf("intent = %q, want get_weather", res.Intent)
	}
	if res.Entity != "london" {
		t.Errorf("entity = %q, want london", res.Entity)
	}
	if res.Type != intent.TypeWeather {
		t.Errorf("type = %q, want weather_query", res.Type)
	}
}

func TestRecognizeSystemInfoEntity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	res := svc.Recognize(ctx, "what is your name")
	if res.Intent != intent.SystemInfo {
		t.Fatalf("intent = %q, want system_info", res.Intent)
	}
	if res.Entity != "your name" {
		t.Errorf("entity = %q, want %q", res.Entity, "your name")
	}
}

func TestRecognizeUnmatchedInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	res := svc.Recognize(ctx, "colorless green ideas sleep furiously")
	// "sleep" does not contain any exit trigger ("go to sleep" is the full
	// phrase); nothing else matches either.
	if res.Intent != intent.Unknown {
		t.Errorf("intent = %q, want unknown", res.Intent)
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", res.Confidence)
	}
}

func TestBootstrapSeedsAndTrains(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !svc.Trained() {
		t.Fatal("Bootstrap over the seed set must produce a trained model")
	}

	count, err := st.CountExamples(ctx)
	if err != nil {
		t.Fatalf("CountExamples: %v", err)
	}
	if count == 0 {
		t.Fatal("Bootstrap must seed the empty store")
	}

	// A second Bootstrap neither reseeds nor breaks the trained model.
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	again, err := st.CountExamples(ctx)
	if err != nil {
		t.Fatalf("CountExamples: %v", err)
	}
	if again != count {
		t.Errorf("example count changed on second Bootstrap: %d -> %d", count, again)
	}

	res := svc.Recognize(ctx, "hello there my friend")
	if res.Intent == "" || res.Type == "" {
		t.Errorf("trained Recognize returned malformed result %+v", res)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("confidence %f outside [0,1]", res.Confidence)
	}
}

func TestProvideFeedbackValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if err := svc.ProvideFeedback(ctx, "", intent.Exit); !errors.Is(err, recognizer.ErrInvalidInput) {
		t.Errorf("empty text: err = %v, want ErrInvalidInput", err)
	}
	if err := svc.ProvideFeedback(ctx, "some text", intent.Label("")); !errors.Is(err, recognizer.ErrInvalidInput) {
		t.Errorf("empty label: err = %v, want ErrInvalidInput", err)
	}
	if err := svc.ProvideFeedback(ctx, "?!", intent.Exit); !errors.Is(err, recognizer.ErrInvalidInput) {
		t.Errorf("unnormalisable text: err = %v, want ErrInvalidInput", err)
	}
}

func TestProvideFeedbackIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	for range 2 {
		if err := svc.ProvideFeedback(ctx, "please terminate yourself", intent.Exit); err != nil {
			t.Fatalf("ProvideFeedback: %v", err)
		}
	}

	counts, err := st.IntentCounts(ctx)
	if err != nil {
		t.Fatalf("IntentCounts: %v", err)
	}
	if counts[intent.Exit] != 1 {
		t.Errorf("exit examples = %d, want exactly 1 after duplicate feedback", counts[intent.Exit])
	}
}

func TestProvideFeedbackWithoutPriorQuery(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	// No query row for "xyzzy" exists; feedback must still insert the
	// example and attempt retraining without error.
	if err := svc.ProvideFeedback(ctx, "xyzzy", intent.Exit); err != nil {
		t.Fatalf("ProvideFeedback: %v", err)
	}

	ok, err := st.HasExample(ctx, "xyzzy", intent.Exit)
	if err != nil {
		t.Fatalf("HasExample: %v", err)
	}
	if !ok {
		t.Error("feedback example missing from training data")
	}
}

func TestProvideFeedbackAnnotatesQueryHistory(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	svc.Recognize(ctx, "flibbertigibbet nonsense")

	if err := svc.ProvideFeedback(ctx, "flibbertigibbet nonsense", intent.GetInfo); err != nil {
		t.Fatalf("ProvideFeedback: %v", err)
	}

	// The corrected query no longer shows up as uncertain.
	uncertain, err := st.UncertainQueries(ctx, 0.7)
	if err != nil {
		t.Fatalf("UncertainQueries: %v", err)
	}
	for _, q := range uncertain {
		if q.Text == "flibbertigibbet nonsense" {
			t.Error("corrected query still listed as uncertain")
		}
	}
}

func TestFeedbackRetrainsWhenDistributionAllows(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	// Build up two intents with three examples each through feedback alone.
	feedback := []struct {
		text  string
		label intent.Label
	}{
		{"please shut yourself down", intent.Exit},
		{"terminate the assistant", intent.Exit},
		{"close everything and sleep", intent.Exit},
		{"what degrees outside", intent.GetWeather},
		{"how cold tonight", intent.GetWeather},
	}
	for _, fb := range feedback {
		if err := svc.ProvideFeedback(ctx, fb.text, fb.label); err != nil {
			t.Fatalf("ProvideFeedback(%q): %v", fb.text, err)
		}
	}
	if svc.Trained() {
		t.Fatal("model must not train while a class is below the minimum")
	}

	if err := svc.ProvideFeedback(ctx, "will it snow this evening", intent.GetWeather); err != nil {
		t.Fatalf("ProvideFeedback: %v", err)
	}
	if !svc.Trained() {
		t.Error("model must train once every intent reaches the per-class minimum")
	}
}
