package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ghost-assistant/ghost/internal/intent"
	"github.com/ghost-assistant/ghost/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "intents.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "intents.db")

	first, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.AddExample(ctx, "weather london", intent.GetWeather, intent.SourceUser); err != nil {
		t.Fatalf("AddExample: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	count, err := second.CountExamples(ctx)
	if err != nil {
		t.Fatalf("CountExamples: %v", err)
	}
	if count != 1 {
		t.Errorf("count after reopen = %d, want 1", count)
	}
}

func TestAddExampleValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddExample(ctx, "", intent.Greeting, intent.SourceUser); !errors.Is(err, store.ErrInvalidExample) {
		t.Errorf("empty text: err = %v, want ErrInvalidExample", err)
	}
	if err := s.AddExample(ctx, "hello there", intent.Label(""), intent.SourceUser); !errors.Is(err, store.ErrInvalidExample) {
		t.Errorf("empty label: err = %v, want ErrInvalidExample", err)
	}
}

func TestAddExampleLowercasesLabel(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddExample(ctx, "hello there", intent.Label("GREETING"), intent.SourceUser); err != nil {
		t.Fatalf("AddExample: %v", err)
	}
	ok, err := s.HasExample(ctx, "hello there", intent.Greeting)
	if err != nil {
		t.Fatalf("HasExample: %v", err)
	}
	if !ok {
		t.Error("label must be stored lower-cased")
	}
}

func TestIntentCountsAndTrainingData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inserts := []struct {
		text  string
		label intent.Label
	}{
		{"hello there", intent.Greeting},
		{"good morning", intent.Greeting},
		{"weather london", intent.GetWeather},
	}
	for _, in := range inserts {
		if err := s.AddExample(ctx, in.text, in.label, intent.SourceInitial); err != nil {
			t.Fatalf("AddExample(%q): %v", in.text, err)
		}
	}

	counts, err := s.IntentCounts(ctx)
	if err != nil {
		t.Fatalf("IntentCounts: %v", err)
	}
	if counts[intent.Greeting] != 2 || counts[intent.GetWeather] != 1 {
		t.Errorf("counts = %v, want greeting:2 get_weather:1", counts)
	}

	data, err := s.TrainingData(ctx)
	if err != nil {
		t.Fatalf("TrainingData: %v", err)
	}
	if len(data) != 3 {
		t.Fatalf("len(TrainingData) = %d, want 3", len(data))
	}
	if data[0].Text != "hello there" || data[0].Label != intent.Greeting {
		t.Errorf("first row = (%q, %q), want insertion order preserved", data[0].Text, data[0].Label)
	}
	if data[0].Source != intent.SourceInitial {
		t.Errorf("source = %q, want %q", data[0].Source, intent.SourceInitial)
	}
}

func TestRecordCorrectionUpdatesMostRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for range 2 {
		if err := s.LogQuery(ctx, "xyzzy", intent.Unknown, 0.2); err != nil {
			t.Fatalf("LogQuery: %v", err)
		}
	}
	if err := s.LogQuery(ctx, "other text", intent.Greeting, 0.9); err != nil {
		t.Fatalf("LogQuery: %v", err)
	}

	updated, err := s.RecordCorrection(ctx, "xyzzy", intent.Exit)
	if err != nil {
		t.Fatalf("RecordCorrection: %v", err)
	}
	if !updated {
		t.Fatal("expected a row to be updated")
	}

	// Only the most recent "xyzzy" row carries the correction; the older one
	// still shows up as uncertain.
	uncertain, err := s.UncertainQueries(ctx, 0.7)
	if err != nil {
		t.Fatalf("UncertainQueries: %v", err)
	}
	if len(uncertain) != 1 {
		t.Fatalf("len(uncertain) = %d, want 1", len(uncertain))
	}
	if uncertain[0].Text != "xyzzy" || uncertain[0].Predicted != intent.Unknown {
		t.Errorf("uncertain[0] = %+v, want the uncorrected xyzzy row", uncertain[0])
	}
}

func TestRecordCorrectionNoMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	updated, err := s.RecordCorrection(ctx, "never seen", intent.Exit)
	if err != nil {
		t.Fatalf("RecordCorrection: %v", err)
	}
	if updated {
		t.Error("no query row should match")
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inserted, err := s.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if inserted == 0 {
		t.Fatal("Seed must insert the initial example set into an empty store")
	}

	counts, err := s.IntentCounts(ctx)
	if err != nil {
		t.Fatalf("IntentCounts: %v", err)
	}
	if len(counts) < 2 {
		t.Errorf("seed produced %d distinct intents, want at least 2", len(counts))
	}
	for label, n := range counts {
		if n < 3 {
			t.Errorf("seeded intent %q has %d examples, want at least 3 for initial training", label, n)
		}
	}

	// Second call is a no-op.
	again, err := s.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if again != 0 {
		t.Errorf("second Seed inserted %d rows, want 0", again)
	}
}

func TestUncertainQueriesThreshold(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.LogQuery(ctx, "low confidence", intent.Unknown, 0.3); err != nil {
		t.Fatal(err)
	}
	if err := s.LogQuery(ctx, "high confidence", intent.Greeting, 0.95); err != nil {
		t.Fatal(err)
	}

	uncertain, err := s.UncertainQueries(ctx, 0.7)
	if err != nil {
		t.Fatalf("UncertainQueries: %v", err)
	}
	if len(uncertain) != 1 || uncertain[0].Text != "low confidence" {
		t.Errorf("uncertain = %+v, want only the low-confidence row", uncertain)
	}
}
