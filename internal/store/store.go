// Package store persists the recognition engine's state in a local SQLite
// database: labeled training examples in training_data and per-call query
// history in queries.
//
// The store is append-only for training examples; corrections arrive as new
// rows, never as updates. Query rows are written once per recognition call
// and their correct_intent column is set at most once by feedback.
//
// Schema creation is idempotent. The design assumes a single writer per
// process: reads may run concurrently, but training-related writes are
// serialised by the owning recognition service.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ghost-assistant/ghost/internal/intent"
)

// ErrInvalidExample is returned when a training example has empty text or an
// empty label.
var ErrInvalidExample = errors.New("store: training example text and intent must be non-empty")

const schema = `
CREATE TABLE IF NOT EXISTS training_data (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	text      TEXT NOT NULL,
	intent    TEXT NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	source    TEXT NOT NULL DEFAULT 'user'
);
CREATE INDEX IF NOT EXISTS idx_training_data_intent ON training_data(intent);

CREATE TABLE IF NOT EXISTS queries (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	text             TEXT NOT NULL,
	predicted_intent TEXT,
	correct_intent   TEXT,
	confidence       REAL,
	timestamp        DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_queries_text ON queries(text);
`

// Store wraps the SQLite database holding training data and query history.
// Safe for concurrent reads; see the package comment for write constraints.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and ensures
// the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Example is a labeled training document as stored in training_data.
type Example struct {
	ID        int64
	Text      string
	Label     intent.Label
	Source    intent.Source
	CreatedAt time.Time
}

// AddExample appends a training example. Text must already be normalised
// with [intent.Normalize]; the label is stored lower-cased. Rows are
// immutable once written.
func (s *Store) AddExample(ctx context.Context, text string, label intent.Label, source intent.Source) error {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(string(label)) == "" {
		return ErrInvalidExample
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_data (text, intent, source) VALUES (?, ?, ?)`,
		text, strings.ToLower(string(label)), string(source),
	)
	if err != nil {
		return fmt.Errorf("store: add example: %w", err)
	}
	return nil
}

// HasExample reports whether the exact (text, label) pair is already present
// in training_data.
func (s *Store) HasExample(ctx context.Context, text string, label intent.Label) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM training_data WHERE text = ? AND intent = ?`,
		text, strings.ToLower(string(label)),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: has example: %w", err)
	}
	return count > 0, nil
}

// TrainingData returns every stored (text, label) pair in insertion order.
func (s *Store) TrainingData(ctx context.Context) ([]Example, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, intent, source, timestamp FROM training_data ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query training data: %w", err)
	}
	defer rows.Close()

	var examples []Example
	for rows.Next() {
		var ex Example
		if err := rows.Scan(&ex.ID, &ex.Text, &ex.Label, &ex.Source, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan training row: %w", err)
		}
		examples = append(examples, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate training rows: %w", err)
	}
	return examples, nil
}

// IntentCounts returns the number of stored examples per intent label.
func (s *Store) IntentCounts(ctx context.Context) (map[intent.Label]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT intent, COUNT(*) FROM training_data GROUP BY intent`)
	if err != nil {
		return nil, fmt.Errorf("store: count intents: %w", err)
	}
	defer rows.Close()

	counts := make(map[intent.Label]int)
	for rows.Next() {
		var label intent.Label
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("store: scan intent count: %w", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate intent counts: %w", err)
	}
	return counts, nil
}

// CountExamples returns the total number of training examples.
func (s *Store) CountExamples(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM training_data`).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: count examples: %w", err)
	}
	return count, nil
}

// LogQuery writes one query-history row for a recognition call.
func (s *Store) LogQuery(ctx context.Context, text string, predicted intent.Label, confidence float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (text, predicted_intent, confidence) VALUES (?, ?, ?)`,
		text, string(predicted), confidence,
	)
	if err != nil {
		return fmt.Errorf("store: log query: %w", err)
	}
	return nil
}

// RecordCorrection sets correct_intent on the most recent query-history row
// whose text matches exactly. It reports whether a row was updated; no
// matching row is not an error.
func (s *Store) RecordCorrection(ctx context.Context, text string, correct intent.Label) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queries SET correct_intent = ?
		 WHERE id = (
			SELECT id FROM queries WHERE text = ? ORDER BY timestamp DESC, id DESC LIMIT 1
		 )`,
		strings.ToLower(string(correct)), text,
	)
	if err != nil {
		return false, fmt.Errorf("store: record correction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: record correction rows: %w", err)
	}
	return rows > 0, nil
}

// UncertainQuery is a logged query whose prediction confidence fell below
// the review threshold and which has not been corrected yet.
type UncertainQuery struct {
	Text       string
	Predicted  intent.Label
	Confidence float64
	CreatedAt  time.Time
}

// UncertainQueries returns uncorrected queries with confidence below
// threshold, most recent first. Intended for surfacing candidates for human
// review and feedback.
func (s *Store) UncertainQueries(ctx context.Context, threshold float64) ([]UncertainQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text, predicted_intent, confidence, timestamp FROM queries
		 WHERE confidence < ? AND correct_intent IS NULL
		 ORDER BY timestamp DESC, id DESC`,
		threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query uncertain: %w", err)
	}
	defer rows.Close()

	var result []UncertainQuery
	for rows.Next() {
		var q UncertainQuery
		if err := rows.Scan(&q.Text, &q.Predicted, &q.Confidence, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan uncertain row: %w", err)
		}
		result = append(result, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate uncertain rows: %w", err)
	}
	return result, nil
}
