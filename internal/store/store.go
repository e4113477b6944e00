// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/mashr/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// IOError reports that the record store could not be written or read.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Store wraps SQLite access for session results.
type Store struct {
	db *sql.DB
}

// recordColumns are read back as text so shape validation happens in one place.
var recordColumns = []string{
	model.FieldTimestamp,
	model.FieldDuration,
	model.FieldSelectedKey,
	model.FieldDevice,
	model.FieldOrientation,
	model.FieldTotalPresses,
	model.FieldCorrectPresses,
	model.FieldWrongPresses,
	model.FieldAccuracy,
	model.FieldKeysPerSecond,
}

const insertResultSQL = `INSERT INTO results (timestamp, duration, selected_key, device, orientation, total_presses, correct_presses, wrong_presses, accuracy, keys_per_second)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func resultArgs(r model.SessionResult) []any {
	return []any{
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.DurationSeconds,
		r.TargetKey,
		r.Device,
		r.Orientation,
		r.TotalPresses,
		r.CorrectPresses,
		r.WrongPresses,
		r.Accuracy,
		r.KeysPerSecond,
	}
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, &IOError{Op: "migrate", Err: err}
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &IOError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			timestamp TEXT NOT NULL,
			duration INTEGER NOT NULL,
			selected_key TEXT NOT NULL,
			device TEXT NOT NULL DEFAULT '',
			orientation TEXT NOT NULL DEFAULT '',
			total_presses INTEGER NOT NULL,
			correct_presses INTEGER NOT NULL,
			wrong_presses INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			keys_per_second REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_timestamp ON results(timestamp);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores one finished session. The insert is a single statement, so a
// concurrent reader sees either the whole row or none of it.
func (s *Store) Append(ctx context.Context, r model.SessionResult) error {
	_, err := s.db.ExecContext(ctx, insertResultSQL, resultArgs(r)...)
	if err != nil {
		return &IOError{Op: "append", Err: err}
	}
	return nil
}

// AppendAll stores results in one transaction.
func (s *Store) AppendAll(ctx context.Context, results []model.SessionResult) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &IOError{Op: "append", Err: err}
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	stmt, err := tx.PrepareContext(ctx, insertResultSQL)
	if err != nil {
		return &IOError{Op: "append", Err: err}
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, r := range results {
		if _, err = stmt.ExecContext(ctx, resultArgs(r)...); err != nil {
			return &IOError{Op: "append", Err: err}
		}
	}
	if err = tx.Commit(); err != nil {
		return &IOError{Op: "append", Err: err}
	}
	return nil
}

// ReadAll returns every stored row in insertion order. An empty store yields
// an empty slice.
func (s *Store) ReadAll(ctx context.Context) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM results ORDER BY id ASC`, strings.Join(recordColumns, ", "))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &IOError{Op: "read", Err: err}
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	records := []model.Record{}
	values := make([]sql.NullString, len(recordColumns))
	dest := make([]any, len(recordColumns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, &IOError{Op: "read", Err: err}
		}
		rec := make(model.Record, len(recordColumns))
		for i, col := range recordColumns {
			if values[i].Valid {
				rec[col] = values[i].String
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Op: "read", Err: err}
	}
	return records, nil
}

// Count returns the number of stored results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, &IOError{Op: "count", Err: err}
	}
	return n, nil
}
