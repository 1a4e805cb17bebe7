package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	store := &Store{db: db, path: path}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Run is one recorded pipeline run.
type Run struct {
	ID         string
	SourceRoot string
	OutputRoot string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Converted  int
	Skipped    int
	Failed     int
}

// FileRecord is one per-file outcome within a run.
type FileRecord struct {
	RunID      string
	SourcePath string
	Outcome    string
	Detail     string
	Tracks     int
	RecordedAt time.Time
}

// BeginRun records the start of a pipeline run and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, sourceRoot, outputRoot string, dryRun bool) (string, error) {
	id := uuid.NewString()
	err := s.execWithRetry(ctx,
		"INSERT INTO runs (id, source_root, output_root, dry_run, started_at) VALUES (?, ?, ?, ?, ?)",
		id, sourceRoot, outputRoot, boolToInt(dryRun), timestamp(time.Now()))
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// RecordFile appends one per-file outcome to a run.
func (s *Store) RecordFile(ctx context.Context, runID, sourcePath, outcome, detail string, tracks int) error {
	err := s.execWithRetry(ctx,
		"INSERT INTO run_files (run_id, source_path, outcome, detail, tracks, recorded_at) VALUES (?, ?, ?, ?, ?, ?)",
		runID, sourcePath, outcome, detail, tracks, timestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("record file outcome: %w", err)
	}
	return nil
}

// FinishRun closes out a run with its final tallies.
func (s *Store) FinishRun(ctx context.Context, runID string, converted, skipped, failed int) error {
	err := s.execWithRetry(ctx,
		"UPDATE runs SET finished_at = ?, converted = ?, skipped = ?, failed = ? WHERE id = ?",
		timestamp(time.Now()), converted, skipped, failed, runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs first, capped at limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_root, output_root, dry_run, started_at, COALESCE(finished_at, ''), converted, skipped, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var dryRun int
		var started, finished string
		if err := rows.Scan(&run.ID, &run.SourceRoot, &run.OutputRoot, &dryRun, &started, &finished,
			&run.Converted, &run.Skipped, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.DryRun = dryRun != 0
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FilesForRun returns a run's per-file outcomes in recorded order.
func (s *Store) FilesForRun(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source_path, outcome, detail, tracks, recorded_at
		 FROM run_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		var recorded string
		if err := rows.Scan(&rec.RunID, &rec.SourcePath, &rec.Outcome, &rec.Detail, &rec.Tracks, &recorded); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		rec.RecordedAt = parseTimestamp(recorded)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
