package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store persists snapshot summaries keyed by (project, label). Saving the
// same label again replaces the earlier row.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func normalizeProjectKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	return key
}

func (s *Store) SaveSummary(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ProjectKey = normalizeProjectKey(rec.ProjectKey)
	if strings.TrimSpace(rec.Label) == "" {
		return fmt.Errorf("snapshot label must not be empty")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = SchemaVersion
	}
	if rec.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported summary schema version %d", rec.SchemaVersion)
	}

	query := `
INSERT INTO snapshot_summaries (
  project_key, label, run_id, schema_version, ts_utc, file_count, function_count,
  class_count, import_count, line_count, failure_count, avg_functions_per_file, avg_classes_per_file
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, label) DO UPDATE SET
  run_id=excluded.run_id,
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  file_count=excluded.file_count,
  function_count=excluded.function_count,
  class_count=excluded.class_count,
  import_count=excluded.import_count,
  line_count=excluded.line_count,
  failure_count=excluded.failure_count,
  avg_functions_per_file=excluded.avg_functions_per_file,
  avg_classes_per_file=excluded.avg_classes_per_file
`
	t := rec.Totals
	return s.withRetry("save summary", func() error {
		_, err := s.db.ExecContext(ctx,
			query,
			rec.ProjectKey,
			rec.Label,
			rec.RunID,
			rec.SchemaVersion,
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			t.TotalFiles,
			t.TotalFunctions,
			t.TotalClasses,
			t.TotalImports,
			t.TotalLines,
			rec.FailureCount,
			t.AvgFunctionsPerFile,
			t.AvgClassesPerFile,
		)
		return err
	})
}

// LoadSummaries returns every summary of the project in save order. Callers
// order them by version themselves.
func (s *Store) LoadSummaries(ctx context.Context, projectKey string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  project_key, label, run_id, schema_version, ts_utc, file_count, function_count,
  class_count, import_count, line_count, failure_count, avg_functions_per_file, avg_classes_per_file
FROM snapshot_summaries
WHERE project_key = ?
ORDER BY ts_utc ASC, label ASC
`
	var rows *sql.Rows
	err := s.withRetry("load summaries", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, normalizeProjectKey(projectKey))
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			tsRaw string
			rec   Record
		)
		if err := rows.Scan(
			&rec.ProjectKey,
			&rec.Label,
			&rec.RunID,
			&rec.SchemaVersion,
			&tsRaw,
			&rec.Totals.TotalFiles,
			&rec.Totals.TotalFunctions,
			&rec.Totals.TotalClasses,
			&rec.Totals.TotalImports,
			&rec.Totals.TotalLines,
			&rec.FailureCount,
			&rec.Totals.AvgFunctionsPerFile,
			&rec.Totals.AvgClassesPerFile,
		); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse summary timestamp %q: %w", tsRaw, err)
		}
		rec.Timestamp = ts.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	return records, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
