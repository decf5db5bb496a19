package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"triage/internal/engine"
	"triage/internal/errors"
)

// Store persists error and resolution events in a SQLite database and
// answers analytics queries over them. Events are append-only.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
	now    func() time.Time
}

// Open opens or creates the metrics database at dbPath. Parent directories
// are created as needed and the schema is applied idempotently.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewStorageFailure("create metrics directory", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewStorageFailure("open metrics database", err)
	}

	// Set pragmas for performance and reliability
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA foreign_keys=ON",    // Enable foreign key constraints
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds on lock
		"PRAGMA temp_store=MEMORY",  // Use memory for temp tables
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.NewStorageFailure("set pragma", err)
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
		now:    time.Now,
	}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, errors.NewStorageFailure("initialize metrics schema", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Counts reports how many error and resolution events the store holds.
func (s *Store) Counts(ctx context.Context) (int64, int64, error) {
	var errCount, resCount int64
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM error_events`).Scan(&errCount); err != nil {
		return 0, 0, errors.NewStorageFailure("count error events", err)
	}
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM resolution_events`).Scan(&resCount); err != nil {
		return 0, 0, errors.NewStorageFailure("count resolution events", err)
	}
	return errCount, resCount, nil
}

func (s *Store) initSchema() error {
	return s.withTx(func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS error_events (
				id TEXT PRIMARY KEY,
				at INTEGER NOT NULL,
				category TEXT NOT NULL,
				severity TEXT NOT NULL,
				file TEXT,
				language TEXT,
				source TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_error_events_at ON error_events(at)`,
			`CREATE INDEX IF NOT EXISTS idx_error_events_category ON error_events(category)`,
			`CREATE TABLE IF NOT EXISTS resolution_events (
				id TEXT PRIMARY KEY,
				error_id TEXT NOT NULL,
				at INTEGER NOT NULL,
				duration_ms INTEGER NOT NULL,
				method TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_resolution_events_at ON resolution_events(at)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// withTx executes fn inside a transaction, rolling back on error or panic.
func (s *Store) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", err, "rollbackError", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TrackError records a single error event. Missing IDs and timestamps are
// filled in so ad-hoc callers can track minimal records.
func (s *Store) TrackError(ctx context.Context, rec engine.ErrorRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	at := rec.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO error_events (id, at, category, severity, file, language, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, at.UTC().UnixMilli(), rec.Category, string(rec.Severity), rec.File, rec.Language, rec.Source)
	if err != nil {
		s.logger.Warn("failed to track error event", "id", id, "error", err)
		return errors.NewStorageFailure("track error", err)
	}
	return nil
}

// TrackScan records every error from a scan result in one transaction.
func (s *Store) TrackScan(ctx context.Context, result *engine.ScanResult) error {
	if result == nil || len(result.Records) == 0 {
		return nil
	}
	err := s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO error_events (id, at, category, severity, file, language, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, rec := range result.Records {
			id := rec.ID
			if id == "" {
				id = uuid.NewString()
			}
			at := rec.Timestamp
			if at.IsZero() {
				at = result.StartedAt
			}
			if _, err := stmt.ExecContext(ctx,
				id, at.UTC().UnixMilli(), rec.Category, string(rec.Severity), rec.File, rec.Language, rec.Source); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to track scan", "scanId", result.ScanID, "error", err)
		return errors.NewStorageFailure("track scan", err)
	}
	return nil
}

// TrackResolution records that the error with the given ID was resolved.
// The ID does not have to match a tracked error event; resolutions against
// unknown IDs still count toward overall statistics. A zero duration is
// derived from the tracked error's timestamp when the event is known.
func (s *Store) TrackResolution(ctx context.Context, errorID string, d time.Duration, method string) error {
	if errorID == "" {
		return errors.NewValidationFailed("error id is required")
	}
	if d < 0 {
		return errors.NewValidationFailed("duration must not be negative")
	}
	at := s.now().UTC()
	if d == 0 {
		var errorAt int64
		err := s.conn.QueryRowContext(ctx,
			`SELECT at FROM error_events WHERE id = ?`, errorID).Scan(&errorAt)
		switch {
		case err == sql.ErrNoRows:
			// Orphan resolution, keep the zero duration.
		case err != nil:
			return errors.NewStorageFailure("look up error event", err)
		default:
			if derived := at.Sub(time.UnixMilli(errorAt)); derived > 0 {
				d = derived
			}
		}
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO resolution_events (id, error_id, at, duration_ms, method)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), errorID, at.UnixMilli(), d.Milliseconds(), method)
	if err != nil {
		return errors.NewStorageFailure("track resolution", err)
	}
	return nil
}

// Purge deletes events recorded before the cutoff and reports how many rows
// were removed.
func (s *Store) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := olderThan.UTC().UnixMilli()
	var removed int64
	err := s.withTx(func(tx *sql.Tx) error {
		for _, table := range []string{"error_events", "resolution_events"} {
			res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE at < ?`, cutoff)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, errors.NewStorageFailure("purge events", err)
	}
	if removed > 0 {
		s.logger.Info("purged metrics events", "removed", removed, "olderThan", olderThan.UTC())
	}
	return removed, nil
}

// eventTimes returns the timestamps of the error events in the window,
// optionally filtered by category, in ascending order.
func (s *Store) eventTimes(ctx context.Context, w Window, category string) ([]time.Time, error) {
	query := `SELECT at FROM error_events WHERE at >= ? AND at < ?`
	args := []any{w.Since.UTC().UnixMilli(), w.Until.UTC().UnixMilli()}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY at`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageFailure("query error events", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, errors.NewStorageFailure("scan error event", err)
		}
		times = append(times, time.UnixMilli(ms).UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure("read error events", err)
	}
	return times, nil
}

// categoryCounts returns per-category event counts for the window, ordered
// by count descending with ties broken by category name.
func (s *Store) categoryCounts(ctx context.Context, w Window) ([]CategoryCount, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT category, COUNT(*) AS n FROM error_events
		WHERE at >= ? AND at < ?
		GROUP BY category
		ORDER BY n DESC, category ASC`,
		w.Since.UTC().UnixMilli(), w.Until.UTC().UnixMilli())
	if err != nil {
		return nil, errors.NewStorageFailure("query category counts", err)
	}
	defer rows.Close()

	counts := make([]CategoryCount, 0)
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, errors.NewStorageFailure("scan category count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure("read category counts", err)
	}
	return counts, nil
}

// resolutionDurations returns resolution durations recorded in the window.
// A non-empty category joins against tracked error events; orphan
// resolutions carry no category and are excluded by the filter.
func (s *Store) resolutionDurations(ctx context.Context, w Window, category string) ([]time.Duration, error) {
	query := `SELECT r.duration_ms FROM resolution_events r`
	args := []any{}
	if category != "" {
		query += ` JOIN error_events e ON e.id = r.error_id`
	}
	query += ` WHERE r.at >= ? AND r.at < ?`
	args = append(args, w.Since.UTC().UnixMilli(), w.Until.UTC().UnixMilli())
	if category != "" {
		query += ` AND e.category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY r.at`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageFailure("query resolution events", err)
	}
	defer rows.Close()

	var durations []time.Duration
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, errors.NewStorageFailure("scan resolution event", err)
		}
		durations = append(durations, time.Duration(ms)*time.Millisecond)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure("read resolution events", err)
	}
	return durations, nil
}
