package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"triage/internal/engine"
	"triage/internal/errors"
	"triage/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "metrics.db"), logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func trackAt(t *testing.T, s *Store, id, category string, at time.Time) {
	t.Helper()
	err := s.TrackError(context.Background(), engine.ErrorRecord{
		ID:        id,
		Timestamp: at,
		Category:  category,
		Severity:  engine.SeverityWarning,
		Source:    "syntax",
	})
	if err != nil {
		t.Fatalf("TrackError(%s): %v", id, err)
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "metrics.db")
	s, err := Open(path, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening applies the schema idempotently.
	s, err = Open(path, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestTrackErrorFillsDefaults(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	err := s.TrackError(context.Background(), engine.ErrorRecord{
		Category: "syntax",
		Severity: engine.SeverityWarning,
	})
	if err != nil {
		t.Fatalf("TrackError: %v", err)
	}

	w := Window{Since: now.Add(-time.Hour), Until: now.Add(time.Hour)}
	counts, err := s.Frequency(context.Background(), w, BucketHour, "")
	if err != nil {
		t.Fatalf("Frequency: %v", err)
	}
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	if total != 1 {
		t.Errorf("tracked events = %d, want 1", total)
	}
}

func TestTrackScan(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	result := &engine.ScanResult{
		ScanID:    "scan-1",
		StartedAt: started,
		Records: []engine.ErrorRecord{
			{ID: "e1", Timestamp: started, Category: "syntax", Severity: engine.SeverityWarning},
			{ID: "e2", Category: "runtime-risk", Severity: engine.SeverityError},
		},
	}
	if err := s.TrackScan(context.Background(), result); err != nil {
		t.Fatalf("TrackScan: %v", err)
	}
	if err := s.TrackScan(context.Background(), nil); err != nil {
		t.Fatalf("TrackScan(nil): %v", err)
	}

	w := Window{Since: started.Add(-time.Hour), Until: started.Add(time.Hour)}
	counts, err := s.Frequency(context.Background(), w, BucketHour, "")
	if err != nil {
		t.Fatalf("Frequency: %v", err)
	}
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	if total != 2 {
		t.Errorf("tracked events = %d, want 2", total)
	}
}

func TestTrackResolutionDerivesDuration(t *testing.T) {
	s := newTestStore(t)
	t0 := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	trackAt(t, s, "e1", "runtime-risk", t0)

	s.now = func() time.Time { return t0.Add(5 * time.Minute) }
	if err := s.TrackResolution(context.Background(), "e1", 0, "manual"); err != nil {
		t.Fatalf("TrackResolution: %v", err)
	}

	w := Window{Since: t0, Until: t0.Add(time.Hour)}
	stats, err := s.ResolutionStats(context.Background(), w, "")
	if err != nil {
		t.Fatalf("ResolutionStats: %v", err)
	}
	if stats.Count != 1 {
		t.Fatalf("Count = %d, want 1", stats.Count)
	}
	if stats.Median != 5*time.Minute {
		t.Errorf("Median = %s, want 5m", stats.Median)
	}

	// The sample is attributed to the tracked error's category.
	stats, err = s.ResolutionStats(context.Background(), w, "runtime-risk")
	if err != nil {
		t.Fatalf("ResolutionStats(runtime-risk): %v", err)
	}
	if stats.Count != 1 {
		t.Errorf("category Count = %d, want 1", stats.Count)
	}
}

func TestTrackResolutionOrphan(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.TrackResolution(context.Background(), "ghost", 2*time.Minute, "auto"); err != nil {
		t.Fatalf("TrackResolution: %v", err)
	}

	w := Window{Since: now.Add(-time.Hour), Until: now.Add(time.Hour)}
	stats, err := s.ResolutionStats(context.Background(), w, "")
	if err != nil {
		t.Fatalf("ResolutionStats: %v", err)
	}
	if stats.Count != 1 || stats.Max != 2*time.Minute {
		t.Errorf("stats = %+v, want one 2m sample", stats)
	}

	// Orphans carry no category, so a category filter excludes them.
	stats, err = s.ResolutionStats(context.Background(), w, "syntax")
	if err != nil {
		t.Fatalf("ResolutionStats(syntax): %v", err)
	}
	if stats.Count != 0 {
		t.Errorf("category Count = %d, want 0", stats.Count)
	}
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	errCount, resCount, err := s.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if errCount != 0 || resCount != 0 {
		t.Errorf("empty store counts = %d, %d, want 0, 0", errCount, resCount)
	}

	trackAt(t, s, "e1", "syntax", now)
	trackAt(t, s, "e2", "syntax", now)
	s.now = func() time.Time { return now.Add(time.Minute) }
	if err := s.TrackResolution(context.Background(), "e1", time.Minute, "manual"); err != nil {
		t.Fatalf("TrackResolution: %v", err)
	}

	errCount, resCount, err = s.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if errCount != 2 || resCount != 1 {
		t.Errorf("counts = %d, %d, want 2, 1", errCount, resCount)
	}
}

func TestTrackResolutionValidation(t *testing.T) {
	s := newTestStore(t)

	if err := s.TrackResolution(context.Background(), "", time.Minute, ""); !errors.IsValidationFailed(err) {
		t.Errorf("empty id error = %v, want validation failure", err)
	}
	if err := s.TrackResolution(context.Background(), "e1", -time.Minute, ""); !errors.IsValidationFailed(err) {
		t.Errorf("negative duration error = %v, want validation failure", err)
	}
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -100)

	trackAt(t, s, "old-1", "syntax", old)
	trackAt(t, s, "old-2", "syntax", old.Add(time.Hour))
	trackAt(t, s, "recent", "syntax", now.Add(-time.Hour))

	s.now = func() time.Time { return old.Add(2 * time.Hour) }
	if err := s.TrackResolution(context.Background(), "old-1", time.Minute, "manual"); err != nil {
		t.Fatalf("TrackResolution: %v", err)
	}

	removed, err := s.Purge(context.Background(), now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	w := Window{Since: now.AddDate(0, 0, -365), Until: now}
	counts, err := s.Frequency(context.Background(), w, BucketMonth, "")
	if err != nil {
		t.Fatalf("Frequency: %v", err)
	}
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	if total != 1 {
		t.Errorf("events after purge = %d, want 1", total)
	}
}
