package metrics

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"triage/internal/errors"
)

// seedHours tracks counts[i] events in hour i after base, all in the given
// category.
func seedHours(t *testing.T, s *Store, prefix, category string, base time.Time, counts []int) {
	t.Helper()
	for hour, n := range counts {
		for j := 0; j < n; j++ {
			at := base.Add(time.Duration(hour)*time.Hour + time.Duration(j+1)*time.Minute)
			trackAt(t, s, fmt.Sprintf("%s-%d-%d", prefix, hour, j), category, at)
		}
	}
}

func TestFrequencyCategoryFilter(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	seedHours(t, s, "syn", "syntax", base, []int{1, 1})
	seedHours(t, s, "run", "runtime-risk", base, []int{1, 0})

	w := Window{Since: base, Until: base.Add(2 * time.Hour)}

	tests := []struct {
		category string
		want     []int64
	}{
		{"", []int64{2, 1}},
		{"syntax", []int64{1, 1}},
		{"runtime-risk", []int64{1, 0}},
		{"configuration", []int64{0, 0}},
	}
	for _, tt := range tests {
		counts, err := s.Frequency(context.Background(), w, BucketHour, tt.category)
		if err != nil {
			t.Fatalf("Frequency(%q): %v", tt.category, err)
		}
		if len(counts) != len(tt.want) {
			t.Fatalf("Frequency(%q) length = %d, want %d", tt.category, len(counts), len(tt.want))
		}
		for i, c := range counts {
			if c.Count != tt.want[i] {
				t.Errorf("Frequency(%q) bucket %d = %d, want %d", tt.category, i, c.Count, tt.want[i])
			}
		}
	}
}

func TestFrequencyEmptyWindowNeverErrors(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	counts, err := s.Frequency(context.Background(), Window{Since: base, Until: base.Add(3 * time.Hour)}, BucketHour, "")
	if err != nil {
		t.Fatalf("Frequency: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("length = %d, want 3", len(counts))
	}
	for i, c := range counts {
		if c.Count != 0 {
			t.Errorf("bucket %d = %d, want 0", i, c.Count)
		}
	}

	// Since == Until is a valid empty window.
	counts, err = s.Frequency(context.Background(), Window{Since: base, Until: base}, BucketHour, "")
	if err != nil {
		t.Fatalf("Frequency on empty window: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("empty window length = %d, want 0", len(counts))
	}
}

func TestFrequencyValidation(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	_, err := s.Frequency(context.Background(), Window{Since: base.Add(time.Hour), Until: base}, BucketHour, "")
	if !errors.IsValidationFailed(err) {
		t.Errorf("inverted window error = %v, want validation failure", err)
	}
	_, err = s.Frequency(context.Background(), Window{Since: base, Until: base.Add(time.Hour)}, Bucket("minute"), "")
	if !errors.IsValidationFailed(err) {
		t.Errorf("unknown bucket error = %v, want validation failure", err)
	}
}

func TestTrends(t *testing.T) {
	tests := []struct {
		name     string
		counts   []int
		wantDir  string
		wantRate float64
	}{
		{"increasing", []int{1, 1, 4, 4}, "increasing", 3},
		{"decreasing", []int{4, 4, 1, 1}, "decreasing", -0.75},
		{"flat", []int{3, 3, 3, 3}, "stable", 0},
		{"within band", []int{10, 10, 10, 11}, "stable", 0.05},
		{"from zero", []int{0, 0, 2, 2}, "increasing", 1},
		{"empty", []int{0, 0, 0, 0}, "stable", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			base := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
			for day, n := range tt.counts {
				for j := 0; j < n; j++ {
					at := base.AddDate(0, 0, day).Add(time.Duration(j+1) * time.Minute)
					trackAt(t, s, fmt.Sprintf("%d-%d", day, j), "syntax", at)
				}
			}

			w := Window{Since: base, Until: base.AddDate(0, 0, len(tt.counts))}
			trend, err := s.Trends(context.Background(), w, BucketDay, "")
			if err != nil {
				t.Fatalf("Trends: %v", err)
			}
			if trend.Direction != tt.wantDir {
				t.Errorf("Direction = %q, want %q", trend.Direction, tt.wantDir)
			}
			if math.Abs(trend.ChangeRate-tt.wantRate) > 1e-9 {
				t.Errorf("ChangeRate = %v, want %v", trend.ChangeRate, tt.wantRate)
			}
		})
	}
}

func TestTrendsShortSeriesIsStable(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	trackAt(t, s, "only", "syntax", base.Add(time.Minute))

	trend, err := s.Trends(context.Background(), Window{Since: base, Until: base.Add(time.Hour)}, BucketHour, "")
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	if trend.Direction != "stable" || trend.ChangeRate != 0 {
		t.Errorf("trend = %+v, want stable with zero rate", trend)
	}
}

func TestCommonCategories(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	seedHours(t, s, "cfg", "configuration", base, []int{3})
	seedHours(t, s, "run", "runtime-risk", base, []int{2})
	seedHours(t, s, "syn", "syntax", base, []int{2})

	w := Window{Since: base, Until: base.Add(time.Hour)}
	counts, err := s.CommonCategories(context.Background(), w, 0)
	if err != nil {
		t.Fatalf("CommonCategories: %v", err)
	}

	want := []CategoryCount{
		{Category: "configuration", Count: 3},
		{Category: "runtime-risk", Count: 2},
		{Category: "syntax", Count: 2},
	}
	if len(counts) != len(want) {
		t.Fatalf("length = %d, want %d", len(counts), len(want))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}

	limited, err := s.CommonCategories(context.Background(), w, 2)
	if err != nil {
		t.Fatalf("CommonCategories(limit 2): %v", err)
	}
	if len(limited) != 2 || limited[1].Category != "runtime-risk" {
		t.Errorf("limited = %+v, want top two", limited)
	}

	empty, err := s.CommonCategories(context.Background(), Window{Since: base.AddDate(1, 0, 0), Until: base.AddDate(1, 0, 1)}, 0)
	if err != nil {
		t.Fatalf("CommonCategories(empty): %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty window = %+v, want empty slice", empty)
	}
}

func TestResolutionStatsNearestRank(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i, d := range []time.Duration{3 * time.Minute, time.Minute, 4 * time.Minute, 2 * time.Minute} {
		if err := s.TrackResolution(context.Background(), fmt.Sprintf("e%d", i), d, "manual"); err != nil {
			t.Fatalf("TrackResolution: %v", err)
		}
	}

	w := Window{Since: now.Add(-time.Hour), Until: now.Add(time.Hour)}
	stats, err := s.ResolutionStats(context.Background(), w, "")
	if err != nil {
		t.Fatalf("ResolutionStats: %v", err)
	}

	want := ResolutionStats{
		Count:  4,
		Min:    time.Minute,
		Median: 2 * time.Minute,
		P90:    4 * time.Minute,
		Max:    4 * time.Minute,
	}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestResolutionStatsEmptyWindow(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	stats, err := s.ResolutionStats(context.Background(), Window{Since: base, Until: base.Add(time.Hour)}, "")
	if err != nil {
		t.Fatalf("ResolutionStats: %v", err)
	}
	if stats != (ResolutionStats{}) {
		t.Errorf("stats = %+v, want zero value", stats)
	}
}

func containsRule(suggestions []Suggestion, rule string) bool {
	for _, s := range suggestions {
		if s.Rule == rule {
			return true
		}
	}
	return false
}

func TestSuggestionsEmptyWindow(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	suggestions, err := s.Suggestions(context.Background(), Window{Since: base, Until: base.Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if suggestions == nil || len(suggestions) != 0 {
		t.Errorf("suggestions = %+v, want empty slice", suggestions)
	}
}

func TestSuggestionsDominantCategory(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	// Six syntax events spread evenly so the trend stays stable.
	seedHours(t, s, "syn", "syntax", base, []int{2, 1, 2, 1})

	suggestions, err := s.Suggestions(context.Background(), Window{Since: base, Until: base.Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Rule != "dominant-category" {
		t.Errorf("suggestions = %+v, want a single dominant-category rule", suggestions)
	}
}

func TestSuggestionsRisingErrors(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	// No category dominates, volume grows toward the window's end.
	seedHours(t, s, "syn", "syntax", base, []int{1, 0, 1, 0})
	seedHours(t, s, "run", "runtime-risk", base, []int{0, 0, 1, 1})
	seedHours(t, s, "cfg", "configuration", base, []int{0, 0, 0, 2})

	suggestions, err := s.Suggestions(context.Background(), Window{Since: base, Until: base.Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Rule != "rising-errors" {
		t.Errorf("suggestions = %+v, want a single rising-errors rule", suggestions)
	}
}

func TestSuggestionsSlowResolution(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	// No dominant category and no growth, just a slow resolution sample.
	seedHours(t, s, "syn", "syntax", base, []int{1, 1, 1, 0})
	seedHours(t, s, "run", "runtime-risk", base, []int{1, 0, 1, 0})
	seedHours(t, s, "cfg", "configuration", base, []int{0, 1, 0, 1})

	s.now = func() time.Time { return base.Add(3 * time.Hour) }
	if err := s.TrackResolution(context.Background(), "ghost", 40*time.Minute, "manual"); err != nil {
		t.Fatalf("TrackResolution: %v", err)
	}

	suggestions, err := s.Suggestions(context.Background(), Window{Since: base, Until: base.Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Rule != "slow-resolution" {
		t.Errorf("suggestions = %+v, want a single slow-resolution rule", suggestions)
	}
}

func TestSuggestionsPriorityCategory(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	// One rising category that also resolves slowly trips every rule,
	// ending with the priority call-out.
	seedHours(t, s, "run", "runtime-risk", base, []int{0, 1, 2, 3})

	s.now = func() time.Time { return base.Add(3*time.Hour + 30*time.Minute) }
	if err := s.TrackResolution(context.Background(), "run-3-0", 40*time.Minute, "manual"); err != nil {
		t.Fatalf("TrackResolution: %v", err)
	}

	suggestions, err := s.Suggestions(context.Background(), Window{Since: base, Until: base.Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if !containsRule(suggestions, "priority-category") {
		t.Errorf("suggestions = %+v, want priority-category present", suggestions)
	}
	if len(suggestions) != 4 {
		t.Errorf("len = %d, want all four rules", len(suggestions))
	}
}
