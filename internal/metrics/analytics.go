package metrics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"triage/internal/errors"
)

// trendBand is the relative change treated as noise. Movement inside the
// band in either direction reads as stable.
const trendBand = 0.10

const (
	// suggestionMinSample gates the category-share rule so a handful of
	// events cannot dominate the advice.
	suggestionMinSample = 5
	// dominantShare is the fraction of all events a single category must
	// reach to be called out.
	dominantShare = 0.5
	// slowResolution is the P90 above which resolution time is called out.
	slowResolution = 30 * time.Minute
	// priorityCategories caps how many top categories the per-category
	// rules inspect.
	priorityCategories = 3
)

// Frequency returns a dense per-bucket count of error events in the window,
// optionally filtered by category. Buckets with no events are present with
// a zero count; an empty window yields an empty series, never an error.
func (s *Store) Frequency(ctx context.Context, w Window, bucket Bucket, category string) ([]BucketCount, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if !bucket.Valid() {
		return nil, errors.NewValidationFailed("unknown bucket " + string(bucket))
	}
	times, err := s.eventTimes(ctx, w, category)
	if err != nil {
		return nil, err
	}
	return bucket.series(w, times), nil
}

// Trends splits the window's bucket series in half and compares average
// bucket counts between the halves.
func (s *Store) Trends(ctx context.Context, w Window, bucket Bucket, category string) (Trend, error) {
	counts, err := s.Frequency(ctx, w, bucket, category)
	if err != nil {
		return Trend{}, err
	}
	return computeTrend(counts), nil
}

func computeTrend(counts []BucketCount) Trend {
	if len(counts) < 2 {
		return Trend{Direction: "stable"}
	}
	half := len(counts) / 2
	first := averageCount(counts[:half])
	second := averageCount(counts[half:])

	switch {
	case first == 0 && second == 0:
		return Trend{Direction: "stable"}
	case first == 0:
		return Trend{Direction: "increasing", ChangeRate: 1}
	}

	rate := (second - first) / first
	direction := "stable"
	switch {
	case rate > trendBand:
		direction = "increasing"
	case rate < -trendBand:
		direction = "decreasing"
	}
	return Trend{Direction: direction, ChangeRate: rate}
}

func averageCount(counts []BucketCount) float64 {
	if len(counts) == 0 {
		return 0
	}
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return float64(total) / float64(len(counts))
}

// CommonCategories ranks categories by event count in the window,
// descending, with ties broken by category name. A limit of zero or less
// returns all categories.
func (s *Store) CommonCategories(ctx context.Context, w Window, limit int) ([]CategoryCount, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	counts, err := s.categoryCounts(ctx, w)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// ResolutionStats summarizes resolution durations recorded in the window.
// An empty window yields the zero value with Count 0, never an error.
func (s *Store) ResolutionStats(ctx context.Context, w Window, category string) (ResolutionStats, error) {
	if err := w.Validate(); err != nil {
		return ResolutionStats{}, err
	}
	durations, err := s.resolutionDurations(ctx, w, category)
	if err != nil {
		return ResolutionStats{}, err
	}
	if len(durations) == 0 {
		return ResolutionStats{}, nil
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return ResolutionStats{
		Count:  int64(len(sorted)),
		Min:    sorted[0],
		Median: percentile(sorted, 50),
		P90:    percentile(sorted, 90),
		Max:    sorted[len(sorted)-1],
	}, nil
}

// percentile returns the nearest-rank percentile of an ascending sample.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Suggestions derives process-improvement hints from the window's activity.
// Each rule fires at most once; a window with no events yields an empty
// slice.
func (s *Store) Suggestions(ctx context.Context, w Window) ([]Suggestion, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	suggestions := make([]Suggestion, 0)

	categories, err := s.CommonCategories(ctx, w, 0)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return suggestions, nil
	}

	var total int64
	for _, c := range categories {
		total += c.Count
	}
	bucket := suggestionBucket(w)

	if top := categories[0]; total >= suggestionMinSample &&
		float64(top.Count)/float64(total) >= dominantShare {
		suggestions = append(suggestions, Suggestion{
			Rule: "dominant-category",
			Message: fmt.Sprintf("%q accounts for %d of %d errors in this window; review its prevention guidance",
				top.Category, top.Count, total),
		})
	}

	trend, err := s.Trends(ctx, w, bucket, "")
	if err != nil {
		return nil, err
	}
	if trend.Direction == "increasing" {
		suggestions = append(suggestions, Suggestion{
			Rule: "rising-errors",
			Message: fmt.Sprintf("error volume grew %.0f%% between window halves; check recent changes on the affected paths",
				trend.ChangeRate*100),
		})
	}

	stats, err := s.ResolutionStats(ctx, w, "")
	if err != nil {
		return nil, err
	}
	if stats.Count > 0 && stats.P90 >= slowResolution {
		suggestions = append(suggestions, Suggestion{
			Rule: "slow-resolution",
			Message: fmt.Sprintf("90th percentile resolution time is %s; consider adding runbooks for recurring errors",
				stats.P90.Round(time.Second)),
		})
	}

	for i, c := range categories {
		if i >= priorityCategories {
			break
		}
		catTrend, err := s.Trends(ctx, w, bucket, c.Category)
		if err != nil {
			return nil, err
		}
		if catTrend.Direction != "increasing" {
			continue
		}
		catStats, err := s.ResolutionStats(ctx, w, c.Category)
		if err != nil {
			return nil, err
		}
		if catStats.Count > 0 && catStats.P90 >= slowResolution {
			suggestions = append(suggestions, Suggestion{
				Rule: "priority-category",
				Message: fmt.Sprintf("%q errors are rising and slow to resolve (P90 %s); treat them as a priority",
					c.Category, catStats.P90.Round(time.Second)),
			})
			break
		}
	}

	return suggestions, nil
}

// suggestionBucket picks a trend granularity proportional to the window.
func suggestionBucket(w Window) Bucket {
	span := w.Until.Sub(w.Since)
	switch {
	case span <= 48*time.Hour:
		return BucketHour
	case span >= 60*24*time.Hour:
		return BucketWeek
	}
	return BucketDay
}
