// Package metrics persists error and resolution events and serves
// frequency, trend, and resolution-time analytics over them.
package metrics

import (
	"time"

	"triage/internal/errors"
)

// Bucket is the granularity of a frequency series.
type Bucket string

const (
	BucketHour  Bucket = "hour"
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// Valid reports whether the bucket is a known granularity.
func (b Bucket) Valid() bool {
	switch b {
	case BucketHour, BucketDay, BucketWeek, BucketMonth:
		return true
	}
	return false
}

// ParseBucket validates a bucket name from user input.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(s)
	if !b.Valid() {
		return "", errors.NewValidationFailed("unknown bucket "+s).
			WithDetail("supported", []string{"hour", "day", "week", "month"})
	}
	return b, nil
}

// Window is a half-open time range [Since, Until).
type Window struct {
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// Validate rejects inverted windows. An empty window (Since == Until) is
// valid and yields empty results.
func (w Window) Validate() error {
	if w.Since.After(w.Until) {
		return errors.NewValidationFailed("window since is after until").
			WithDetail("since", w.Since.UTC().Format(time.RFC3339)).
			WithDetail("until", w.Until.UTC().Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && t.Before(w.Until)
}

// BucketCount is one point of a dense frequency series.
type BucketCount struct {
	Start time.Time `json:"start"`
	Count int64     `json:"count"`
}

// Trend compares the first and second half of a window.
type Trend struct {
	Direction  string  `json:"direction"` // "increasing" | "stable" | "decreasing"
	ChangeRate float64 `json:"changeRate"`
}

// CategoryCount is one row of the common-categories ranking.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ResolutionStats summarizes resolution durations in a window.
type ResolutionStats struct {
	Count  int64         `json:"count"`
	Min    time.Duration `json:"min"`
	Median time.Duration `json:"median"`
	P90    time.Duration `json:"p90"`
	Max    time.Duration `json:"max"`
}

// Suggestion is one rule-driven improvement hint.
type Suggestion struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}
