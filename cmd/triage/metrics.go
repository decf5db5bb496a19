package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"triage/internal/errors"
	"triage/internal/metrics"
)

var (
	metricsSince    string
	metricsUntil    string
	metricsBucket   string
	metricsCategory string
	metricsLimit    int

	trackResolutionDuration time.Duration
	trackResolutionMethod   string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Error frequency and resolution analytics",
	Long: `Query the metrics store for error frequency, trends, category ranking,
resolution times, and suggested focus areas.

Windows are half-open [since, until). --since and --until accept an
RFC3339 timestamp or a relative duration like 72h, meaning that long
before now.

Examples:
  triage metrics frequency --since 168h --bucket day
  triage metrics trends --bucket week --category syntax
  triage metrics categories --limit 5
  triage metrics resolution --category runtime-risk
  triage metrics suggest`,
}

var metricsFrequencyCmd = &cobra.Command{
	Use:   "frequency",
	Short: "Error counts per time bucket",
	RunE:  runMetricsFrequency,
}

var metricsTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Direction of the error rate over the window",
	RunE:  runMetricsTrends,
}

var metricsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Most common error categories",
	RunE:  runMetricsCategories,
}

var metricsResolutionCmd = &cobra.Command{
	Use:   "resolution",
	Short: "Resolution time statistics",
	RunE:  runMetricsResolution,
}

var metricsSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggested focus areas for the window",
	RunE:  runMetricsSuggest,
}

var metricsTrackResolutionCmd = &cobra.Command{
	Use:   "track-resolution <error-id>",
	Short: "Record that an error was resolved",
	Long: `Record a resolution event for a tracked error.

When --duration is omitted the duration is derived from the tracked
error's timestamp.

Examples:
  triage metrics track-resolution 1f0c2a44 --duration 25m --method "config fix"`,
	Args: exactArgs(1),
	RunE: runMetricsTrackResolution,
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.AddCommand(metricsFrequencyCmd)
	metricsCmd.AddCommand(metricsTrendsCmd)
	metricsCmd.AddCommand(metricsCategoriesCmd)
	metricsCmd.AddCommand(metricsResolutionCmd)
	metricsCmd.AddCommand(metricsSuggestCmd)
	metricsCmd.AddCommand(metricsTrackResolutionCmd)

	metricsCmd.PersistentFlags().StringVar(&metricsSince, "since", "168h",
		"Window start: RFC3339 timestamp or how long ago")
	metricsCmd.PersistentFlags().StringVar(&metricsUntil, "until", "",
		"Window end: RFC3339 timestamp or how long ago (default now)")
	metricsCmd.PersistentFlags().StringVar(&metricsCategory, "category", "",
		"Restrict to one error category")

	metricsFrequencyCmd.Flags().StringVar(&metricsBucket, "bucket", "day",
		"Bucket size: hour, day, week, or month")
	metricsTrendsCmd.Flags().StringVar(&metricsBucket, "bucket", "day",
		"Bucket size: hour, day, week, or month")
	metricsCategoriesCmd.Flags().IntVar(&metricsLimit, "limit", 10,
		"Categories to show (0 shows all)")

	metricsTrackResolutionCmd.Flags().DurationVar(&trackResolutionDuration, "duration", 0,
		"Time from error to resolution, e.g. 25m (default: derived from the error)")
	metricsTrackResolutionCmd.Flags().StringVar(&trackResolutionMethod, "method", "",
		"How the error was resolved")
}

// parseTimePoint reads an RFC3339 timestamp or a relative duration meaning
// that long before now. Empty stays zero for the caller to default.
func parseTimePoint(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, errors.NewValidationFailed("cannot parse time").
		WithDetail("value", s).
		WithDetail("supported", "RFC3339 timestamp or relative duration like 72h")
}

// metricsWindow builds the query window from the --since/--until flags.
func metricsWindow() (metrics.Window, error) {
	now := time.Now().UTC()
	since, err := parseTimePoint(metricsSince, now)
	if err != nil {
		return metrics.Window{}, err
	}
	until, err := parseTimePoint(metricsUntil, now)
	if err != nil {
		return metrics.Window{}, err
	}
	if since.IsZero() {
		since = now.Add(-7 * 24 * time.Hour)
	}
	if until.IsZero() {
		until = now
	}
	return metrics.Window{Since: since, Until: until}, nil
}

// openMetricsHere opens the store for the current directory's configuration.
func openMetricsHere() (*metrics.Store, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfigFor(root)
	if err != nil {
		return nil, err
	}
	return openMetrics(cfg, root, newLogger(cfg))
}

func runMetricsFrequency(cmd *cobra.Command, args []string) error {
	w, err := metricsWindow()
	if err != nil {
		return err
	}
	bucket, err := metrics.ParseBucket(metricsBucket)
	if err != nil {
		return err
	}
	store, err := openMetricsHere()
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.Frequency(context.Background(), w, bucket, metricsCategory)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(frequencyResponse{
			Since:    w.Since.Format(time.RFC3339),
			Until:    w.Until.Format(time.RFC3339),
			Bucket:   string(bucket),
			Category: metricsCategory,
			Buckets:  counts,
		})
	}

	fmt.Printf("Error frequency per %s, %s to %s\n", bucket,
		w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339))
	if metricsCategory != "" {
		fmt.Printf("Category: %s\n", metricsCategory)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUCKET\tCOUNT")
	var total int64
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Start.Format(time.RFC3339), c.Count)
		total += c.Count
	}
	tw.Flush()
	fmt.Printf("\nTotal: %d\n", total)
	return nil
}

func runMetricsTrends(cmd *cobra.Command, args []string) error {
	w, err := metricsWindow()
	if err != nil {
		return err
	}
	bucket, err := metrics.ParseBucket(metricsBucket)
	if err != nil {
		return err
	}
	store, err := openMetricsHere()
	if err != nil {
		return err
	}
	defer store.Close()

	trend, err := store.Trends(context.Background(), w, bucket, metricsCategory)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(trendsResponse{
			Since:    w.Since.Format(time.RFC3339),
			Until:    w.Until.Format(time.RFC3339),
			Bucket:   string(bucket),
			Category: metricsCategory,
			Trend:    trend,
		})
	}

	fmt.Printf("Error trend per %s, %s to %s\n", bucket,
		w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339))
	if metricsCategory != "" {
		fmt.Printf("Category: %s\n", metricsCategory)
	}
	fmt.Printf("\nDirection: %s\n", trend.Direction)
	fmt.Printf("Change rate: %+.1f%%\n", trend.ChangeRate*100)
	return nil
}

func runMetricsCategories(cmd *cobra.Command, args []string) error {
	w, err := metricsWindow()
	if err != nil {
		return err
	}
	store, err := openMetricsHere()
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.CommonCategories(context.Background(), w, metricsLimit)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(categoriesResponse{
			Since:      w.Since.Format(time.RFC3339),
			Until:      w.Until.Format(time.RFC3339),
			Categories: counts,
		})
	}

	if len(counts) == 0 {
		fmt.Println("No errors in the window.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Category, c.Count)
	}
	tw.Flush()
	return nil
}

func runMetricsResolution(cmd *cobra.Command, args []string) error {
	w, err := metricsWindow()
	if err != nil {
		return err
	}
	store, err := openMetricsHere()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.ResolutionStats(context.Background(), w, metricsCategory)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(resolutionResponse{
			Since:    w.Since.Format(time.RFC3339),
			Until:    w.Until.Format(time.RFC3339),
			Category: metricsCategory,
			Count:    stats.Count,
			MinMs:    stats.Min.Milliseconds(),
			MedianMs: stats.Median.Milliseconds(),
			P90Ms:    stats.P90.Milliseconds(),
			MaxMs:    stats.Max.Milliseconds(),
		})
	}

	if stats.Count == 0 {
		fmt.Println("No resolution events in the window.")
		return nil
	}

	fmt.Printf("Resolutions: %d\n", stats.Count)
	fmt.Printf("Min:    %s\n", stats.Min.Round(time.Second))
	fmt.Printf("Median: %s\n", stats.Median.Round(time.Second))
	fmt.Printf("P90:    %s\n", stats.P90.Round(time.Second))
	fmt.Printf("Max:    %s\n", stats.Max.Round(time.Second))
	return nil
}

func runMetricsSuggest(cmd *cobra.Command, args []string) error {
	w, err := metricsWindow()
	if err != nil {
		return err
	}
	store, err := openMetricsHere()
	if err != nil {
		return err
	}
	defer store.Close()

	suggestions, err := store.Suggestions(context.Background(), w)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(suggestResponse{
			Since:       w.Since.Format(time.RFC3339),
			Until:       w.Until.Format(time.RFC3339),
			Suggestions: suggestions,
		})
	}

	if len(suggestions) == 0 {
		fmt.Println("No suggestions for this window.")
		return nil
	}
	for _, s := range suggestions {
		fmt.Printf("- [%s] %s\n", s.Rule, s.Message)
	}
	return nil
}

func runMetricsTrackResolution(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfigFor(root)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := openMetrics(cfg, root, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	applyRetention(store, cfg, logger)
	errorID := args[0]
	if err := store.TrackResolution(context.Background(), errorID,
		trackResolutionDuration, trackResolutionMethod); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(trackResolutionResponse{
			ErrorID:    errorID,
			DurationMs: trackResolutionDuration.Milliseconds(),
			Method:     trackResolutionMethod,
		})
	}
	fmt.Printf("Recorded resolution for %s\n", errorID)
	return nil
}

type frequencyResponse struct {
	Since    string                `json:"since"`
	Until    string                `json:"until"`
	Bucket   string                `json:"bucket"`
	Category string                `json:"category,omitempty"`
	Buckets  []metrics.BucketCount `json:"buckets"`
}

type trendsResponse struct {
	Since    string        `json:"since"`
	Until    string        `json:"until"`
	Bucket   string        `json:"bucket"`
	Category string        `json:"category,omitempty"`
	Trend    metrics.Trend `json:"trend"`
}

type categoriesResponse struct {
	Since      string                  `json:"since"`
	Until      string                  `json:"until"`
	Categories []metrics.CategoryCount `json:"categories"`
}

type resolutionResponse struct {
	Since    string `json:"since"`
	Until    string `json:"until"`
	Category string `json:"category,omitempty"`
	Count    int64  `json:"count"`
	MinMs    int64  `json:"minMs"`
	MedianMs int64  `json:"medianMs"`
	P90Ms    int64  `json:"p90Ms"`
	MaxMs    int64  `json:"maxMs"`
}

type suggestResponse struct {
	Since       string               `json:"since"`
	Until       string               `json:"until"`
	Suggestions []metrics.Suggestion `json:"suggestions"`
}

type trackResolutionResponse struct {
	ErrorID    string `json:"errorId"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Method     string `json:"method,omitempty"`
}
