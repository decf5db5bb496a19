package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"triage/internal/monitor"
)

var watchEventsJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Monitor a source tree and rescan on change",
	Long: `Start a monitor session on a file or directory.

File system changes are debounced so a burst of writes triggers one
rescan; scan summaries stream to stdout until Ctrl+C. Findings are
recorded in the metrics store when it is available.

Examples:
  triage watch                  # Watch the current directory
  triage watch ./src --events-json`,
	Args: maxArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchEventsJSON, "events-json", false,
		"Stream one JSON event per rescan instead of summary lines")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveTarget(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfigFor(root)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	eng := newEngine(cfg, logger)
	mon := monitor.New(eng, cfg, logger)
	defer mon.Shutdown()

	store, err := openMetrics(cfg, root, logger)
	if err != nil {
		logger.Warn("metrics store unavailable, findings not tracked", "error", err)
	} else {
		applyRetention(store, cfg, logger)
		mon.SetTracker(store)
		defer store.Close()
	}

	sess, _, err := mon.Start(context.Background(), root)
	if err != nil {
		return err
	}

	fmt.Printf("Watching %s (session %s, Ctrl+C to stop)\n", sess.Path(), sess.Handle())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			fmt.Println("\nStopping watch...")
			return nil

		case ev := <-mon.Events():
			if watchEventsJSON {
				data, err := json.Marshal(ev)
				if err != nil {
					logger.Warn("failed to encode event", "error", err)
					continue
				}
				fmt.Println(string(data))
				continue
			}
			fmt.Println(eventSummary(ev))
		}
	}
}

// eventSummary renders one human line per debounced rescan.
func eventSummary(ev monitor.Event) string {
	line := fmt.Sprintf("%s  %d finding(s) in %d file(s)",
		ev.At.Format("15:04:05"), ev.Result.Summary.Total, ev.Result.FilesScanned)

	if len(ev.Trigger) == 0 {
		return line
	}
	shown := ev.Trigger
	if len(shown) > 5 {
		shown = shown[:5]
	}
	line += "  [" + strings.Join(shown, ", ")
	if len(ev.Trigger) > 5 {
		line += fmt.Sprintf(", +%d more", len(ev.Trigger)-5)
	}
	return line + "]"
}
