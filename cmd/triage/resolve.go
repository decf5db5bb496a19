package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"triage/internal/resolution"
)

var resolveTop int

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]",
	Short: "Scan and rank remediation suggestions",
	Long: `Scan a file or directory and print ranked resolution candidates for
every finding.

Candidates come from the knowledge base, ordered by confidence; findings
no solution covers get a manual investigation fallback.

Examples:
  triage resolve ./src
  triage resolve . --top 1 --json`,
	Args: maxArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().IntVar(&resolveTop, "top", 3,
		"Candidates to keep per finding (0 keeps all)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
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
	result, err := eng.Scan(context.Background(), root)
	if err != nil {
		return err
	}

	catalog := loadCatalog(cfg, root, logger)
	resolutions := resolution.New(catalog).ResolveAll(*result)
	if resolveTop > 0 {
		for i := range resolutions {
			if len(resolutions[i].Candidates) > resolveTop {
				resolutions[i].Candidates = resolutions[i].Candidates[:resolveTop]
			}
		}
	}

	if jsonOut {
		return printJSON(resolveResponse{
			Root:        result.Root,
			Findings:    len(result.Records),
			Resolutions: resolutions,
		})
	}

	if len(result.Records) == 0 {
		fmt.Println("No findings.")
		return nil
	}

	for i, rec := range result.Records {
		loc := rec.File
		if loc == "" {
			loc = "(no file)"
		} else if rec.Line > 0 {
			loc = fmt.Sprintf("%s:%d", rec.File, rec.Line)
		}
		fmt.Printf("%s [%s] %s\n", loc, rec.Severity, rec.Message)

		for j, cand := range resolutions[i].Candidates {
			fmt.Printf("  %d. %s (confidence %.2f)\n", j+1, cand.Approach, cand.Confidence)
			for _, step := range cand.Steps {
				fmt.Printf("     - %s\n", step)
			}
		}
		fmt.Println()
	}
	return nil
}

type resolveResponse struct {
	Root        string                  `json:"root"`
	Findings    int                     `json:"findings"`
	Resolutions []resolution.Resolution `json:"resolutions"`
}
