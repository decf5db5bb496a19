package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"triage/internal/prevention"
)

var preventCmd = &cobra.Command{
	Use:   "prevent <category>",
	Short: "Show prevention strategies for an error category",
	Long: `List preventive strategies for an error category, combining the static
strategy table with the knowledge base's best practices.

Examples:
  triage prevent syntax
  triage prevent runtime-risk --json`,
	Args: exactArgs(1),
	RunE: runPrevent,
}

func init() {
	rootCmd.AddCommand(preventCmd)
}

func runPrevent(cmd *cobra.Command, args []string) error {
	catalog, err := cliCatalog()
	if err != nil {
		return err
	}
	category := args[0]
	advisor := prevention.New().WithCatalog(catalog)
	strategies := advisor.For(category)

	if jsonOut {
		return printJSON(preventResponse{Category: category, Strategies: strategies})
	}

	if len(strategies) == 0 {
		fmt.Printf("No strategies for category %q.\n", category)
		fmt.Printf("Known categories: %s\n", strings.Join(advisor.Categories(), ", "))
		return nil
	}

	fmt.Printf("Prevention strategies for %s:\n\n", category)
	for i, s := range strategies {
		fmt.Printf("%d. %s\n", i+1, s.Title)
		fmt.Printf("   %s\n", s.Rationale)
		for _, step := range s.Steps {
			fmt.Printf("   - %s\n", step)
		}
		fmt.Println()
	}
	return nil
}

type preventResponse struct {
	Category   string                `json:"category"`
	Strategies []prevention.Strategy `json:"strategies"`
}
