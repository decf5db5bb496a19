package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"triage/internal/kb"
)

var (
	kbCategory string
	kbLanguage string
	kbLimit    int
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the error knowledge base",
	Long: `Search and inspect the knowledge base of error patterns, solutions,
and best practices.

The built-in catalog is always available; catalog files from the
configured catalog directory are merged over it, replacing entries
with the same ID.`,
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search error patterns",
	Long: `Search the catalog's error patterns by free text.

Examples:
  triage kb search "unbalanced bracket"
  triage kb search panic --category runtime-risk --language go`,
	Args: exactArgs(1),
	RunE: runKBSearch,
}

var kbShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one catalog entry",
	Long: `Show a pattern, solution, or best practice by ID.

Patterns list their linked solutions.`,
	Args: exactArgs(1),
	RunE: runKBShow,
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	RunE:  runKBList,
}

func init() {
	rootCmd.AddCommand(kbCmd)

	kbCmd.AddCommand(kbSearchCmd)
	kbCmd.AddCommand(kbShowCmd)
	kbCmd.AddCommand(kbListCmd)

	kbSearchCmd.Flags().StringVar(&kbCategory, "category", "", "Restrict to one error category")
	kbSearchCmd.Flags().StringVar(&kbLanguage, "language", "", "Restrict to patterns covering a language")
	kbSearchCmd.Flags().IntVar(&kbLimit, "limit", 10, "Matches to show (0 shows all)")
	kbListCmd.Flags().StringVar(&kbCategory, "category", "", "Restrict to one error category")
}

func runKBSearch(cmd *cobra.Command, args []string) error {
	catalog, err := cliCatalog()
	if err != nil {
		return err
	}

	matches := catalog.Search(kb.Query{
		Text:     args[0],
		Category: kbCategory,
		Language: kbLanguage,
	})
	if kbLimit > 0 && len(matches) > kbLimit {
		matches = matches[:kbLimit]
	}

	if jsonOut {
		return printJSON(kbSearchResponse{Query: args[0], Matches: matches})
	}

	if len(matches) == 0 {
		fmt.Println("No matching patterns.")
		return nil
	}
	for i, m := range matches {
		fmt.Printf("%d. %s (%s)\n", i+1, m.Pattern.Title, m.Pattern.ID)
		fmt.Printf("   Category: %s  Languages: %s  Score: %.1f\n",
			m.Pattern.Category, strings.Join(m.Pattern.Languages, ", "), m.Score)
		if m.Pattern.Description != "" {
			fmt.Printf("   %s\n", m.Pattern.Description)
		}
	}
	return nil
}

func runKBShow(cmd *cobra.Command, args []string) error {
	catalog, err := cliCatalog()
	if err != nil {
		return err
	}
	id := args[0]

	if p, ok := catalog.Pattern(id); ok {
		solutions := catalog.SolutionsFor(p.ID)
		if jsonOut {
			return printJSON(kbShowResponse{Kind: "pattern", Pattern: &p, Solutions: solutions})
		}
		fmt.Printf("Pattern: %s\n", p.Title)
		fmt.Printf("ID: %s\n", p.ID)
		fmt.Printf("Category: %s\n", p.Category)
		if len(p.Languages) > 0 {
			fmt.Printf("Languages: %s\n", strings.Join(p.Languages, ", "))
		}
		if len(p.Keywords) > 0 {
			fmt.Printf("Keywords: %s\n", strings.Join(p.Keywords, ", "))
		}
		if p.Description != "" {
			fmt.Printf("\n%s\n", p.Description)
		}
		if len(solutions) > 0 {
			fmt.Println("\nSolutions:")
			for _, s := range solutions {
				fmt.Printf("  %s (confidence %.2f)\n", s.ID, s.Confidence)
				fmt.Printf("    %s\n", s.Approach)
			}
		}
		return nil
	}

	if s, ok := catalog.Solution(id); ok {
		if jsonOut {
			return printJSON(kbShowResponse{Kind: "solution", Solution: &s})
		}
		fmt.Printf("Solution: %s\n", s.ID)
		fmt.Printf("Pattern: %s\n", s.PatternID)
		fmt.Printf("Confidence: %.2f\n", s.Confidence)
		if len(s.Languages) > 0 {
			fmt.Printf("Languages: %s\n", strings.Join(s.Languages, ", "))
		}
		fmt.Printf("\n%s\n", s.Approach)
		if len(s.Steps) > 0 {
			fmt.Println("\nSteps:")
			for i, step := range s.Steps {
				fmt.Printf("  %d. %s\n", i+1, step)
			}
		}
		if len(s.ValidationSteps) > 0 {
			fmt.Println("\nValidation:")
			for _, step := range s.ValidationSteps {
				fmt.Printf("  - %s\n", step)
			}
		}
		return nil
	}

	if p, ok := catalog.Practice(id); ok {
		if jsonOut {
			return printJSON(kbShowResponse{Kind: "practice", Practice: &p})
		}
		fmt.Printf("Best practice: %s\n", p.Title)
		fmt.Printf("ID: %s\n", p.ID)
		fmt.Printf("Category: %s\n", p.Category)
		fmt.Printf("\n%s\n", p.Rationale)
		return nil
	}

	return fmt.Errorf("no catalog entry with ID %q", id)
}

func runKBList(cmd *cobra.Command, args []string) error {
	catalog, err := cliCatalog()
	if err != nil {
		return err
	}

	patterns := catalog.PatternsFor(kbCategory, "")
	var practices []kb.BestPractice
	if kbCategory != "" {
		practices = catalog.PracticesFor(kbCategory)
	} else {
		practices = catalog.Practices()
	}

	if jsonOut {
		return printJSON(kbListResponse{Patterns: patterns, Practices: practices})
	}

	if len(patterns) == 0 && len(practices) == 0 {
		fmt.Println("No catalog entries.")
		return nil
	}

	if len(patterns) > 0 {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCATEGORY\tTITLE")
		for _, p := range patterns {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Category, p.Title)
		}
		tw.Flush()
	}

	if len(practices) > 0 {
		fmt.Println("\nBest practices:")
		for _, p := range practices {
			fmt.Printf("  %s  %s\n", p.ID, p.Title)
		}
	}

	fmt.Printf("\n%d pattern(s), %d practice(s)\n", len(patterns), len(practices))
	return nil
}

type kbSearchResponse struct {
	Query   string     `json:"query"`
	Matches []kb.Match `json:"matches"`
}

type kbShowResponse struct {
	Kind      string           `json:"kind"`
	Pattern   *kb.Pattern      `json:"pattern,omitempty"`
	Solutions []kb.Solution    `json:"solutions,omitempty"`
	Solution  *kb.Solution     `json:"solution,omitempty"`
	Practice  *kb.BestPractice `json:"practice,omitempty"`
}

type kbListResponse struct {
	Patterns  []kb.Pattern      `json:"patterns"`
	Practices []kb.BestPractice `json:"practices"`
}
