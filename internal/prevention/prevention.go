// Package prevention maps error categories to preventive strategies.
package prevention

import (
	"sort"

	"triage/internal/kb"
)

// Strategy is one preventive measure for a category of errors.
type Strategy struct {
	Title     string   `json:"title"`
	Rationale string   `json:"rationale"`
	Steps     []string `json:"steps,omitempty"`
}

// strategies is the static category table. KB best practices are appended
// behind these when a catalog is attached.
var strategies = map[string][]Strategy{
	"syntax": {
		{
			Title:     "Format and parse before committing",
			Rationale: "A formatter refuses malformed input, so unbalanced delimiters never leave the editor.",
			Steps: []string{
				"Enable format-on-save for every language in the repository.",
				"Add a parse check to the pre-commit hook.",
			},
		},
		{
			Title:     "Gate merges on a lint pass",
			Rationale: "CI linting catches what individual editors miss.",
			Steps: []string{
				"Run the scan in CI on every pull request.",
				"Fail the build on error-severity records.",
			},
		},
	},
	"runtime-risk": {
		{
			Title:     "Make error paths explicit",
			Rationale: "Silent failure handling turns small bugs into corrupted state.",
			Steps: []string{
				"Ban bare exception handlers in review.",
				"Require every discarded error to carry a comment naming why.",
			},
		},
		{
			Title:     "Test the failure path, not just the happy path",
			Rationale: "Most runtime crashes live on branches no test ever takes.",
			Steps: []string{
				"Add one failure-injection test per external call site.",
			},
		},
	},
	"configuration": {
		{
			Title:     "Validate configuration at startup",
			Rationale: "A process that starts with broken config fails later, further from the cause.",
			Steps: []string{
				"Parse and validate all configuration before serving.",
				"Reject unknown keys so typos surface immediately.",
			},
		},
		{
			Title:     "Review configuration diffs like code",
			Rationale: "Config changes ship faster than code and break just as much.",
		},
	},
	"analyzer-failure": {
		{
			Title:     "Keep failing inputs as fixtures",
			Rationale: "An analyzer crash without a reproduction will come back.",
			Steps: []string{
				"Copy the triggering file into the test fixtures.",
				"Re-run the analyzer against fixtures in CI.",
			},
		},
	},
	"dependency": {
		{
			Title:     "Pin versions and commit the lockfile",
			Rationale: "Floating versions make every build a gamble.",
			Steps: []string{
				"Use exact versions in the manifest.",
				"Verify the lockfile is current in CI.",
			},
		},
	},
	"performance": {
		{
			Title:     "Budget and measure before optimizing",
			Rationale: "Unmeasured optimization trades readability for nothing.",
			Steps: []string{
				"Set a latency or allocation budget per hot path.",
				"Profile in CI when the budget is exceeded.",
			},
		},
	},
}

// Advisor serves prevention strategies, optionally enriched from a catalog.
type Advisor struct {
	catalog *kb.Catalog
}

// New creates an advisor over the static table only.
func New() *Advisor {
	return &Advisor{}
}

// WithCatalog returns an advisor that appends the catalog's best practices.
func (a *Advisor) WithCatalog(catalog *kb.Catalog) *Advisor {
	return &Advisor{catalog: catalog}
}

// For returns the strategies for a category, static entries first, then
// catalog best practices deduplicated by title. Unknown categories yield an
// empty slice.
func (a *Advisor) For(category string) []Strategy {
	out := make([]Strategy, 0)
	seen := make(map[string]bool)

	for _, s := range strategies[category] {
		out = append(out, s)
		seen[s.Title] = true
	}

	if a.catalog != nil {
		for _, p := range a.catalog.PracticesFor(category) {
			if seen[p.Title] {
				continue
			}
			seen[p.Title] = true
			out = append(out, Strategy{
				Title:     p.Title,
				Rationale: p.Rationale,
			})
		}
	}

	return out
}

// Categories returns the categories the static table knows, sorted.
func (a *Advisor) Categories() []string {
	out := make([]string, 0, len(strategies))
	for c := range strategies {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
