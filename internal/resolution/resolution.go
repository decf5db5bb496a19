// Package resolution ranks knowledge base solutions against scan records.
package resolution

import (
	"sort"

	"triage/internal/engine"
	"triage/internal/kb"
)

// Candidate is one ranked remediation option.
type Candidate struct {
	SolutionID      string   `json:"solutionId,omitempty"`
	Approach        string   `json:"approach"`
	Steps           []string `json:"steps,omitempty"`
	ValidationSteps []string `json:"validationSteps"`
	Confidence      float64  `json:"confidence"`
}

// Resolution is the ranked candidate list for one record.
type Resolution struct {
	ErrorID    string      `json:"errorId"`
	Category   string      `json:"category"`
	Candidates []Candidate `json:"candidates"`
	Fallback   bool        `json:"fallback"`
}

// fallbackValidation backs the manual investigation candidate; every
// resolution must end in checkable steps.
var fallbackValidation = []string{
	"Reproduce the error with a minimal input.",
	"Isolate the failing file or configuration.",
	"Apply the fix and confirm the record disappears on re-scan.",
	"Add a regression test covering the failure.",
}

// Engine resolves records against a catalog.
type Engine struct {
	catalog *kb.Catalog
}

// New creates a resolution engine over the given catalog.
func New(catalog *kb.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Resolve ranks the catalog's solutions for one record. The result always
// carries at least one candidate; records no solution covers get the manual
// investigation fallback.
func (e *Engine) Resolve(rec engine.ErrorRecord) Resolution {
	res := Resolution{
		ErrorID:  rec.ID,
		Category: rec.Category,
	}

	if rec.Category != "" {
		res.Candidates = e.candidatesFor(rec)
	}

	if len(res.Candidates) == 0 {
		res.Fallback = true
		res.Candidates = []Candidate{{
			Approach:        "manual investigation required",
			ValidationSteps: fallbackValidation,
			Confidence:      0,
		}}
	}

	return res
}

// candidatesFor collects and ranks matching solutions.
func (e *Engine) candidatesFor(rec engine.ErrorRecord) []Candidate {
	type ranked struct {
		sol      kb.Solution
		specific bool
	}

	var pool []ranked
	for _, p := range e.catalog.PatternsFor(rec.Category, "") {
		for _, s := range e.catalog.SolutionsFor(p.ID) {
			if !s.MatchesLanguage(rec.Language) {
				continue
			}
			pool = append(pool, ranked{
				sol:      s,
				specific: s.LanguageSpecific(rec.Language),
			})
		}
	}

	// Confidence desc, then language-specific over "any", then ID asc.
	sort.Slice(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.sol.Confidence != b.sol.Confidence {
			return a.sol.Confidence > b.sol.Confidence
		}
		if a.specific != b.specific {
			return a.specific
		}
		return a.sol.ID < b.sol.ID
	})

	candidates := make([]Candidate, 0, len(pool))
	for _, r := range pool {
		validation := r.sol.ValidationSteps
		if len(validation) == 0 {
			validation = []string{"Apply the fix and confirm the record disappears on re-scan."}
		}
		candidates = append(candidates, Candidate{
			SolutionID:      r.sol.ID,
			Approach:        r.sol.Approach,
			Steps:           r.sol.Steps,
			ValidationSteps: validation,
			Confidence:      r.sol.Confidence,
		})
	}

	return candidates
}

// ResolveAll resolves every record of a scan in record order.
func (e *Engine) ResolveAll(result engine.ScanResult) []Resolution {
	resolutions := make([]Resolution, 0, len(result.Records))
	for _, rec := range result.Records {
		resolutions = append(resolutions, e.Resolve(rec))
	}
	return resolutions
}
