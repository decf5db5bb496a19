// Package kb holds the knowledge base of error patterns, solutions, and
// best practices backing resolution and prevention.
package kb

import (
	"sort"
)

// LanguageAny marks a pattern or solution as language independent.
const LanguageAny = "any"

// Pattern describes a recognizable class of source defects.
type Pattern struct {
	ID          string   `json:"id" yaml:"id" toml:"id"`
	Title       string   `json:"title" yaml:"title" toml:"title"`
	Category    string   `json:"category" yaml:"category" toml:"category"`
	Languages   []string `json:"languages" yaml:"languages" toml:"languages"`
	Keywords    []string `json:"keywords" yaml:"keywords" toml:"keywords"`
	Description string   `json:"description,omitempty" yaml:"description" toml:"description"`
}

// Solution is a remediation recipe linked to a pattern.
type Solution struct {
	ID              string   `json:"id" yaml:"id" toml:"id"`
	PatternID       string   `json:"patternId" yaml:"patternId" toml:"patternId"`
	Approach        string   `json:"approach" yaml:"approach" toml:"approach"`
	Steps           []string `json:"steps" yaml:"steps" toml:"steps"`
	ValidationSteps []string `json:"validationSteps" yaml:"validationSteps" toml:"validationSteps"`
	Confidence      float64  `json:"confidence" yaml:"confidence" toml:"confidence"`
	Languages       []string `json:"languages" yaml:"languages" toml:"languages"`
}

// MatchesLanguage reports whether the solution covers the given language.
// An empty solution language set means "any".
func (s Solution) MatchesLanguage(lang string) bool {
	if len(s.Languages) == 0 {
		return true
	}
	for _, l := range s.Languages {
		if l == LanguageAny {
			return true
		}
		if lang != "" && l == lang {
			return true
		}
	}
	return false
}

// LanguageSpecific reports whether the solution names the exact language.
func (s Solution) LanguageSpecific(lang string) bool {
	if lang == "" {
		return false
	}
	for _, l := range s.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// BestPractice is a preventive habit tied to a category.
type BestPractice struct {
	ID        string   `json:"id" yaml:"id" toml:"id"`
	Category  string   `json:"category" yaml:"category" toml:"category"`
	Title     string   `json:"title" yaml:"title" toml:"title"`
	Rationale string   `json:"rationale" yaml:"rationale" toml:"rationale"`
	Languages []string `json:"languages,omitempty" yaml:"languages" toml:"languages"`
}

// Catalog is the merged knowledge base. Immutable once loading is done.
type Catalog struct {
	patterns  map[string]Pattern
	solutions map[string]Solution
	practices map[string]BestPractice
}

func newCatalog() *Catalog {
	return &Catalog{
		patterns:  make(map[string]Pattern),
		solutions: make(map[string]Solution),
		practices: make(map[string]BestPractice),
	}
}

// Pattern returns the pattern with the given ID.
func (c *Catalog) Pattern(id string) (Pattern, bool) {
	p, ok := c.patterns[id]
	return p, ok
}

// Solution returns the solution with the given ID.
func (c *Catalog) Solution(id string) (Solution, bool) {
	s, ok := c.solutions[id]
	return s, ok
}

// Practice returns the best practice with the given ID.
func (c *Catalog) Practice(id string) (BestPractice, bool) {
	p, ok := c.practices[id]
	return p, ok
}

// Patterns returns all patterns sorted by ID.
func (c *Catalog) Patterns() []Pattern {
	out := make([]Pattern, 0, len(c.patterns))
	for _, p := range c.patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Solutions returns all solutions sorted by ID.
func (c *Catalog) Solutions() []Solution {
	out := make([]Solution, 0, len(c.solutions))
	for _, s := range c.solutions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Practices returns all best practices sorted by ID.
func (c *Catalog) Practices() []BestPractice {
	out := make([]BestPractice, 0, len(c.practices))
	for _, p := range c.practices {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PatternsFor filters patterns by category and optional language.
func (c *Catalog) PatternsFor(category, language string) []Pattern {
	out := make([]Pattern, 0)
	for _, p := range c.Patterns() {
		if category != "" && p.Category != category {
			continue
		}
		if language != "" && !patternMatchesLanguage(p, language) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SolutionsFor returns the solutions linked to a pattern, sorted by ID.
func (c *Catalog) SolutionsFor(patternID string) []Solution {
	out := make([]Solution, 0)
	for _, s := range c.Solutions() {
		if s.PatternID == patternID {
			out = append(out, s)
		}
	}
	return out
}

// PracticesFor returns the best practices for a category, sorted by ID.
func (c *Catalog) PracticesFor(category string) []BestPractice {
	out := make([]BestPractice, 0)
	for _, p := range c.Practices() {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func patternMatchesLanguage(p Pattern, lang string) bool {
	if len(p.Languages) == 0 {
		return true
	}
	for _, l := range p.Languages {
		if l == LanguageAny || l == lang {
			return true
		}
	}
	return false
}
