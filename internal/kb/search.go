package kb

import (
	"sort"
	"strings"
	"unicode"
)

// Query narrows a catalog search. Text is free-form; Category and Language
// are hard filters when set.
type Query struct {
	Text     string
	Category string
	Language string
}

// Match is one scored search hit.
type Match struct {
	Pattern Pattern `json:"pattern"`
	Score   float64 `json:"score"`
}

// Search scores patterns against the query. Scoring is plain token overlap
// on title and keywords, plus small bonuses for category and exact-language
// hits, so identical inputs always produce identical rankings.
func (c *Catalog) Search(q Query) []Match {
	tokens := tokenize(q.Text)
	matches := make([]Match, 0)

	for _, p := range c.Patterns() {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Language != "" && !patternMatchesLanguage(p, q.Language) {
			continue
		}

		score := scorePattern(p, tokens, q.Language)
		if len(tokens) > 0 && score == 0 {
			continue
		}
		matches = append(matches, Match{Pattern: p, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Pattern.ID < matches[j].Pattern.ID
	})

	return matches
}

// scorePattern: +2 per query token in the title, +1 per token in keywords,
// +1 for a token naming the category, +0.5 when the pattern names the
// requested language exactly (so "any" ranks below a specific grammar).
func scorePattern(p Pattern, tokens []string, language string) float64 {
	titleTokens := make(map[string]bool)
	for _, t := range tokenize(p.Title) {
		titleTokens[t] = true
	}
	keywords := make(map[string]bool)
	for _, k := range p.Keywords {
		keywords[strings.ToLower(k)] = true
	}

	var score float64
	for _, t := range tokens {
		switch {
		case titleTokens[t]:
			score += 2
		case keywords[t]:
			score += 1
		}
		if t == p.Category {
			score += 1
		}
	}

	if language != "" {
		for _, l := range p.Languages {
			if l == language {
				score += 0.5
				break
			}
		}
	}

	return score
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
