package prevention

import (
	"testing"

	"triage/internal/kb"
)

func TestForKnownCategories(t *testing.T) {
	a := New()

	for _, category := range a.Categories() {
		strategies := a.For(category)
		if len(strategies) == 0 {
			t.Errorf("category %s has no strategies", category)
		}
		for _, s := range strategies {
			if s.Title == "" || s.Rationale == "" {
				t.Errorf("category %s: strategy missing title or rationale: %+v", category, s)
			}
		}
	}
}

func TestForUnknownCategory(t *testing.T) {
	a := New()

	got := a.For("no-such-category")
	if got == nil {
		t.Fatal("unknown category must yield empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("got %d strategies for unknown category", len(got))
	}
}

func TestCategoriesSorted(t *testing.T) {
	a := New()

	categories := a.Categories()
	if len(categories) == 0 {
		t.Fatal("no categories")
	}
	for i := 1; i < len(categories); i++ {
		if categories[i] < categories[i-1] {
			t.Errorf("categories not sorted: %v", categories)
		}
	}
}

func TestWithCatalogAppendsPractices(t *testing.T) {
	plain := New()
	enriched := plain.WithCatalog(kb.Builtin())

	base := plain.For("configuration")
	full := enriched.For("configuration")

	if len(full) <= len(base) {
		t.Errorf("catalog should add practices: base %d, enriched %d", len(base), len(full))
	}

	// Static entries keep their position in front.
	for i := range base {
		if full[i].Title != base[i].Title {
			t.Errorf("static entry %d moved: %q vs %q", i, full[i].Title, base[i].Title)
		}
	}

	seen := make(map[string]bool)
	for _, s := range full {
		if seen[s.Title] {
			t.Errorf("duplicate title %q", s.Title)
		}
		seen[s.Title] = true
	}
}
