package retrieval

import (
	"testing"

	"github.com/dapnote/dapnote/internal/models"
)

var corpus = []models.FeedbackEntry{
	{ID: 0, Category: "Programming", Problem: "bug report lacks steps", Solution1: "add reproduction steps"},
	{ID: 1, Category: "Writing", Problem: "결론이 묻힌다", Solution1: "결론을 먼저 써라", Solution2: "두괄식으로"},
	{ID: 2, Category: "Programming", Problem: "tests are flaky", Solution1: "pin the clock"},
}

func TestDisplayList_HeldAIResultWinsVerbatim(t *testing.T) {
	state := ViewState{
		Facet:     "Writing",
		Query:     "flaky",
		AIEngaged: true,
		AIResult:  []models.FeedbackEntry{corpus[2], corpus[0]},
	}
	got := DisplayList(state, corpus)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 0 {
		t.Errorf("held AI result must be returned verbatim, filters not reapplied: %+v", got)
	}
}

func TestDisplayList_EmptyHeldResultStillWins(t *testing.T) {
	state := ViewState{
		Facet:     "Programming",
		AIEngaged: true,
		AIResult:  []models.FeedbackEntry{},
	}
	got := DisplayList(state, corpus)
	if len(got) != 0 {
		t.Errorf("legitimate empty AI result must override the plain filter, got %+v", got)
	}
}

func TestDisplayList_PlainPathWhenNotEngaged(t *testing.T) {
	state := ViewState{Facet: AllCategories}
	got := DisplayList(state, corpus)
	if len(got) != len(corpus) {
		t.Errorf("expected full corpus, got %d entries", len(got))
	}
}

func TestFilter_Facet(t *testing.T) {
	got := Filter(corpus, "Programming", "")
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 2 {
		t.Errorf("facet filter: %+v", got)
	}
	if got := Filter(corpus, AllCategories, ""); len(got) != 3 {
		t.Errorf("All facet must not restrict, got %d", len(got))
	}
	if got := Filter(corpus, "", ""); len(got) != 3 {
		t.Errorf("empty facet must not restrict, got %d", len(got))
	}
}

func TestFilter_SubstringCaseInsensitive(t *testing.T) {
	got := Filter(corpus, AllCategories, "BUG")
	if len(got) != 1 || got[0].ID != 0 {
		t.Errorf("query BUG must match 'bug report': %+v", got)
	}
}

func TestFilter_MatchesAllTextFields(t *testing.T) {
	tests := []struct {
		query  string
		wantID int
	}{
		{"reproduction", 0}, // solution1
		{"두괄식", 1},          // solution2
		{"writing", 1},      // category
		{"flaky", 2},        // problem
	}
	for _, tt := range tests {
		got := Filter(corpus, AllCategories, tt.query)
		if len(got) != 1 || got[0].ID != tt.wantID {
			t.Errorf("query %q: got %+v, want single entry %d", tt.query, got, tt.wantID)
		}
	}
}

func TestFilter_FacetAndQueryCombine(t *testing.T) {
	got := Filter(corpus, "Programming", "결론")
	if len(got) != 0 {
		t.Errorf("both conditions must hold, got %+v", got)
	}
}
