// Package retrieval composes the plain facet+substring filter and the held AI
// ranking result into a single display list under a fixed precedence rule.
package retrieval

import (
	"github.com/dapnote/dapnote/internal/models"
	"github.com/dapnote/dapnote/pkg/utils"
)

// AllCategories is the facet value meaning "no category restriction".
const AllCategories = "All"

// ViewState is an explicit snapshot of the retrieval state for one render or
// request. Display lists are always computed from a value like this; there is
// no implicit shared state.
type ViewState struct {
	// Facet is the single-select category filter, AllCategories or one
	// literal category value.
	Facet string
	// Query is the plain substring filter text.
	Query string
	// AIEngaged is true while a ranking result is held, even an empty one.
	// An empty held result is a legitimate "no relevant matches" outcome,
	// distinct from "AI not engaged".
	AIEngaged bool
	// AIResult is the held ranking output, valid when AIEngaged.
	AIResult []models.FeedbackEntry
	// Loading is true while a ranking call is in flight.
	Loading bool
}

// DisplayList resolves the precedence rule: a held AI result is the display
// list verbatim, with facet and query deliberately not reapplied to it;
// otherwise the corpus is filtered by facet and case-insensitive substring.
// Exactly one branch applies.
func DisplayList(state ViewState, corpus []models.FeedbackEntry) []models.FeedbackEntry {
	if state.AIEngaged {
		return state.AIResult
	}
	return Filter(corpus, state.Facet, state.Query)
}

// Filter applies the plain path: facet must be AllCategories or equal the
// entry's category, and the query (when non-blank) must be a
// case-insensitive substring of the problem, either solution, or the
// category.
func Filter(corpus []models.FeedbackEntry, facet, query string) []models.FeedbackEntry {
	out := make([]models.FeedbackEntry, 0, len(corpus))
	for _, e := range corpus {
		if matches(&e, facet, query) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e *models.FeedbackEntry, facet, query string) bool {
	if facet != "" && facet != AllCategories && e.Category != facet {
		return false
	}
	if query == "" {
		return true
	}
	return utils.ContainsFold(e.Problem, query) ||
		utils.ContainsFold(e.Solution1, query) ||
		(e.Solution2 != "" && utils.ContainsFold(e.Solution2, query)) ||
		utils.ContainsFold(e.Category, query)
}
