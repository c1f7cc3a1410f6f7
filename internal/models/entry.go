// Package models defines core data structures for feedback entries, ranking
// requests, and listing responses.
package models

// FeedbackEntry is one row of the feedback corpus after normalization.
//
// ID is the row's ordinal position in the raw source sequence, assigned fresh
// on every fetch. Ids may have gaps relative to the normalized output because
// invalid rows are dropped without compacting, and they are not stable across
// separate fetches of the source.
type FeedbackEntry struct {
	ID        int    `json:"id"`
	Category  string `json:"category"`
	Problem   string `json:"problem"`
	Solution1 string `json:"solution1"`
	Solution2 string `json:"solution2,omitempty"`
}

// HasSolution reports whether the entry carries at least one solution version.
func (e *FeedbackEntry) HasSolution() bool {
	return e.Solution1 != "" || e.Solution2 != ""
}

// ListResponse is the response for a corpus listing request.
type ListResponse struct {
	Entries []FeedbackEntry `json:"entries"`
	Total   int             `json:"total"`
}

// RankRequest is the body of a ranking request.
type RankRequest struct {
	Query string `json:"query"`
}

// RankResponse is the response for a ranking request. Entries are ordered by
// descending relevance, at most five of them.
type RankResponse struct {
	Entries   []FeedbackEntry `json:"entries"`
	Query     string          `json:"query"`
	QueryTime int64           `json:"query_time_ms"`
}
