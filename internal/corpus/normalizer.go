package corpus

import (
	"strings"

	"github.com/dapnote/dapnote/internal/models"
)

// Source column labels, exactly as they appear in the sheet header.
const (
	colCategory     = "대분류"
	colProblem      = "문제점"
	colSolution1    = "솔루션 (버전1)"
	colSolution1Alt = "솔루션"
	colSolution2    = "솔루션 (버전2)"
)

// DefaultCategory is assigned when the category cell is absent or blank.
const DefaultCategory = "기타"

// Normalize converts raw rows into validated feedback entries.
//
// Each entry's ID is the row's ordinal index in the raw sequence, so ids keep
// gaps where invalid rows were dropped. Rows failing the entry invariant are
// silently discarded; a human-maintained sheet is expected to contain noise.
// The transformation is pure and never fails.
func Normalize(rows []RawRow) []models.FeedbackEntry {
	entries := make([]models.FeedbackEntry, 0, len(rows))
	for i, row := range rows {
		entry := models.FeedbackEntry{
			ID:        i,
			Category:  cell(row, colCategory),
			Problem:   cell(row, colProblem),
			Solution1: cell(row, colSolution1),
			Solution2: cell(row, colSolution2),
		}
		if entry.Solution1 == "" {
			entry.Solution1 = cell(row, colSolution1Alt)
		}
		if entry.Category == "" {
			entry.Category = DefaultCategory
		}
		if !validEntry(&entry) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// validEntry is the single drop predicate: an entry must state a problem and
// carry at least one solution version.
func validEntry(e *models.FeedbackEntry) bool {
	return e.Problem != "" && e.HasSolution()
}

func cell(row RawRow, label string) string {
	return strings.TrimSpace(row[label])
}
