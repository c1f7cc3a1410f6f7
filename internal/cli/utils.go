// Package cli provides CLI utilities for dapnote.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dapnote/dapnote/internal/models"
	"github.com/dapnote/dapnote/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteEntries writes a corpus listing to w in the given format.
func WriteEntries(w io.Writer, response *models.ListResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	fmt.Fprintf(w, "\n%d entries\n\n", response.Total)
	for i := range response.Entries {
		writeOneEntry(w, &response.Entries[i])
	}
	return nil
}

// WriteRanked writes ranking results to w in the given format.
func WriteRanked(w io.Writer, response *models.RankResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	fmt.Fprintf(w, "\n%d relevant entries for %q in %dms\n\n",
		len(response.Entries), response.Query, response.QueryTime)
	for i := range response.Entries {
		writeOneEntry(w, &response.Entries[i])
	}
	return nil
}

func writeOneEntry(w io.Writer, e *models.FeedbackEntry) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%d] %s\n", e.ID, e.Category)
	fmt.Fprintf(w, "문제점: %s\n", e.Problem)
	if e.Solution1 != "" {
		fmt.Fprintf(w, "솔루션 (버전1): %s\n", utils.Truncate(e.Solution1, 400))
	}
	if e.Solution2 != "" {
		fmt.Fprintf(w, "솔루션 (버전2): %s\n", utils.Truncate(e.Solution2, 400))
	}
	fmt.Fprintln(w)
}
