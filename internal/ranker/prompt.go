package ranker

import (
	"fmt"
	"strings"

	"github.com/dapnote/dapnote/internal/models"
)

const promptHeader = `You are ranking feedback entries by relevance to a draft text.

Draft text:
%s

Feedback entries (one per line, "id: problem statement"):
%s

Select the %d entries whose problem statement is most relevant to the draft
text, ordered from most to least relevant. Respond with a single JSON array of
the selected integer ids, nothing else: no explanation, no markdown fencing,
no surrounding text. Example response: [4, 0, 12]`

// buildPrompt renders the ranking instruction block. Only id and problem are
// sent; solution text is withheld to keep the payload small, relevance is
// judged on problem statements alone.
func buildPrompt(query string, corpus []models.FeedbackEntry, limit int) string {
	var lines strings.Builder
	for i := range corpus {
		fmt.Fprintf(&lines, "%d: %s\n", corpus[i].ID, corpus[i].Problem)
	}
	return fmt.Sprintf(promptHeader, query, strings.TrimRight(lines.String(), "\n"), limit)
}
