package ranker

import "strings"

// sanitizeResponse strips the formatting the service was told not to emit but
// sometimes emits anyway: markdown code fences (language-tagged and bare) and
// a bare leading "json" word. Anything else is left for the JSON parser to
// accept or reject.
func sanitizeResponse(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}
