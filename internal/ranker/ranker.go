// Package ranker selects the feedback entries most relevant to a free-text
// query via an external natural-language ranking service.
package ranker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dapnote/dapnote/internal/models"
	"go.uber.org/zap"
)

// MaxResults is the most entries a ranking returns.
const MaxResults = 5

const defaultTimeout = 30 * time.Second

// Completer produces a free-text response for a free-text instruction block.
// Implementations wrap the actual language-model transport.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Ranker ranks corpus entries by relevance to a query.
type Ranker struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithTimeout bounds a single ranking call. Expiry is reported as
// ErrServiceUnavailable.
func WithTimeout(d time.Duration) Option {
	return func(r *Ranker) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets a logger for diagnostics output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Ranker) { r.logger = l }
}

// New creates a Ranker on top of the given completer. A nil completer yields
// a ranker whose Rank always fails with ErrNotConfigured, so the rest of the
// service stays usable without a credential.
func New(completer Completer, opts ...Option) *Ranker {
	r := &Ranker{
		completer: completer,
		timeout:   defaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configured reports whether a ranking backend is available.
func (r *Ranker) Configured() bool {
	return r.completer != nil
}

// Rank returns up to MaxResults corpus entries ordered by descending
// relevance to query. The query must be non-blank; callers validate that
// before invoking. An empty corpus returns an empty sequence without
// contacting the service. One attempt is made per call, no retries.
func (r *Ranker) Rank(ctx context.Context, query string, corpus []models.FeedbackEntry) ([]models.FeedbackEntry, error) {
	if r.completer == nil {
		return nil, ErrNotConfigured
	}
	if len(corpus) == 0 {
		return []models.FeedbackEntry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := buildPrompt(query, corpus, MaxResults)
	raw, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.Warn("ranking call failed", zap.Error(err))
		return nil, ErrServiceUnavailable
	}

	ids, err := parseIDs(raw)
	if err != nil {
		r.logger.Warn("unparseable ranking response", zap.String("raw", raw), zap.Error(err))
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return resolve(ids, corpus), nil
}

// parseIDs sanitizes the raw response and parses it as a JSON array of
// integers. Anything else is a malformed response, never a silent guess.
func parseIDs(raw string) ([]int, error) {
	var ids []int
	if err := json.Unmarshal([]byte(sanitizeResponse(raw)), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// resolve maps returned ids back to corpus entries by exact id equality,
// preserving the returned order. Ids with no match (hallucinated or stale)
// are dropped, duplicates keep their first occurrence, and the result is
// capped at MaxResults.
func resolve(ids []int, corpus []models.FeedbackEntry) []models.FeedbackEntry {
	byID := make(map[int]models.FeedbackEntry, len(corpus))
	for _, e := range corpus {
		byID[e.ID] = e
	}
	seen := make(map[int]bool, len(ids))
	result := make([]models.FeedbackEntry, 0, MaxResults)
	for _, id := range ids {
		if len(result) == MaxResults {
			break
		}
		entry, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, entry)
	}
	return result
}
