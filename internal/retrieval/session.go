package retrieval

import (
	"errors"
	"sync"

	"github.com/dapnote/dapnote/internal/models"
)

// ErrRankingInFlight is returned by Begin while a prior ranking call has not
// resolved yet. Re-triggering is gated rather than queued.
var ErrRankingInFlight = errors.New("a ranking request is already in flight")

// Session holds the mutable retrieval state of one user session: facet,
// query, the held AI result, and the single-flight ranking guard.
//
// The external ranking call cannot be cancelled mid-flight, so supersession
// is handled by generation instead: Begin issues a monotonically increasing
// sequence token, and only a completion carrying the latest token may commit.
// Any state change that clears the held result also advances the sequence, so
// an in-flight call that was overtaken finishes without effect.
type Session struct {
	mu      sync.Mutex
	seq     uint64
	loading bool
	engaged bool
	result  []models.FeedbackEntry
	facet   string
	query   string
}

// NewSession creates a session with the facet set to AllCategories.
func NewSession() *Session {
	return &Session{facet: AllCategories}
}

// Begin starts a ranking attempt. It clears any previously held result
// immediately, so a stale result is never shown while the new call runs, and
// returns the sequence token the completion must present to Commit or Fail.
// Fails with ErrRankingInFlight while a prior attempt is unresolved.
func (s *Session) Begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return 0, ErrRankingInFlight
	}
	s.seq++
	s.loading = true
	s.engaged = false
	s.result = nil
	return s.seq, nil
}

// Commit installs entries as the held result, including an empty sequence.
// It reports whether the commit was applied; a completion with a superseded
// token is discarded.
func (s *Session) Commit(seq uint64, entries []models.FeedbackEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || !s.loading {
		return false
	}
	s.loading = false
	s.engaged = true
	s.result = entries
	return true
}

// Fail resolves a ranking attempt without a result. The held result stays
// cleared, never partially populated.
func (s *Session) Fail(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return
	}
	s.loading = false
}

// Dismiss drops the held AI result, falling back to the plain filter path.
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// SetFacet selects a category facet. Selecting a facet always drops the held
// AI result.
func (s *Session) SetFacet(facet string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if facet == "" {
		facet = AllCategories
	}
	s.facet = facet
	s.clearLocked()
}

// SetQuery updates the substring filter text. Clearing the text drops the
// held AI result.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	if query == "" {
		s.clearLocked()
	}
}

// clearLocked drops the held result and invalidates any in-flight call by
// advancing the sequence past its token.
func (s *Session) clearLocked() {
	s.engaged = false
	s.result = nil
	s.loading = false
	s.seq++
}

// Snapshot returns the current state as an immutable value for DisplayList.
func (s *Session) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ViewState{
		Facet:     s.facet,
		Query:     s.query,
		AIEngaged: s.engaged,
		AIResult:  s.result,
		Loading:   s.loading,
	}
}
