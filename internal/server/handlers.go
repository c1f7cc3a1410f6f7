package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dapnote/dapnote/internal/corpus"
	"github.com/dapnote/dapnote/internal/models"
	"github.com/dapnote/dapnote/internal/ranker"
	"github.com/dapnote/dapnote/internal/retrieval"
	"github.com/dapnote/dapnote/internal/storage"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := corpus.Load(r.Context(), s.source)
	if err != nil {
		s.logger.Error("corpus fetch failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "data unavailable")
		return
	}

	facet := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")
	if facet != "" || query != "" {
		entries = retrieval.Filter(entries, facet, query)
	}
	s.logger.Debug("list entries",
		zap.String("category", facet),
		zap.String("q", query),
		zap.Int("count", len(entries)),
	)
	s.respondJSON(w, http.StatusOK, models.ListResponse{Entries: entries, Total: len(entries)})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req models.RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if !s.ranker.Configured() {
		s.respondError(w, http.StatusNotImplemented, "ranking is not configured: set the ranking service credential")
		return
	}

	entries, err := corpus.Load(r.Context(), s.source)
	if err != nil {
		s.logger.Error("corpus fetch failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "data unavailable")
		return
	}

	start := time.Now()
	ranked, err := s.ranker.Rank(r.Context(), query, entries)
	elapsed := time.Since(start)
	if err != nil {
		s.handleRankError(w, r.Context(), query, err, elapsed)
		return
	}

	s.recordRank(r.Context(), &storage.RankRecord{
		Query:       query,
		Outcome:     storage.OutcomeOK,
		ReturnedIDs: joinIDs(ranked),
		DurationMs:  elapsed.Milliseconds(),
	})
	s.respondJSON(w, http.StatusOK, models.RankResponse{
		Entries:   ranked,
		Query:     query,
		QueryTime: elapsed.Milliseconds(),
	})
}

// handleRankError maps ranker failures onto the API contract: a missing
// credential gets its own distinguishable status; everything else is a
// generic upstream fault, with malformed responses additionally logged raw.
func (s *Server) handleRankError(w http.ResponseWriter, ctx context.Context, query string, err error, elapsed time.Duration) {
	reqID := requestIDFrom(ctx)

	var malformed *ranker.MalformedResponseError
	switch {
	case errors.Is(err, ranker.ErrNotConfigured):
		s.respondError(w, http.StatusNotImplemented, "ranking is not configured: set the ranking service credential")
	case errors.As(err, &malformed):
		s.logger.Error("malformed ranking response",
			zap.String("request_id", reqID),
			zap.String("query", query),
			zap.String("raw_response", malformed.Raw),
		)
		s.recordRank(ctx, &storage.RankRecord{
			Query:       query,
			Outcome:     storage.OutcomeMalformed,
			RawResponse: malformed.Raw,
			DurationMs:  elapsed.Milliseconds(),
		})
		s.respondError(w, http.StatusBadGateway, "ranking failed")
	default:
		s.logger.Error("ranking failed", zap.String("request_id", reqID), zap.Error(err))
		s.recordRank(ctx, &storage.RankRecord{
			Query:      query,
			Outcome:    storage.OutcomeUnavailable,
			DurationMs: elapsed.Milliseconds(),
		})
		s.respondError(w, http.StatusBadGateway, "ranking failed")
	}
}

func (s *Server) handleRankLog(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.respondError(w, http.StatusNotImplemented, "audit log not enabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	records, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("audit log query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recordRank persists an audit record when the log is enabled. Audit failures
// are logged, never surfaced to the client.
func (s *Server) recordRank(ctx context.Context, rec *storage.RankRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.logger.Warn("audit record failed", zap.Error(err))
	}
}

func joinIDs(entries []models.FeedbackEntry) string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = strconv.Itoa(e.ID)
	}
	return strings.Join(ids, ",")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
