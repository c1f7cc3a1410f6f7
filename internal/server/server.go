// Package server provides the HTTP API for dapnote.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dapnote/dapnote/internal/config"
	"github.com/dapnote/dapnote/internal/corpus"
	"github.com/dapnote/dapnote/internal/ranker"
	"github.com/dapnote/dapnote/internal/storage"
)

// Server is the HTTP server for the dapnote API.
type Server struct {
	source corpus.Source
	ranker *ranker.Ranker
	audit  *storage.AuditLog
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies. audit may be nil
// when the audit log is disabled.
func NewServer(
	source corpus.Source,
	rk *ranker.Ranker,
	audit *storage.AuditLog,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		source: source,
		ranker: rk,
		audit:  audit,
		config: cfg,
		logger: logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/entries", s.handleListEntries)
	r.Post("/api/v1/rank", s.handleRank)
	r.Get("/api/v1/rank/log", s.handleRankLog)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type contextKey string

const requestIDKey contextKey = "request_id"

// requestID tags every request with a UUID, echoed in the X-Request-ID header
// and attached to handler logs.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
