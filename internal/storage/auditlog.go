// Package storage provides the SQLite-backed ranking audit log.
//
// The corpus itself is never persisted; the log records ranking requests and
// their outcomes so that malformed service responses can be diagnosed after
// the fact.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"
)

// Outcome labels for rank request records.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "service_unavailable"
	OutcomeMalformed   = "malformed_response"
)

// RankRecord is one logged ranking request.
type RankRecord struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Outcome     string    `json:"outcome"`
	ReturnedIDs string    `json:"returned_ids,omitempty"`
	RawResponse string    `json:"raw_response,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLog stores rank request records in SQLite.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog opens or creates the audit database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewAuditLog(dbPath string) (*AuditLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &AuditLog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rank_requests (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		outcome TEXT NOT NULL,
		returned_ids TEXT,
		raw_response TEXT,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rank_requests_created_at ON rank_requests(created_at);
	CREATE INDEX IF NOT EXISTS idx_rank_requests_outcome ON rank_requests(outcome);
	`
	_, err := db.Exec(schema)
	return err
}

// Record inserts a rank request record. A blank id is filled with a fresh
// UUID; CreatedAt is always set server-side.
func (l *AuditLog) Record(ctx context.Context, rec *RankRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO rank_requests (id, query, outcome, returned_ids, raw_response, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.Outcome, rec.ReturnedIDs, rec.RawResponse, rec.DurationMs, rec.CreatedAt,
	)
	return err
}

// Recent returns the most recent records, newest first.
func (l *AuditLog) Recent(ctx context.Context, limit int) ([]*RankRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, query, outcome, returned_ids, raw_response, duration_ms, created_at
		 FROM rank_requests ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*RankRecord
	for rows.Next() {
		var rec RankRecord
		var returnedIDs, rawResponse sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Outcome, &returnedIDs, &rawResponse, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ReturnedIDs = returnedIDs.String
		rec.RawResponse = rawResponse.String
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CountByOutcome returns how many records exist for the given outcome.
func (l *AuditLog) CountByOutcome(ctx context.Context, outcome string) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rank_requests WHERE outcome = ?`, outcome).Scan(&count)
	return count, err
}

// Close closes the underlying database.
func (l *AuditLog) Close() error {
	return l.db.Close()
}
