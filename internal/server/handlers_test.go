package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dapnote/dapnote/internal/config"
	"github.com/dapnote/dapnote/internal/corpus"
	"github.com/dapnote/dapnote/internal/models"
	"github.com/dapnote/dapnote/internal/ranker"
	"github.com/dapnote/dapnote/internal/storage"
)

type fakeSource struct {
	rows []corpus.RawRow
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]corpus.RawRow, error) {
	return f.rows, f.err
}

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func testRows() []corpus.RawRow {
	return []corpus.RawRow{
		{"대분류": "Programming", "문제점": "bug report lacks steps", "솔루션 (버전1)": "add steps"},
		{"대분류": "Writing", "문제점": "결론이 묻힌다", "솔루션 (버전1)": "결론을 먼저"},
		{"대분류": "Programming", "문제점": "tests are flaky", "솔루션 (버전1)": "pin the clock"},
	}
}

func newTestServer(source corpus.Source, completer ranker.Completer, audit *storage.AuditLog) *Server {
	return NewServer(source, ranker.New(completer), audit, &config.ServerConfig{Port: 8080}, zap.NewNop())
}

func TestHandleListEntries(t *testing.T) {
	srv := newTestServer(&fakeSource{rows: testRows()}, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
	w := httptest.NewRecorder()
	srv.handleListEntries(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.ListResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 3 || len(out.Entries) != 3 {
		t.Errorf("expected 3 entries, got %+v", out)
	}
}

func TestHandleListEntries_Filtered(t *testing.T) {
	srv := newTestServer(&fakeSource{rows: testRows()}, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/entries?category=Programming&q=FLAKY", nil)
	w := httptest.NewRecorder()
	srv.handleListEntries(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.ListResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || out.Entries[0].ID != 2 {
		t.Errorf("expected the flaky-tests entry only, got %+v", out)
	}
}

func TestHandleListEntries_SourceFailure(t *testing.T) {
	srv := newTestServer(&fakeSource{err: errors.New("boom")}, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
	w := httptest.NewRecorder()
	srv.handleListEntries(w, r)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", w.Code)
	}
	var out map[string]string
	_ = json.NewDecoder(w.Body).Decode(&out)
	if out["error"] != "data unavailable" {
		t.Errorf("error message: got %q", out["error"])
	}
}

func rankRequest(t *testing.T, query string) *http.Request {
	t.Helper()
	body, err := json.Marshal(models.RankRequest{Query: query})
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/rank", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestHandleRank(t *testing.T) {
	completer := &fakeCompleter{response: "[2,0]"}
	srv := newTestServer(&fakeSource{rows: testRows()}, completer, nil)

	w := httptest.NewRecorder()
	srv.handleRank(w, rankRequest(t, "my draft"))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.RankResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Entries) != 2 || out.Entries[0].ID != 2 || out.Entries[1].ID != 0 {
		t.Errorf("expected ranked order [2 0], got %+v", out.Entries)
	}
	if completer.calls != 1 {
		t.Errorf("expected one ranking call, got %d", completer.calls)
	}
}

func TestHandleRank_BlankQuery(t *testing.T) {
	completer := &fakeCompleter{response: "[0]"}
	srv := newTestServer(&fakeSource{rows: testRows()}, completer, nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		w := httptest.NewRecorder()
		srv.handleRank(w, rankRequest(t, q))
		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: status got %d, want 400", q, w.Code)
		}
	}
	if completer.calls != 0 {
		t.Errorf("blank query must be rejected before ranking, got %d calls", completer.calls)
	}
}

func TestHandleRank_InvalidBody(t *testing.T) {
	srv := newTestServer(&fakeSource{rows: testRows()}, &fakeCompleter{}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/rank", bytes.NewReader([]byte("{не json")))
	w := httptest.NewRecorder()
	srv.handleRank(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleRank_NotConfigured(t *testing.T) {
	srv := newTestServer(&fakeSource{rows: testRows()}, nil, nil)

	w := httptest.NewRecorder()
	srv.handleRank(w, rankRequest(t, "my draft"))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleRank_ServiceFailure(t *testing.T) {
	srv := newTestServer(&fakeSource{rows: testRows()}, &fakeCompleter{err: errors.New("timeout")}, nil)

	w := httptest.NewRecorder()
	srv.handleRank(w, rankRequest(t, "my draft"))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", w.Code)
	}
}

func TestHandleRank_MalformedResponseAudited(t *testing.T) {
	audit, err := storage.NewAuditLog(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer audit.Close()

	srv := newTestServer(&fakeSource{rows: testRows()}, &fakeCompleter{response: "Sure! [1,2]"}, audit)

	w := httptest.NewRecorder()
	srv.handleRank(w, rankRequest(t, "my draft"))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", w.Code)
	}

	records, err := audit.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	if records[0].Outcome != storage.OutcomeMalformed {
		t.Errorf("outcome: got %q", records[0].Outcome)
	}
	if records[0].RawResponse != "Sure! [1,2]" {
		t.Errorf("raw response must be preserved for diagnosis, got %q", records[0].RawResponse)
	}
}

func TestHandleRankLog_NotEnabled(t *testing.T) {
	srv := newTestServer(&fakeSource{rows: testRows()}, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/rank/log", nil)
	w := httptest.NewRecorder()
	srv.handleRankLog(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&fakeSource{}, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
