package corpus

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dapnote/dapnote/internal/models"
)

// Source yields the raw rows of the feedback sheet. Implementations decide
// how the bytes are obtained; callers get a fresh row sequence per call.
type Source interface {
	Fetch(ctx context.Context) ([]RawRow, error)
}

// Load fetches from src and normalizes the result. Every call produces a new,
// independent entry sequence; nothing is cached at this layer.
func Load(ctx context.Context, src Source) ([]models.FeedbackEntry, error) {
	rows, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(rows), nil
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPSource fetches the published sheet over HTTP on every call. The source
// offers no caching guarantees, so none are assumed: no ETag negotiation, no
// conditional requests.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for the given URL. A non-positive timeout
// defaults to 30 seconds.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and decodes the sheet. The payload is decoded as xlsx when
// the response content type or the URL extension says so, as CSV otherwise.
func (s *HTTPSource) Fetch(ctx context.Context) ([]RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch source: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read source body: %w", err)
	}
	if isXLSX(resp.Header.Get("Content-Type"), s.url) {
		return ParseXLSX(data)
	}
	return ParseCSV(data)
}

func isXLSX(contentType, url string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == xlsxContentType {
		return true
	}
	return strings.HasSuffix(strings.ToLower(url), ".xlsx")
}
