package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSource reads the sheet from a local file, for development and tests.
// Parsed rows are cached and invalidated by fsnotify change events, so Fetch
// stays cheap under per-keystroke listing calls. The remote HTTPSource never
// caches; the no-caching rule binds the published sheet only.
type FileSource struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu     sync.Mutex
	rows   []RawRow
	loaded bool
	done   chan struct{}
	once   sync.Once
}

// NewFileSource creates a file-backed source for path.
// Call Start to enable change invalidation; without it every Fetch re-reads.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start begins watching the file's directory for changes. It runs until ctx
// is cancelled or Stop is called. Watching the directory rather than the file
// survives editors that replace the file on save.
func (s *FileSource) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return err
	}
	s.watcher = watcher
	go s.run(ctx)
	return nil
}

func (s *FileSource) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.logger.Debug("source file changed", zap.String("path", s.path), zap.String("op", ev.Op.String()))
				s.invalidate()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				s.logger.Debug("source watch error", zap.Error(err))
			}
		}
	}
}

// Stop stops watching. Safe to call more than once.
func (s *FileSource) Stop() {
	s.once.Do(func() {
		close(s.done)
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
	})
}

func (s *FileSource) invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.rows = nil
	s.mu.Unlock()
}

// Fetch returns the file's rows, re-reading only when the cache was
// invalidated (or watching is disabled).
func (s *FileSource) Fetch(ctx context.Context) ([]RawRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && s.watcher != nil {
		return s.rows, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	var rows []RawRow
	if strings.HasSuffix(strings.ToLower(s.path), ".xlsx") {
		rows, err = ParseXLSX(data)
	} else {
		rows, err = ParseCSV(data)
	}
	if err != nil {
		return nil, err
	}
	s.rows = rows
	s.loaded = true
	return rows, nil
}
