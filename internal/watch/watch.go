// Package watch runs an inbox watcher: documents dropped into a directory
// are handed to a handler once writes to them settle.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/vellum/internal/convert"
)

// DefaultSettle is the quiet period after the last write before a file
// is considered complete.
const DefaultSettle = 2 * time.Second

// Handler processes one settled file. Errors are the handler's to report;
// the watcher keeps running either way.
type Handler func(ctx context.Context, path string)

// Config configures a Watcher.
type Config struct {
	// Dir is the inbox directory. It must exist.
	Dir string
	// Settle is the quiet period before a file is handed off (default 2s).
	Settle time.Duration
	// Handler receives each settled file path.
	Handler Handler
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher watches an inbox directory for supported documents.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
}

// New creates a watcher for cfg.Dir.
func New(cfg Config) (*Watcher, error) {
	if cfg.Handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: inbox dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", cfg.Dir)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Watcher{
		dir:     cfg.Dir,
		settle:  cfg.Settle,
		handler: cfg.Handler,
		logger:  cfg.Logger,
		pending: make(map[string]*time.Timer),
		ready:   make(chan string, 16),
	}, nil
}

// Run watches the inbox until the context is cancelled. Files are handled
// one at a time in arrival order.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.dir, err)
	}

	w.logger.Info("watching inbox", "dir", w.dir, "settle", w.settle)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.schedule(event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case path := <-w.ready:
			w.logger.Info("processing inbox file", "path", path)
			w.handler(ctx, path)
		}
	}
}

// schedule arms (or re-arms) the settle timer for path. Unsupported and
// hidden files are ignored.
func (w *Watcher) schedule(path string) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return
	}
	if !convert.IsSupported(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		w.ready <- path
	})
}

// cancelPending stops all armed settle timers.
func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
