// Package watcher keeps the vector index in step with a directory of documents.
// Supported files that appear or change are indexed under their base name and
// files that disappear are removed from the index.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// DefaultDebounce is how long a path must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// ErrMissingDocumentService is returned when no document service is provided.
var ErrMissingDocumentService = errors.New("watcher: document service is required")

type action int

const (
	actionIndex action = iota
	actionDelete
)

func (a action) String() string {
	if a == actionDelete {
		return "delete"
	}
	return "index"
}

// Watcher indexes documents in a directory as they change.
type Watcher struct {
	documents driving.DocumentService
	dir       string
	debounce  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup

	// onApplied is called after each processed path. Used by tests.
	onApplied func(path string, a action, err error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for dir.
func New(documents driving.DocumentService, dir string, opts ...Option) (*Watcher, error) {
	if documents == nil {
		return nil, ErrMissingDocumentService
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	w := &Watcher{
		documents: documents,
		dir:       dir,
		debounce:  DefaultDebounce,
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Sync indexes every supported file already in the directory.
// It returns the number of files indexed; failures are logged and skipped.
func (w *Watcher) Sync(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", w.dir, err)
	}

	indexed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || !Watched(path) {
			continue
		}
		if err := w.index(ctx, path); err != nil {
			logger.Warn("Initial index of %s failed: %v", entry.Name(), err)
			continue
		}
		indexed++
	}
	return indexed, nil
}

// Run watches the directory until ctx is cancelled. Pending debounced
// work is dropped on shutdown; work already running is waited for.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.stop()
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.stop()
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// Watched reports whether path is a document the watcher tracks.
// Hidden files and editor temporaries are ignored.
func Watched(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	return domain.IsSupportedExtension(filepath.Ext(base))
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !Watched(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.schedule(ctx, event.Name, actionDelete)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name, actionIndex)
	}
}

// schedule debounces path: only the last action within the window runs.
func (w *Watcher) schedule(ctx context.Context, path string, a action) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		w.apply(ctx, path, a)
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) apply(ctx context.Context, path string, a action) {
	if ctx.Err() != nil {
		return
	}

	var err error
	switch a {
	case actionIndex:
		err = w.index(ctx, path)
	case actionDelete:
		name := filepath.Base(path)
		err = w.documents.Delete(ctx, name)
		if err == nil {
			logger.Info("Removed %s from the index", name)
		}
	}
	if err != nil {
		logger.Warn("Watcher %s %s: %v", a, filepath.Base(path), err)
	}

	if w.onApplied != nil {
		w.onApplied(path, a, err)
	}
}

// index replaces any chunks stored for the file with freshly chunked content.
func (w *Watcher) index(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	if err := w.documents.Delete(ctx, name); err != nil {
		logger.Debug("No previous chunks removed for %s: %v", name, err)
	}

	count, err := w.documents.Ingest(ctx, &domain.RawDocument{
		Name:    name,
		Type:    domain.ExtensionToType(filepath.Ext(name)),
		Content: content,
	})
	if err != nil {
		return err
	}
	logger.Info("Indexed %s from %s: %d chunks", name, w.dir, count)
	return nil
}
