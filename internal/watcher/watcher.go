// Package watcher hot-reloads the FAQ corpus when its file changes on
// disk, complementing the explicit reload endpoint.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher monitors a single corpus file and invokes the reload
// callback after writes settle. Editors and atomic-save tools emit
// bursts of events, so reloads are debounced.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	debounce time.Duration
	reload   func(ctx context.Context)
	logger   *slog.Logger
}

// New creates a Watcher for the given file path.
func New(path string, reload func(ctx context.Context), logger *slog.Logger) (*Watcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("watcher: path must not be empty")
	}
	if reload == nil {
		return nil, errors.New("watcher: reload callback must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		reload:   reload,
		logger:   logger,
	}, nil
}

// Run watches the file's directory until the context is cancelled.
// The directory is watched rather than the file itself so replace-style
// saves (write temp, rename over) keep working.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-pending:
			w.logger.Info("faq file changed, reloading", "path", w.path)
			w.reload(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "path", w.path, "err", err)
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
