// Package watcher provides an fsnotify-based uploads directory watcher.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.DocumentWatcher = (*Watcher)(nil)

// watchedExtensions lists the file types handed to the ingestion
// pipeline. Everything else in the directory is ignored.
var watchedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Watcher emits file events from an uploads directory.
type Watcher struct {
	fw *fsnotify.Watcher
}

// New creates a directory watcher.
func New() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &Watcher{fw: fw}, nil
}

// Watch starts monitoring dir. The returned channel closes when the
// context is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan driven.FileEvent, error) {
	if err := w.fw.Add(dir); err != nil {
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	events := make(chan driven.FileEvent)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fw.Events:
				if !ok {
					return
				}
				fe, relevant := translate(ev)
				if !relevant {
					continue
				}
				select {
				case events <- fe:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error: %v", err)
			}
		}
	}()
	return events, nil
}

// translate maps an fsnotify event onto a FileEvent, filtering out
// unwatched file types and irrelevant operations.
func translate(ev fsnotify.Event) (driven.FileEvent, bool) {
	ext := strings.ToLower(filepath.Ext(ev.Name))
	if !watchedExtensions[ext] {
		return driven.FileEvent{}, false
	}

	fe := driven.FileEvent{Path: ev.Name}
	switch {
	case ev.Op.Has(fsnotify.Create):
		fe.Operation = driven.FileCreated
	case ev.Op.Has(fsnotify.Write):
		fe.Operation = driven.FileModified
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		fe.Operation = driven.FileRemoved
	default:
		return driven.FileEvent{}, false
	}
	return fe, true
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
