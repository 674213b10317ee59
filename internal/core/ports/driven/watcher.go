package driven

import "context"

// FileOperation classifies a watched file event.
type FileOperation int

// Watched file operations.
const (
	FileCreated FileOperation = iota
	FileModified
	FileRemoved
)

// FileEvent is one change in a watched uploads directory.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// DocumentWatcher monitors an uploads directory and emits file events
// for the ingestion pipeline to act on.
type DocumentWatcher interface {
	// Watch starts monitoring dir. The returned channel closes when the
	// context is cancelled or the watcher is closed.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Close stops the watcher.
	Close() error
}
