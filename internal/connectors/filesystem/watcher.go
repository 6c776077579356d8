package filesystem

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/caselaw/internal/logger"
)

// ChangeType describes what happened to a watched file.
type ChangeType int

// Change types.
const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a file event the loader accepts.
type Change struct {
	Type ChangeType
	Path string
}

// Watcher reports changes to case files under a set of directories.
type Watcher struct {
	loader *Loader

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher that filters events through loader.
func NewWatcher(loader *Loader) *Watcher {
	return &Watcher{loader: loader}
}

// Watch starts watching roots and their subdirectories. The channel is
// closed when ctx is cancelled or Close is called.
func (w *Watcher) Watch(ctx context.Context, roots []string) (<-chan Change, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	for _, root := range roots {
		dirs, err := w.loader.Dirs(LocalPath(root))
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
		for _, dir := range dirs {
			if err := fw.Add(dir); err != nil {
				fw.Close()
				return nil, fmt.Errorf("watch %s: %w", dir, err)
			}
		}
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	changes := make(chan Change, 64)
	go w.run(ctx, fw, changes)
	return changes, nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.followDir(fw, event)
			change := w.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// followDir adds newly created directories so nested files are seen.
func (w *Watcher) followDir(fw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	dirs, err := w.loader.Dirs(event.Name)
	if err != nil {
		return
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			logger.Warn("Watching %s: %v", dir, err)
		}
	}
}

// handleFsEvent maps an fsnotify event to a change, or nil when the event
// is not about an accepted file.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	if !w.loader.Accepts(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: event.Name}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		t := ChangeUpdated
		if event.Has(fsnotify.Create) {
			t = ChangeCreated
		}
		return &Change{Type: t, Path: event.Name}
	default:
		return nil
	}
}

// Close stops the active watch, if any.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}
