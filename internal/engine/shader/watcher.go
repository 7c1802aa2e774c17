package shader

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/logger"
)

// Watcher reports shader source files that changed on disk. The fsnotify
// goroutine only forwards paths; Poll drains them on the render thread.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changed chan string
	done    chan struct{}
}

// NewWatcher watches the directories containing paths.
func NewWatcher(paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fsw:     fsw,
		changed: make(chan string, 64),
		done:    make(chan struct{}),
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	go w.loop()
	return w, nil
}

// Add watches the directory of path. Editors replace files on save, so the
// directory is watched rather than the file.
func (w *Watcher) Add(path string) error {
	dir := filepath.Dir(path)
	for _, existing := range w.fsw.WatchList() {
		if existing == dir {
			return nil
		}
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changed <- filepath.Clean(ev.Name):
			default:
				// render thread is behind, drop
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("shader watcher error", zap.Error(err))
		}
	}
}

// Poll returns the distinct paths changed since the last call. Never blocks.
func (w *Watcher) Poll() []string {
	var out []string
	seen := make(map[string]bool)
	for {
		select {
		case p := <-w.changed:
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		default:
			return out
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
