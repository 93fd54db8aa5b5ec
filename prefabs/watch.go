package prefabs

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/milk9111/lurker/internal/log"
)

// Debounce is the quiet period per file before a change is reported again.
const Debounce = 100 * time.Millisecond

// Watcher reports level and hook script changes on Events. Editors write
// files in bursts, so repeated events for one file inside Debounce are
// folded.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		logger:  log.With("component", "prefabs.watch"),
	}
	go watcher.run()
	return watcher, nil
}

// DefaultWatchDirs returns the override directories that exist under
// DiskRoot, plus the directory of an explicit level path.
func DefaultWatchDirs(level string) []string {
	var dirs []string
	if isExplicitPath(level) {
		dirs = append(dirs, filepath.Dir(level))
	}
	for _, sub := range []string{"levels", "scripts"} {
		dir := filepath.Join(DiskRoot, sub)
		if isDir(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// Changed drains pending events without blocking and reports whether any
// arrived.
func (w *Watcher) Changed() (bool, []string) {
	var names []string
	for {
		select {
		case name := <-w.Events:
			names = append(names, name)
		default:
			return len(names) > 0, names
		}
	}
}

// Wait blocks until a change arrives or ctx is done.
func (w *Watcher) Wait(ctx context.Context) (string, error) {
	select {
	case name := <-w.Events:
		return name, nil
	case err := <-w.Errors:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *Watcher) run() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isSpecFile(event.Name) && !isScriptFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < Debounce {
				continue
			}
			last[event.Name] = now
			w.logger.Debug("changed", "file", event.Name, "op", event.Op.String())
			select {
			case w.Events <- event.Name:
			case <-w.closeCh:
				return
			default:
				w.logger.Warn("change dropped, reader is behind", "file", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tengo"
}
