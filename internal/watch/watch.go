// Package watch reloads the browser when the repository changes on disk.
package watch

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitk-graph/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

// Watcher calls a function once a burst of filesystem events under the
// repository has settled.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	logger   *slog.Logger
	done     chan struct{}
}

type Option func(*Watcher)

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Start watches root (its .git directory when there is one) and calls
// onChange, debounced by delay, for every write, create, remove or rename.
func Start(root string, delay time.Duration, onChange func(), opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: no change handler")
	}
	w := &Watcher{logger: slog.Default(), done: make(chan struct{})}
	for _, opt := range opts {
		opt(w)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for path := range watchPaths(root) {
		w.logger.Debug("adding path to FS watcher", slog.String("path", path))
		if err := fw.Add(path); err != nil {
			err := errors.Join(err, fw.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w.watcher = fw
	w.debounce = debounce.New(delay, onChange)
	go w.loop(fw)
	return w, nil
}

// Close stops watching and drops any pending callback. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	w.debounce.Stop()
	err := w.watcher.Close()
	w.watcher = nil
	<-w.done
	return err
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			w.logger.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.debounce.Trigger()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func watchPaths(root string) iter.Seq[string] {
	uniquePaths := map[string]struct{}{}
	if root == "" {
		return maps.Keys(uniquePaths)
	}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		uniquePaths[gitDir] = struct{}{}
		return maps.Keys(uniquePaths)
	}
	uniquePaths[root] = struct{}{}
	return maps.Keys(uniquePaths)
}

// Lock files churn on every git command, including read-only ones.
func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
