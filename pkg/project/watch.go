package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gdexport/gdexport/pkg/logger"
	"github.com/gdexport/gdexport/pkg/types"
)

// ChangeCallback receives the reloaded project, or the error that prevented loading it
type ChangeCallback func(*types.Project, error)

// Watcher reloads a project file whenever it changes on disk
type Watcher struct {
	path           string
	logger         logger.Logger
	callback       ChangeCallback
	watcher        *fsnotify.Watcher
	lastModTime    time.Time
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	mu             sync.Mutex
	cancel         context.CancelFunc
	done           chan struct{}
}

// NewWatcher creates a watcher calling callback after every change of the project at path
func NewWatcher(path string, callback ChangeCallback, log logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Watcher{
		path:           path,
		logger:         log,
		callback:       callback,
		debouncePeriod: 500 * time.Millisecond,
	}
}

// SetDebouncePeriod sets how long the file must stay quiet before it is reloaded
func (w *Watcher) SetDebouncePeriod(period time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debouncePeriod = period
}

// Start begins watching. The directory of the project is watched so that editors
// replacing the file atomically are noticed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return fmt.Errorf("already watching %s", w.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch project directory: %w", err)
	}
	if stat, err := os.Stat(w.path); err == nil {
		w.lastModTime = stat.ModTime()
	}

	ctx, cancel := context.WithCancel(ctx)
	w.watcher = watcher
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(ctx, watcher, w.done)

	w.logger.Debug("Watching project file", logger.WithField("path", w.path))
	return nil
}

// Stop stops watching and waits for the watch loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.watcher == nil {
		w.mu.Unlock()
		return nil
	}
	w.cancel()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	err := w.watcher.Close()
	done := w.done
	w.watcher = nil
	w.mu.Unlock()

	<-done
	return err
}

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Project watcher panic recovered", logger.WithField("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !w.isProjectEvent(event.Name) {
				continue
			}
			w.logger.Debug("Project file event", logger.WithField("event", event.String()))
			w.debounce(event.Op&fsnotify.Remove == fsnotify.Remove)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Project watcher error", logger.WithField("error", err))
		}
	}
}

func (w *Watcher) isProjectEvent(eventPath string) bool {
	name := filepath.Base(w.path)
	eventName := filepath.Base(eventPath)
	return eventName == name || (strings.HasPrefix(eventName, name) && strings.HasSuffix(eventName, ".tmp"))
}

func (w *Watcher) debounce(removed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		w.reload(removed)
	})
}

func (w *Watcher) reload(removed bool) {
	stat, err := os.Stat(w.path)
	if err != nil {
		if removed || os.IsNotExist(err) {
			w.callback(nil, fmt.Errorf("project file was removed: %s", w.path))
			return
		}
		w.callback(nil, err)
		return
	}

	w.mu.Lock()
	if !stat.ModTime().After(w.lastModTime) {
		w.mu.Unlock()
		w.logger.Debug("Project file not modified, skipping reload")
		return
	}
	w.lastModTime = stat.ModTime()
	w.mu.Unlock()

	project, err := Load(w.path)
	if err != nil {
		w.logger.Error("Failed to reload project", logger.WithField("error", err))
		w.callback(nil, err)
		return
	}

	w.logger.Info("Project reloaded", logger.WithField("scenes", len(project.Scenes)))
	w.callback(project, nil)
}
