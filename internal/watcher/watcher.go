// Package watcher auto-imports documents dropped into configured directories.
// Each import directory feeds one project; files are debounced and run
// through the ingest pipeline.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Root is one watched import directory and the project it feeds.
type Root struct {
	Project    string
	Directory  string
	Extensions []string
}

// Watcher watches import directories and invokes the import callback for
// files that settle after a change.
type Watcher struct {
	roots    []Root
	onImport func(project, path string)
	debounce time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	started     bool
	done        chan struct{}
	stopOnce    sync.Once
}

// NewWatcher creates a watcher over the given import roots. onImport is
// called with the target project name and the settled file path.
func NewWatcher(roots []Root, onImport func(project, path string), logger *zap.Logger) *Watcher {
	return &Watcher{
		roots:       roots,
		onImport:    onImport,
		debounce:    defaultDebounce,
		logger:      logger,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
}

// Start begins watching. Missing import directories are created. Runs until
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	for i := range w.roots {
		abs, err := filepath.Abs(w.roots[i].Directory)
		if err == nil {
			w.roots[i].Directory = abs
		}
		if err := os.MkdirAll(w.roots[i].Directory, 0o755); err != nil {
			fsw.Close()
			w.mu.Unlock()
			return err
		}
		if err := fsw.Add(w.roots[i].Directory); err != nil {
			fsw.Close()
			w.mu.Unlock()
			return err
		}
	}
	w.watcher = fsw
	w.started = true
	w.logger.Info("import watcher started", zap.Int("directories", len(w.roots)))
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		if ev.Op&fsnotify.Remove != 0 {
			w.cancelDebounce(ev.Name)
		}
		return
	}
	root, ok := w.rootFor(ev.Name)
	if !ok {
		return
	}
	if info, err := os.Stat(ev.Name); err != nil || info.IsDir() {
		return
	}
	if !matchExtension(ev.Name, root.Extensions) {
		return
	}
	w.debounceImport(root.Project, ev.Name)
}

// rootFor finds the import root directly containing path.
func (w *Watcher) rootFor(path string) (Root, bool) {
	dir := filepath.Dir(filepath.Clean(path))
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, root := range w.roots {
		if filepath.Clean(root.Directory) == dir {
			return root, true
		}
	}
	return Root{}, false
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceImport(project, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.logger.Debug("importing settled file",
			zap.String("project", project),
			zap.String("path", path))
		if w.onImport != nil {
			w.onImport(project, path)
		}
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// SyncExistingFiles imports files already present in the watched directories.
// Call after Start to pick up files dropped while the service was down.
func (w *Watcher) SyncExistingFiles() {
	w.mu.Lock()
	roots := append([]Root(nil), w.roots...)
	w.mu.Unlock()
	for _, root := range roots {
		entries, err := os.ReadDir(root.Directory)
		if err != nil {
			w.logger.Warn("failed to scan import directory",
				zap.String("directory", root.Directory),
				zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(root.Directory, entry.Name())
			if matchExtension(path, root.Extensions) && w.onImport != nil {
				w.onImport(root.Project, path)
			}
		}
	}
}

// Stop stops the watcher and cancels pending imports.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
