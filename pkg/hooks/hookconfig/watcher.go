package hookconfig

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/logger"
)

// ChangeCallback is invoked with the reloaded Hook whenever a watched
// configuration file is written, or with a nil Hook and the removal path
// when a file is deleted.
type ChangeCallback func(hook *hookmodel.Hook, removedPath string)

// Watcher hot-reloads the hook config directory: a create or write to a
// recognized config file re-parses and re-validates it through Loader and
// hands the result to every registered callback; a remove notifies
// callbacks with the path alone so the caller can unregister it.
type Watcher struct {
	loader   *Loader
	watcher  *fsnotify.Watcher
	log      logger.Logger
	dir      string
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}

	callbacksMu sync.RWMutex
	callbacks   []ChangeCallback
}

// NewWatcher constructs a Watcher that reloads files through loader.
func NewWatcher(loader *Loader, log logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	return &Watcher{loader: loader, watcher: fsw, log: log, stopChan: make(chan struct{})}, nil
}

// OnChange registers a callback invoked on every detected reload or removal.
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch starts watching dir for hook config file changes. Calling Watch
// more than once on a running Watcher is a no-op.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	w.dir = dir
	w.running = true
	go w.loop()
	w.log.Info("watching hook config directory", map[string]interface{}{"dir": dir})
	return nil
}

// Stop tears down the filesystem watch.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	w.running = false
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("hook config watcher error", map[string]interface{}{"error": err.Error()})
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !isConfigFile(event.Name) {
		return
	}

	switch {
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		w.notify(nil, event.Name)
	case event.Op&fsnotify.Write == fsnotify.Write, event.Op&fsnotify.Create == fsnotify.Create:
		hook, err := w.loader.LoadFromFile(event.Name)
		if err != nil {
			w.log.Warn("failed to reload hook configuration", map[string]interface{}{"path": event.Name, "error": err.Error()})
			return
		}
		w.notify(hook, "")
	}
}

func (w *Watcher) notify(hook *hookmodel.Hook, removedPath string) {
	w.callbacksMu.RLock()
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.callbacksMu.RUnlock()

	for _, cb := range callbacks {
		cb(hook, removedPath)
	}
}

func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
