package panel

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadMetadata tracks hot-reload statistics for the panels file.
type ReloadMetadata struct {
	LoadedAt     time.Time `json:"loaded_at"`
	PanelCount   int       `json:"panel_count"`
	LastReloadAt time.Time `json:"last_reload_at,omitempty"`
	ReloadCount  int       `json:"reload_count"`
	LastError    string    `json:"last_error,omitempty"`
}

// Watcher keeps a panels Config hot-reloaded from a JSON file. The active
// config is swapped atomically; a broken edit keeps the last good config and
// records the error in the reload metadata.
type Watcher struct {
	path   string
	cfgPtr atomic.Value // stores Config

	mu       sync.RWMutex
	metadata ReloadMetadata

	fsw    *fsnotify.Watcher
	doneCh chan struct{}
}

// NewWatcher loads the panels file and starts watching its directory for
// changes. The initial load must succeed.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{path: path, fsw: fsw, doneCh: make(chan struct{})}
	w.cfgPtr.Store(cfg)
	w.metadata = ReloadMetadata{LoadedAt: time.Now(), PanelCount: len(cfg.Panels)}
	go w.watchLoop()
	return w, nil
}

// Config returns the currently active panels configuration.
func (w *Watcher) Config() Config {
	return w.cfgPtr.Load().(Config)
}

// Metadata returns current reload statistics.
func (w *Watcher) Metadata() ReloadMetadata {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.metadata
}

// Close stops the background watcher.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.doneCh
	return err
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("panels watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metadata.ReloadCount++
	w.metadata.LastReloadAt = time.Now()
	if err != nil {
		w.metadata.LastError = err.Error()
		slog.Warn("panels reload failed, keeping previous config", "path", w.path, "error", err)
		return
	}
	w.cfgPtr.Store(cfg)
	w.metadata.PanelCount = len(cfg.Panels)
	w.metadata.LastError = ""
	slog.Info("panels reloaded", "path", w.path, "panels", len(cfg.Panels))
}
