package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/typekit/core/registry"
)

// Config configures a Holder.
type Config struct {
	// Dirs are the schema directories to load.
	Dirs []string

	// Logger for reload events.
	Logger zerolog.Logger

	// Observer is attached to every registry the holder builds (optional).
	Observer registry.Observer

	// Debounce coalesces bursts of file events into a single reload: the
	// rebuild runs this long after the last event. Zero reloads immediately
	// on every event.
	Debounce time.Duration
}

// Holder provides thread-safe access to the current registry with hot reload
// support. Reloads build a complete fresh registry and swap it in atomically;
// a registry that has been handed out is never mutated, so concrete type
// identities observed by callers stay stable for the lifetime of the handle
// they hold.
type Holder struct {
	mu      sync.RWMutex
	reg     *registry.Registry
	cfg     Config
	watcher *fsnotify.Watcher
	onSwap  []func(*registry.Registry)
	stopCh  chan struct{}
}

// NewHolder creates a holder and loads the initial registry.
func NewHolder(cfg Config) (*Holder, error) {
	reg, err := Load(cfg.Dirs, cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	return &Holder{
		reg:    reg,
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current registry (thread-safe).
func (h *Holder) Get() *registry.Registry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reg
}

// Reload rebuilds the registry from disk and swaps it in.
// Returns an error and keeps the old registry if loading fails.
func (h *Holder) Reload() error {
	h.cfg.Logger.Info().Strs("dirs", h.cfg.Dirs).Msg("reloading schema registry")

	newReg, err := Load(h.cfg.Dirs, h.cfg.Observer)
	if err != nil {
		h.cfg.Logger.Error().Err(err).Msg("schema reload failed, keeping old registry")
		return fmt.Errorf("reload registry: %w", err)
	}

	h.mu.Lock()
	oldReg := h.reg
	h.reg = newReg
	h.mu.Unlock()

	h.cfg.Logger.Info().
		Int("templates", len(newReg.Templates())).
		Int("previous_templates", len(oldReg.Templates())).
		Msg("schema registry reloaded")

	for _, fn := range h.onSwap {
		fn(newReg)
	}

	return nil
}

// OnSwap registers a callback invoked with the new registry after each
// successful reload.
func (h *Holder) OnSwap(fn func(*registry.Registry)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSwap = append(h.onSwap, fn)
}

// WatchDirs starts watching the schema directories for changes.
// Changes to YAML files trigger automatic reload.
func (h *Holder) WatchDirs() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	for _, dir := range h.cfg.Dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch directory %s: %w", dir, err)
		}
	}

	go h.watchLoop()

	h.cfg.Logger.Info().Strs("dirs", h.cfg.Dirs).Msg("watching schema directories for changes")
	return nil
}

// Stop stops watching for file changes.
func (h *Holder) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *Holder) watchLoop() {
	// A save from most editors is a burst of events (write, chmod, rename to
	// the final name); the timer coalesces the burst into one rebuild.
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			if !isSchemaFile(event.Name) {
				continue
			}

			// Write, create and remove all change the schema set; rename
			// shows up as create of the new name on most editors.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}

			h.cfg.Logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("schema file changed")

			if h.cfg.Debounce <= 0 {
				if err := h.Reload(); err != nil {
					h.cfg.Logger.Error().Err(err).Msg("file watch reload failed")
				}
				continue
			}

			if timer == nil {
				timer = time.NewTimer(h.cfg.Debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-fire:
					default:
					}
				}
				timer.Reset(h.cfg.Debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			if err := h.Reload(); err != nil {
				h.cfg.Logger.Error().Err(err).Msg("file watch reload failed")
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.cfg.Logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func isSchemaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
