package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/vigil/domain/config"
	"github.com/felixgeelhaar/vigil/infrastructure/logging"
)

// ErrWatcherStarted is returned when Start is called twice.
var ErrWatcherStarted = errors.New("config watcher already started")

const defaultDebounce = 100 * time.Millisecond

// ReloadFunc receives every successfully reloaded configuration.
type ReloadFunc func(*config.Config)

// Watcher reloads a configuration file when it changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename are still picked up.
type Watcher struct {
	path     string
	loader   *Loader
	onReload ReloadFunc
	onError  func(error)
	debounce time.Duration

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	done    chan struct{}
	started bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler receives reload failures. The previous configuration
// stays in effect after a failure.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher for path. A nil loader uses NewLoader.
func NewWatcher(path string, loader *Loader, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	if onReload == nil {
		return nil, fmt.Errorf("config watcher: reload callback is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if loader == nil {
		loader = NewLoader()
	}

	w := &Watcher{
		path:     abs,
		loader:   loader,
		onReload: onReload,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. Events are processed until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrWatcherStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.fs = fsw
	w.started = true
	go w.run(ctx)

	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Str("path", w.path)).
		Msg("watching configuration")

	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw := w.fs
	started := w.started
	w.fs = nil
	w.mu.Unlock()

	if !started || fsw == nil {
		return nil
	}
	err := fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	w.mu.Lock()
	fsw := w.fs
	w.mu.Unlock()

	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.fs != nil {
				_ = w.fs.Close()
				w.fs = nil
			}
			w.mu.Unlock()
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			settle = timer.C

		case <-settle:
			settle = nil
			w.reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.fail(fmt.Errorf("watch error: %w", err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	cfg, err := w.loader.LoadFile(w.path)
	if err != nil {
		w.fail(err)
		return
	}

	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Str("path", w.path)).
		Msg("configuration reloaded")

	w.onReload(cfg)
}

func (w *Watcher) fail(err error) {
	logging.Warn().
		Add(logging.Component("config")).
		Add(logging.ErrorField(err)).
		Msg("configuration reload failed")

	if w.onError != nil {
		w.onError(err)
	}
}
