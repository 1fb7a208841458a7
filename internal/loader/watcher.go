package loader

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ErrWatcherClosed is returned when the underlying file watcher shuts down
// while a Watch call is still running.
var ErrWatcherClosed = errors.New("loader: watcher already closed")

// ReloadFunc is invoked after the watched file changes and the debounce
// window elapses.
type ReloadFunc func()

// Watcher monitors a root file for changes so callers can re-run a load.
// It watches the file's parent directory rather than the file itself, which
// keeps atomic writes (temp file + rename) visible, and debounces the event
// bursts editors produce on save.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce delay for file change events. Default is
// 100ms.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher for the file at path. The path is resolved to
// an absolute path; its parent directory must exist.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		path:      absPath,
		debounce:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		if closeErr := fsWatcher.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close watcher after add failure")
		}
		return nil, err
	}

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Watch blocks, invoking reload after each debounced change to the watched
// file, until ctx is cancelled. Only Write, Create and Rename events for the
// watched file are considered; everything else in the directory is ignored.
func (w *Watcher) Watch(ctx context.Context, reload ReloadFunc) error {
	target := filepath.Base(w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			log.Warn().Err(err).Str("path", w.path).Msg("watch error")

		case <-timer.C:
			log.Debug().Str("path", w.path).Msg("file changed, reloading")
			reload()
		}
	}
}

// Close shuts down the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
