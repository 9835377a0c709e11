// Package watcher re-runs a job whenever a single input file changes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/logx"
)

const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc handles one settled change of the watched file
type ChangeFunc func(ctx context.Context, path string) error

type Watcher struct {
	path       string
	onChange   ChangeFunc
	onError    func(err error)
	debounce   time.Duration
	runOnStart bool
	ready      chan struct{}
}

type Option func(*Watcher)

// WithDebounce sets how long the file must stay quiet before onChange runs
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnError receives watcher and callback errors; they never stop the loop
func WithOnError(fn func(err error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithRunOnStart runs onChange once before waiting for events
func WithRunOnStart() Option {
	return func(w *Watcher) {
		w.runOnStart = true
	}
}

func New(path string, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: DefaultDebounce,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Ready is closed once the watch is in place
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Start blocks until ctx is done. The parent directory is watched so that
// editors that save by renaming a temp file are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	logx.Logger.Info("Starting watcher",
		zap.String("path", w.path),
		zap.Duration("debounce", w.debounce))
	close(w.ready)

	if w.runOnStart {
		w.fire(ctx)
	}

	var timer *time.Timer
	var settled <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logx.Logger.Info("Stopping watcher (context cancelled)")
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			settled = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.report(err)

		case <-settled:
			settled = nil
			w.fire(ctx)
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	if err := w.onChange(ctx, w.path); err != nil {
		w.report(err)
	}
}

func (w *Watcher) report(err error) {
	logx.Logger.Error("Watcher error", zap.String("path", w.path), zap.Error(err))
	if w.onError != nil {
		w.onError(err)
	}
}
