package payload

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events a single rebuild produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to a payload's manifest or local Wasm file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher. A zero debounce selects DefaultDebounce.
func NewWatcher(debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  w,
		debounce: debounce,
		logger:   logger.With(zap.String("component", "payload-watcher")),
	}, nil
}

// Watch calls onChange after the payload's files settle following a
// change. It blocks until ctx is done or the watcher fails.
//
// The directory is watched rather than the files, since build tools
// usually replace the output file instead of writing it in place.
func (w *Watcher) Watch(ctx context.Context, m *Manifest, onChange func(context.Context)) error {
	if err := w.watcher.Add(m.Dir()); err != nil {
		return err
	}
	defer w.watcher.Remove(m.Dir())

	watched := map[string]bool{filepath.Clean(m.Path()): true}
	if !m.IsRemote() {
		watched[filepath.Clean(m.WasmPath())] = true
	}

	w.logger.Info("Watching payload",
		zap.String("name", m.Name),
		zap.String("dir", m.Dir()),
	)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("Payload file changed",
				zap.String("file", event.Name),
				zap.Stringer("op", event.Op),
			)
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		case <-timer.C:
			onChange(ctx)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
