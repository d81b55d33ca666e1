package settings

import (
	"context"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 500 * time.Millisecond

// Watcher reloads the settings file when it changes on disk. Editors often
// write via rename, so the parent directory is watched rather than the file.
type Watcher struct {
	svc      *Service
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher constructs a Watcher for the service's settings file.
func NewWatcher(svc *Service, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(svc.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{svc: svc, watcher: fw, logger: logger, debounce: debounceInterval}, nil
}

// Run processes file events until the context is cancelled. Rapid write
// bursts are coalesced into a single reload.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	target := filepath.Clean(w.svc.path)
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", "error", err)
		case <-timerCh:
			timer = nil
			timerCh = nil
			if err := w.svc.Load(ctx); err != nil {
				// Keep serving the previous snapshot.
				w.logger.Warn("settings reload failed", "error", err)
			}
		}
	}
}
