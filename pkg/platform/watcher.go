package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/observability"
)

// Watcher reloads the platform when the plugins root changes on disk.
// Events are debounced so an install's many writes trigger one reload.
type Watcher struct {
	service  *Service
	watcher  *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
}

// NewWatcher starts watching the service's plugins root. The root must
// exist before watching can start.
func NewWatcher(service *Service, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(service.scanner.Root()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch plugins root: %w", err)
	}

	w := &Watcher{
		service:  service,
		watcher:  fsw,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// A reload panic must not take the whole daemon down with the watcher.
func (w *Watcher) run() {
	defer observability.RecoverPanic(w.service.log, "plugins root watcher")

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.service.log.Info("Plugins root changed, reloading")
			if _, err := w.service.Reload(context.Background()); err != nil {
				w.service.log.WithError(err).Error("Reload after filesystem change failed")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.service.log.WithError(err).Warn("Plugins root watcher error")

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
