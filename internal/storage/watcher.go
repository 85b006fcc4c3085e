package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of events a single atomic write produces
// (temp create, write, rename) into one notification per key.
const settleDelay = 100 * time.Millisecond

// matchFunc maps a file name inside the watched directory to the key it
// stores. ok is false for files the provider does not own.
type matchFunc func(name string) (key string, ok bool)

// watchDir runs an fsnotify watcher on dir until ctx is cancelled and calls
// cb once per key after its events settle.
func watchDir(ctx context.Context, dir string, logger *slog.Logger, match matchFunc, cb ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			for key := range pending {
				delete(pending, key)
				if cb != nil {
					cb(key)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, owned := match(filepath.Base(ev.Name))
			if !owned {
				continue
			}
			logger.Debug("watcher: event", slog.String("key", key), slog.String("op", ev.Op.String()))
			pending[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
