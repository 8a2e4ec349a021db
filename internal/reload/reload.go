// Package reload watches the config file and re-applies runtime-tunable
// settings without a restart.
package reload

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the directory containing configPath
// and calls apply after the file settles. Editors typically replace files
// via rename, so the parent directory is watched and events are filtered by
// name. Runs until ctx is cancelled.
func Watch(ctx context.Context, configPath string, logger *slog.Logger, apply func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	logger.Info("config watcher: started", slog.String("path", absPath))

	// applyTimer debounces bursts of events from a single editor save.
	var applyTimer *time.Timer
	var applyCh <-chan time.Time

	scheduleApply := func() {
		if applyTimer == nil {
			applyTimer = time.NewTimer(debounceInterval)
			applyCh = applyTimer.C
		} else {
			applyTimer.Reset(debounceInterval)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if applyTimer != nil {
				applyTimer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-applyCh:
			logger.Info("config watcher: applying config change")
			apply()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			evPath, pathErr := filepath.Abs(ev.Name)
			if pathErr != nil || evPath != absPath {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleApply()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
