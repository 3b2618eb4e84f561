package generate

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// WatchPromptFile reloads p from path whenever the file changes, until ctx
// is cancelled. The parent directory is watched so that editors replacing
// the file through a rename are picked up too.
func WatchPromptFile(ctx context.Context, p *Prompt, path string, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("prompt watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var reloadCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("prompt watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				reloadCh = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-reloadCh:
			if err := p.LoadFile(abs); err != nil {
				logger.Warn("prompt watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("prompt watcher: system prompt reloaded", slog.String("path", abs))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: error", slog.String("error", err.Error()))
		}
	}
}
