package requirements

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Invalidator is implemented by Resolver.
type Invalidator interface {
	Invalidate()
}

// Watch invalidates target whenever the file at path is written, created,
// renamed or removed. The parent directory is watched so that editors that
// replace the file atomically are picked up. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, target Invalidator, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.InfoContext(ctx, "watching feature requirements file", slog.String("path", abs))

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("requirements: watcher closed")
			}
			if filepath.Clean(event.Name) != abs || event.Op&relevant == 0 {
				continue
			}
			target.Invalidate()
			logger.InfoContext(ctx, "feature requirements file changed",
				slog.String("path", abs),
				slog.String("event", event.Op.String()),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("requirements: watcher closed")
			}
			logger.ErrorContext(ctx, "feature requirements watcher error", slog.Any("error", err))
		}
	}
}
