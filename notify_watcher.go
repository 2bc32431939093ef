package watchspawn

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// NewNotifyWatcher registers dir with the operating system's file notification facility and returns a
// watcher reporting files created directly inside it. Events are captured from the moment this returns,
// and reported paths are absolute. Only FileAdded events are produced.
func NewNotifyWatcher(dir string, options ...Option) (Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("error resolving directory %q: %w", dir, err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("error watching directory %q: %w", absDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("error watching directory %q: not a directory", absDir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating file notification watcher: %w", err)
	}
	if err := fw.Add(absDir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("error watching directory %q: %w", absDir, err)
	}

	return &notifyWatcher{
		dir:          absDir,
		fw:           fw,
		watchOptions: newWatchOptions(options),
	}, nil
}

type notifyWatcher struct {
	dir string
	fw  *fsnotify.Watcher
	watchOptions
}

func (nw *notifyWatcher) Watch(ctx context.Context, chanEvents chan<- Event) error {
	defer func() {
		if err := nw.fw.Close(); err != nil {
			nw.logger.Warn("error closing file notification watcher", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-nw.fw.Events:
			if !ok {
				return fmt.Errorf("file notification watcher for %q closed", nw.dir)
			}
			if err := nw.handleEvent(ctx, chanEvents, event); err != nil {
				return err
			}

		case err, ok := <-nw.fw.Errors:
			if !ok {
				return fmt.Errorf("file notification watcher for %q closed", nw.dir)
			}
			nw.logger.Warn("file notification error", zap.String("dir", nw.dir), zap.Error(err))
		}
	}
}

func (nw *notifyWatcher) handleEvent(ctx context.Context, chanEvents chan<- Event, event fsnotify.Event) error {
	// A file moved into the directory also arrives as a create
	if !event.Has(fsnotify.Create) || nw.eventsMask&FileAdded == 0 {
		return nil
	}

	// Directories are not reported. A file that is gone again by now is skipped.
	info, err := os.Stat(event.Name)
	if err != nil {
		nw.logger.Debug("skipping vanished file", zap.String("file", event.Name), zap.Error(err))
		return nil
	}
	if info.IsDir() {
		return nil
	}

	if nw.filter != nil {
		include, err := nw.filter.Filter(ctx, event.Name)
		if err != nil {
			return err
		}
		if !include {
			nw.logger.Debug("file does not match filter", zap.String("file", event.Name))
			return nil
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case chanEvents <- Event{
		Type: FileAdded,
		File: event.Name,
	}:
	}
	return nil
}
