package watchspawn

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WatcherFunc builds the watcher for a monitored directory.
type WatcherFunc func(dir string, options ...Option) (Watcher, error)

// Monitor watches the configured folder and starts the configured application for every new file
// matching the configured filter.
type Monitor struct {
	Settings *Settings
	Spawner  Spawner

	// NewWatcher defaults to NewNotifyWatcher.
	NewWatcher WatcherFunc

	// Options are passed to NewWatcher ahead of the filter and events options set by the monitor.
	Options []Option

	// OnStarted, when set, is called once the watcher is registered and before any event is handled.
	OnStarted func(dir string)

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Run validates the monitored folder, registers the watcher and handles new files until ctx is
// cancelled. It returns ErrInvalidFolder, without registering anything, when the folder is unusable.
// Spawn failures are logged and never end the run.
func (m *Monitor) Run(ctx context.Context) error {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := m.Settings.ValidateFolder(); err != nil {
		logger.Error("the folder path does not exist or is empty",
			zap.String("folder", m.Settings.FolderPathToMonitor), zap.Error(err))
		return err
	}
	dir, err := filepath.Abs(m.Settings.FolderPathToMonitor)
	if err != nil {
		return err
	}

	pattern := m.Settings.Pattern()
	filter, err := PatternFilter(pattern)
	if err != nil {
		return err
	}

	newWatcher := m.NewWatcher
	if newWatcher == nil {
		newWatcher = NewNotifyWatcher
	}
	options := append([]Option{WithLogger(logger.Named("watcher"))}, m.Options...)
	options = append(options, WithFilter(filter), WithEvents(FileAdded))
	w, err := newWatcher(dir, options...)
	if err != nil {
		return err
	}
	logger.Info("monitoring folder", zap.String("folder", dir), zap.String("filter", pattern))
	if m.OnStarted != nil {
		m.OnStarted(dir)
	}

	eg, egCtx := errgroup.WithContext(ctx)

	// In one goroutine, watch the folder and send events to the channel
	chanEvents := make(chan Event)
	eg.Go(func() error {
		defer close(chanEvents)
		return w.Watch(egCtx, chanEvents)
	})

	// In another goroutine, start the application for each new file
	eg.Go(func() error {
		for event := range chanEvents {
			m.handle(egCtx, logger, event)
		}
		return nil
	})

	// Ending the caller's context is a normal shutdown
	if err := eg.Wait(); err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (m *Monitor) handle(ctx context.Context, logger *zap.Logger, event Event) {
	if event.Type != FileAdded {
		return
	}
	logger.Info("new file detected", zap.String("file", event.File))
	if err := m.Spawner.Spawn(ctx, event.File); err != nil {
		logger.Error("error starting application", zap.String("file", event.File), zap.Error(err))
		return
	}
	logger.Info("application invoked", zap.String("file", event.File))
}
