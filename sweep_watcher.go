package watchspawn

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"go.uber.org/zap"
)

// SweepWatcher is a Watcher that finds changes by periodically listing a file system.
type SweepWatcher interface {
	Watcher

	// Sweep performs a single sweep of the directory and sends each change to the channel.
	Sweep(ctx context.Context, chanEvents chan<- Event) error
}

// NewSweepWatcher creates a polling watcher over fsys. Reported paths are slash-separated and relative
// to the root of fsys, unless a path prefix is configured.
func NewSweepWatcher(fsys fs.FS, options ...Option) SweepWatcher {
	return &sweepWatcher{
		fsys:          fsys,
		watchOptions:  newWatchOptions(options),
		cachedEntries: make(map[string]map[string]fs.FileInfo),
	}
}

// NewPollWatcher creates a polling watcher for a directory on disk. Reported paths are joined onto dir.
func NewPollWatcher(dir string, options ...Option) (Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("error watching directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("error watching directory %q: not a directory", dir)
	}
	options = append([]Option{WithPathPrefix(dir)}, options...)
	return NewSweepWatcher(os.DirFS(dir), options...), nil
}

type sweepWatcher struct {
	fsys fs.FS
	watchOptions

	// swept is set once the first sweep has completed
	swept bool

	cachedEntries map[string]map[string]fs.FileInfo
}

func (wd *sweepWatcher) Watch(ctx context.Context, chanEvents chan<- Event) error {
	for {
		// Perform the sweep iteration
		if err := wd.Sweep(ctx, chanEvents); err != nil {
			// If the context was cancelled, return that error
			if errors.Is(err, context.Canceled) {
				return err
			}

			// Other errors should not end the watch, so we just log them and continue
			wd.logger.Warn("sweep failed", zap.Error(err))
		}

		// Sleep for the configured interval
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wd.pollInterval):
		}
	}
}

func (wd *sweepWatcher) Sweep(ctx context.Context, chanEvents chan<- Event) (reterr error) {
	if wd.fsys == nil {
		return errors.New("cannot watch nil file system")
	}

	startTime := time.Now()
	wd.logger.Debug("sweep started")
	defer func() {
		duration := time.Since(startTime)
		if reterr != nil {
			wd.logger.Debug("sweep finished with error", zap.Duration("duration", duration), zap.Error(reterr))
		} else {
			wd.logger.Debug("sweep finished", zap.Duration("duration", duration))
		}
	}()

	if err := wd.sweep(ctx, chanEvents, 0, "."); err != nil {
		return err
	}
	wd.swept = true
	return nil
}

func readDirStats(fsys fs.FS, pathPrefix string) (map[string]fs.FileInfo, error) {
	// Read the directory entries
	entries, err := fs.ReadDir(fsys, pathPrefix)
	if err != nil {
		return nil, err
	}

	// Create a map to hold the file info
	fileInfo := make(map[string]fs.FileInfo)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// The entry vanished between the listing and the stat
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("error getting info for entry %q: %w", entry.Name(), err)
		}
		fileInfo[entry.Name()] = info
	}
	return fileInfo, nil
}

func (wd *sweepWatcher) sweep(ctx context.Context, chanEvents chan<- Event, depth uint, pathPrefix string) error {
	// Breakout if the context is cancelled.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Return if the depth is too deep
	if depth >= wd.maxDepth {
		return nil
	}

	// Read the entries in the directory
	entries, err := readDirStats(wd.fsys, pathPrefix)
	if err != nil {
		return fmt.Errorf("error reading directory %q: %w", pathPrefix, err)
	}

	// Get the previous sweep data for this directory
	prevEntries := wd.cachedEntries[pathPrefix]
	baseline := wd.ignoreExisting && !wd.swept

	// Defer new files that are not yet considered stable (recently modified). Files already known
	// stay known, and a silent baseline records everything present.
	for name, entry := range entries {
		if entry.IsDir() || !entry.ModTime().Add(wd.writeStabilityThreshold).After(time.Now()) {
			continue
		}
		if prevEntry, known := prevEntries[name]; known {
			entries[name] = prevEntry
		} else if !baseline {
			delete(entries, name)
		}
	}

	// Find entries that are newly added (didn't previously exist)
	reportAdded := wd.eventsMask&FileAdded != 0 && !baseline
	if reportAdded {
		for name, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if prevEntries != nil && prevEntries[name] != nil {
				continue
			}
			if err := wd.send(ctx, chanEvents, FileAdded, path.Join(pathPrefix, name)); err != nil {
				return err
			}
		}
	}

	// Find entries that were removed (existed previously but not now)
	if prevEntries != nil && wd.eventsMask&FileRemoved != 0 {
		for name, prevEntry := range prevEntries {
			if _, stillExists := entries[name]; stillExists {
				continue
			}
			if prevEntry.IsDir() {
				if err := wd.sweepDeleted(ctx, chanEvents, path.Join(pathPrefix, name)); err != nil {
					return fmt.Errorf("error sweeping deleted directory %q: %w", path.Join(pathPrefix, name), err)
				}
			} else if err := wd.send(ctx, chanEvents, FileRemoved, path.Join(pathPrefix, name)); err != nil {
				return err
			}
		}
	}

	// Sweep all child directories
	for name, entry := range entries {
		if entry.IsDir() {
			if err := wd.sweep(ctx, chanEvents, depth+1, path.Join(pathPrefix, name)); err != nil {
				return err
			}
		}
	}

	// Update the previous entries cache
	wd.cachedEntries[pathPrefix] = entries
	return nil
}

func (wd *sweepWatcher) sweepDeleted(ctx context.Context, chanEvents chan<- Event, pathPrefix string) error {
	// Get the previous sweep data for this directory
	prevEntries := wd.cachedEntries[pathPrefix]
	if prevEntries == nil {
		return nil // Nothing to sweep
	}

	// Loop over all of the entries that were previously cached
	for name, prevEntry := range prevEntries {
		if prevEntry.IsDir() {
			if err := wd.sweepDeleted(ctx, chanEvents, path.Join(pathPrefix, name)); err != nil {
				return fmt.Errorf("error sweeping deleted directory %q: %w", path.Join(pathPrefix, name), err)
			}
		} else if wd.eventsMask&FileRemoved != 0 {
			if err := wd.send(ctx, chanEvents, FileRemoved, path.Join(pathPrefix, name)); err != nil {
				return err
			}
		}
	}

	// Delete the cached entries
	delete(wd.cachedEntries, pathPrefix)
	return nil
}

// send filters a file and delivers its event, giving up if the context is cancelled first.
func (wd *sweepWatcher) send(ctx context.Context, chanEvents chan<- Event, typ EventType, name string) error {
	if wd.filter != nil {
		include, err := wd.filter.Filter(ctx, name)
		if err != nil {
			return err
		}
		if !include {
			return nil
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case chanEvents <- Event{
		Type: typ,
		File: joinPrefix(wd.pathPrefix, name),
	}:
	}
	return nil
}
