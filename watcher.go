package watchspawn

import (
	"context"
	"time"
)

const (
	// DefaultMaxDepth is the default maximum depth to sweep to, if nothing else is specified.
	DefaultMaxDepth = 10

	// DefaultWriteStabilityThreshold is the default amount of time since last modification before a file is detected.
	DefaultWriteStabilityThreshold = 15 * time.Second

	// DefaultPollInterval is the default amount of time between two sweeps of a polling watcher.
	DefaultPollInterval = 2 * time.Second
)

// Watcher delivers file events for a single directory.
type Watcher interface {
	// Watch sends events to the channel until the context is cancelled, then returns the context error.
	// A watcher may only be watched once.
	Watch(ctx context.Context, chanEvents chan<- Event) error
}

// EventType defines an operation that took place on the watched directory
type EventType uint8

const (
	FileAdded   = EventType(1 << 0)
	FileRemoved = EventType(1 << 1)
	AllEvents   = 0b11111111
)

func (t EventType) String() string {
	switch t {
	case FileAdded:
		return "added"
	case FileRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a file event
type Event struct {
	Type EventType
	File string
}
