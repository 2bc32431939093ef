package watchspawn

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a watcher.
type Option func(o *watchOptions)

type watchOptions struct {
	eventsMask              EventType
	filter                  Filter
	logger                  *zap.Logger
	maxDepth                uint
	writeStabilityThreshold time.Duration
	pollInterval            time.Duration
	ignoreExisting          bool
	pathPrefix              string
}

func newWatchOptions(options []Option) watchOptions {
	o := watchOptions{
		eventsMask:              AllEvents,
		logger:                  zap.NewNop(),
		maxDepth:                DefaultMaxDepth,
		writeStabilityThreshold: DefaultWriteStabilityThreshold,
		pollInterval:            DefaultPollInterval,
	}
	for _, option := range options {
		option(&o)
	}
	return o
}

// WithEvents restricts the events that are reported.
func WithEvents(mask EventType) Option {
	return func(o *watchOptions) {
		o.eventsMask = mask
	}
}

// WithFilter sets the filter that decides which files are reported.
func WithFilter(filter Filter) Option {
	return func(o *watchOptions) {
		o.filter = filter
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *watchOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *watchOptions) {
		o.pollInterval = interval
	}
}

func WithMaxDepth(maxDepth uint) Option {
	return func(o *watchOptions) {
		o.maxDepth = maxDepth
	}
}

func WithWriteStabilityThreshold(threshold time.Duration) Option {
	return func(o *watchOptions) {
		o.writeStabilityThreshold = threshold
	}
}

// WithIgnoreExisting makes the first sweep a silent baseline, so only files that show up
// afterwards are reported.
func WithIgnoreExisting() Option {
	return func(o *watchOptions) {
		o.ignoreExisting = true
	}
}

// WithPathPrefix joins every reported path onto prefix.
func WithPathPrefix(prefix string) Option {
	return func(o *watchOptions) {
		o.pathPrefix = prefix
	}
}
