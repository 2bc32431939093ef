package watchspawn

import (
	"context"
	"fmt"
	"path"
)

// Filter is an interface that can be implemented to instruct the watcher to ignore certain files entirely.
type Filter interface {
	// Filter returns true if the file should be reported, and false if it should be ignored.
	Filter(ctx context.Context, filename string) (bool, error)
}

type FilterFunc func(ctx context.Context, filename string) (bool, error)

func (f FilterFunc) Filter(ctx context.Context, filename string) (bool, error) {
	return f(ctx, filename)
}

// PatternFilter returns a filter matching the base name of each file against a wildcard pattern.
// "*.*" and "*" match every file, including names without an extension.
func PatternFilter(pattern string) (Filter, error) {
	if pattern == "*.*" || pattern == "*" {
		return FilterFunc(func(context.Context, string) (bool, error) {
			return true, nil
		}), nil
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}
	return FilterFunc(func(ctx context.Context, filename string) (bool, error) {
		return path.Match(pattern, baseName(filename))
	}), nil
}
