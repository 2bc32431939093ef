package watchspawn

import (
	"path"
	"path/filepath"
	"strings"
)

// normalizePath removes leading and trailing slashes from a path, and returns an empty string if the path is ".".
func normalizePath(name string) string {
	trimmed := path.Clean(name)
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "." {
		trimmed = ""
	}
	return trimmed
}

// joinPrefix turns a slash-separated path relative to a watched fs.FS into an OS path under prefix.
func joinPrefix(prefix, name string) string {
	name = normalizePath(name)
	if prefix == "" {
		return name
	}
	return filepath.Join(prefix, filepath.FromSlash(name))
}

// baseName returns the last element of either a slash-separated or an OS path.
func baseName(name string) string {
	return filepath.Base(filepath.FromSlash(name))
}
