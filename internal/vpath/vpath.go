// Package vpath normalizes the virtual paths internal/union and cow.Engine
// operate on (spec §4.6: "Normalize path to a forward-slash form without a
// leading slash, collapsing repeated separators and rejecting .. segments").
package vpath

import (
	"strings"

	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// Normalize validates and canonicalizes a caller-supplied virtual path:
// strips a leading slash, collapses repeated "/", drops "." segments, and
// rejects empty paths, ".." segments, and embedded NUL bytes (spec §7
// InvalidPath).
func Normalize(path string) (string, error) {
	if strings.IndexByte(path, 0) >= 0 {
		return "", tcowerr.InvalidPath(path, "contains a NUL byte")
	}
	p := strings.TrimPrefix(path, "/")
	if p == "" {
		return "", tcowerr.InvalidPath(path, "empty path")
	}
	segs := strings.Split(p, "/")
	out := segs[:0]
	for _, s := range segs {
		switch s {
		case "":
			continue // collapse repeated separators
		case ".":
			continue
		case "..":
			return "", tcowerr.InvalidPath(path, "contains a \"..\" segment")
		default:
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return "", tcowerr.InvalidPath(path, "empty path")
	}
	return strings.Join(out, "/"), nil
}

// Split separates a normalized path into its parent directory (possibly
// empty, meaning root) and basename.
func Split(path string) (parent, base string) {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// Join reassembles a parent/base pair produced by Split.
func Join(parent, base string) string {
	if parent == "" {
		return base
	}
	return parent + "/" + base
}

// HasPrefix reports whether path is prefix or a descendant of prefix, both
// assumed already normalized; the empty prefix matches everything (root).
func HasPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
