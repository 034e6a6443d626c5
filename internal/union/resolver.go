// Package union implements the layered path-resolution algorithm of
// spec §4.6: top-down scanning of layers (writable buffer first, then
// on-disk layers from highest to lowest), honoring whiteout precedence.
//
// It is grounded on cmd/distri/internal/fuse/unionreader.go's shape
// (iterate a list of per-layer sources from the top down, first match
// wins), generalized from squashfs inodes to tar entries and from a FUSE
// directory reader to a pure, stateless resolution function so it can be
// exercised without a filesystem.
package union

import (
	"github.com/mikesmullin/tcow/internal/layer"
	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/vpath"
)

// ResultKind distinguishes the three outcomes of a Lookup (spec §4.6).
type ResultKind int

const (
	NotFound ResultKind = iota
	Found
	Whiteout
)

// LookupResult is the outcome of Lookup. LayerIndex is the writable-buffer
// index (equal to the on-disk layer count) when the match or whiteout was
// found in the writable buffer rather than on disk.
type LookupResult struct {
	Kind       ResultKind
	LayerIndex int
	Entry      tarcodec.Entry
}

// Lookup resolves path against store's on-disk layers and the supplied
// writable buffer snapshot (nil when there is none), per the algorithm in
// spec §4.6.
func Lookup(store *layer.Store, writable []tarcodec.Entry, path string) (LookupResult, error) {
	norm, err := vpath.Normalize(path)
	if err != nil {
		return LookupResult{}, err
	}
	parent, base := vpath.Split(norm)
	whiteoutPath := vpath.Join(parent, tarcodec.WhiteoutPrefix+base)

	n := store.Len()
	for i := n; i >= 0; i-- {
		entries, err := layerEntries(store, writable, i, n)
		if err != nil {
			return LookupResult{}, err
		}
		var (
			whiteoutHit bool
			match       tarcodec.Entry
			matched     bool
		)
		for _, e := range entries {
			if e.Path == whiteoutPath && e.IsWhiteout() {
				whiteoutHit = true
			}
			if e.Path == norm {
				match = e
				matched = true
			}
		}
		if whiteoutHit {
			return LookupResult{Kind: Whiteout, LayerIndex: i}, nil
		}
		if matched {
			return LookupResult{Kind: Found, LayerIndex: i, Entry: match}, nil
		}
	}
	return LookupResult{Kind: NotFound}, nil
}

// ExistsLower reports whether a non-whiteout entry for path is visible from
// some on-disk layer below "below" index, i.e. not itself shadowed by a
// whiteout nearer to "below" (spec §4.6, used by copy-up semantics).
func ExistsLower(store *layer.Store, path string, below int) (bool, error) {
	norm, err := vpath.Normalize(path)
	if err != nil {
		return false, err
	}
	for i := below - 1; i >= 0; i-- {
		entries, err := store.Entries(i)
		if err != nil {
			return false, err
		}
		state := stateNone
		for _, e := range entries {
			if e.IsWhiteout() {
				if target, ok := e.WhiteoutTarget(); ok && target == norm {
					state = stateWhiteout
				}
				continue
			}
			if e.Path == norm {
				state = stateFound
			}
		}
		switch state {
		case stateWhiteout:
			return false, nil
		case stateFound:
			return true, nil
		}
	}
	return false, nil
}

type resolveState int

const (
	stateNone resolveState = iota
	stateFound
	stateWhiteout
)

func layerEntries(store *layer.Store, writable []tarcodec.Entry, i, n int) ([]tarcodec.Entry, error) {
	if i == n {
		return writable, nil
	}
	return store.Entries(i)
}
