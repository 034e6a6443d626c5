package union

import (
	"sort"

	"github.com/mikesmullin/tcow/internal/layer"
	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/vpath"
)

// Mode selects one of the three listing behaviors of spec §4.6.
type Mode int

const (
	ModeUnion Mode = iota
	ModeSingleLayer
	ModeAll
)

// VisibleEntry is one row returned by List.
type VisibleEntry struct {
	Path       string
	Entry      tarcodec.Entry
	LayerIndex int
	Hidden     bool // ModeAll only: shadowed by a higher layer or a later same-layer duplicate
	Whiteout   bool // this entry is itself a whiteout marker
}

// List implements spec §4.6's list(prefix, mode). singleLayer is only used
// when mode == ModeSingleLayer. prefix == "" means the root.
func List(store *layer.Store, writable []tarcodec.Entry, prefix string, mode Mode, singleLayer int) ([]VisibleEntry, error) {
	norm := ""
	if prefix != "" {
		var err error
		norm, err = vpath.Normalize(prefix)
		if err != nil {
			return nil, err
		}
	}

	n := store.Len()

	switch mode {
	case ModeSingleLayer:
		entries, err := layerEntries(store, writable, singleLayer, n)
		if err != nil {
			return nil, err
		}
		var out []VisibleEntry
		for _, e := range entries {
			if !vpath.HasPrefix(e.Path, norm) {
				continue
			}
			out = append(out, VisibleEntry{Path: e.Path, Entry: e, LayerIndex: singleLayer, Whiteout: e.IsWhiteout()})
		}
		return out, nil

	case ModeAll:
		return listAll(store, writable, norm, n)

	default: // ModeUnion
		return listUnion(store, writable, norm, n)
	}
}

func listUnion(store *layer.Store, writable []tarcodec.Entry, prefix string, n int) ([]VisibleEntry, error) {
	decided := make(map[string]bool)
	visible := make(map[string]VisibleEntry)

	for i := n; i >= 0; i-- {
		entries, err := layerEntries(store, writable, i, n)
		if err != nil {
			return nil, err
		}
		for _, path := range lastWinsOrder(entries) {
			e := lastWinsMap(entries)[path]
			if e.IsWhiteout() {
				target, ok := e.WhiteoutTarget()
				if !ok || decided[target] {
					continue
				}
				decided[target] = true
				continue
			}
			if decided[e.Path] {
				continue
			}
			decided[e.Path] = true
			if vpath.HasPrefix(e.Path, prefix) {
				visible[e.Path] = VisibleEntry{Path: e.Path, Entry: e, LayerIndex: i}
			}
		}
	}

	out := make([]VisibleEntry, 0, len(visible))
	for _, v := range visible {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func listAll(store *layer.Store, writable []tarcodec.Entry, prefix string, n int) ([]VisibleEntry, error) {
	// First pass: compute the union winner's (layer, path) so every raw
	// entry below can be tagged Hidden relative to it.
	winners, err := listUnion(store, writable, "", n)
	if err != nil {
		return nil, err
	}
	winnerLayer := make(map[string]int, len(winners))
	for _, w := range winners {
		winnerLayer[w.Path] = w.LayerIndex
	}

	var out []VisibleEntry
	seenWhiteout := make(map[string]bool)
	for i := n; i >= 0; i-- {
		entries, err := layerEntries(store, writable, i, n)
		if err != nil {
			return nil, err
		}
		lastPos := make(map[string]int, len(entries))
		for idx, e := range entries {
			lastPos[e.Path] = idx
		}
		for idx, e := range entries {
			path := e.Path
			if e.IsWhiteout() {
				if target, ok := e.WhiteoutTarget(); ok {
					path = target
				}
			}
			if !vpath.HasPrefix(path, prefix) && !vpath.HasPrefix(e.Path, prefix) {
				continue
			}
			hidden := true
			if e.IsWhiteout() {
				// A whiteout marker is in effect (not hidden) when it is the
				// topmost one for its path and its target has no union winner.
				target, _ := e.WhiteoutTarget()
				if _, won := winnerLayer[target]; !won && !seenWhiteout[e.Path] && lastPos[e.Path] == idx {
					hidden = false
				}
				if lastPos[e.Path] == idx {
					seenWhiteout[e.Path] = true
				}
			} else if wl, ok := winnerLayer[e.Path]; ok && wl == i && lastPos[e.Path] == idx {
				hidden = false
			}
			out = append(out, VisibleEntry{
				Path:       e.Path,
				Entry:      e,
				LayerIndex: i,
				Hidden:     hidden,
				Whiteout:   e.IsWhiteout(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].LayerIndex > out[j].LayerIndex
	})
	return out, nil
}

// lastWinsMap/lastWinsOrder implement "within a single layer, last entry
// with that path wins" (spec §4.6) while keeping the first-seen order of
// surviving keys stable, which keeps listUnion's top-down precedence
// well-defined regardless of duplicate positions.
func lastWinsMap(entries []tarcodec.Entry) map[string]tarcodec.Entry {
	m := make(map[string]tarcodec.Entry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m
}

func lastWinsOrder(entries []tarcodec.Entry) []string {
	seen := make(map[string]bool, len(entries))
	var order []string
	for _, e := range entries {
		if !seen[e.Path] {
			seen[e.Path] = true
			order = append(order, e.Path)
		}
	}
	return order
}
