package ops

import (
	"os"
	"time"

	"github.com/google/renameio"

	"github.com/mikesmullin/tcow/internal/file"
	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/tcowerr"
	"github.com/mikesmullin/tcow/internal/union"
)

// CompactOptions governs one call to Compact.
type CompactOptions struct {
	// OutputPath is where the compacted file is written when InPlace is
	// false. It must not already exist.
	OutputPath string
	InPlace    bool
	// DryRun computes the compacted entry set without writing anything,
	// for `compact --dry-run` to report what would change.
	DryRun bool
	Now    time.Time
}

// CompactResult reports what Compact did or would do.
type CompactResult struct {
	EntryCount   int
	LayersBefore int
}

// Compact implements spec §4.8's compaction procedure: build the union
// entry set, serialize it path-sorted into a single fresh Base layer, and
// either write it to OutputPath or (InPlace) atomically replace the
// source file. The in-place path is grounded on
// internal/install/install.go's renameio.TempFile/CloseAtomicallyReplace
// idiom, generalized here from "replace one extracted file" to "replace
// the whole .tcow artifact" via renameio's single-shot WriteFile helper.
func Compact(in *file.File, opts CompactOptions) (*CompactResult, error) {
	visible, err := union.List(in.Store(), in.Engine().Buffer(), "", union.ModeUnion, 0)
	if err != nil {
		return nil, err
	}
	// union.List(ModeUnion) already returns entries sorted lexicographically
	// by path, satisfying spec §4.8 step 3's determinism requirement.
	entries := make([]tarcodec.Entry, 0, len(visible))
	for _, v := range visible {
		entries = append(entries, v.Entry)
	}

	result := &CompactResult{EntryCount: len(entries), LayersBefore: in.Store().Len()}
	if opts.DryRun {
		return result, nil
	}

	image, err := file.EncodeImage(entries, opts.Now)
	if err != nil {
		return nil, err
	}

	if opts.InPlace {
		if err := renameio.WriteFile(in.Path(), image, 0644); err != nil {
			return nil, tcowerr.IO("atomically replace in-place", err)
		}
		return result, nil
	}

	if _, err := os.Stat(opts.OutputPath); err == nil {
		return nil, tcowerr.State("compact output path already exists: " + opts.OutputPath)
	}
	if err := os.WriteFile(opts.OutputPath, image, 0644); err != nil {
		return nil, tcowerr.IO("write compacted file", err)
	}
	return result, nil
}
