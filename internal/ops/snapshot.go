// Package ops composes internal/file, internal/cow, and internal/union
// into the higher-level procedures spec §4.8 names: Snapshot, Compaction,
// and Verify. It plays the role the teacher's cmd/distri/*.go subcommand
// files play relative to internal/install and internal/repo: a thin
// layer that sequences primitives, leaving argument parsing to cmd/tcow.
package ops

import (
	"time"

	"github.com/mikesmullin/tcow/internal/file"
	"github.com/mikesmullin/tcow/internal/format"
)

// Snapshot force-flushes f, optionally stamping a new label, per spec
// §4.8. If the writable buffer was empty, the resulting layer is a bare
// end-of-archive delta (spec §4.7's Flush with force=true).
func Snapshot(f *file.File, label *string, now time.Time) (*format.LayerDescriptor, error) {
	return f.AppendFlush(file.FlushOptions{Force: true, Label: label, Digest: true, Now: now})
}
