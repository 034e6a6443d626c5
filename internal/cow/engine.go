// Package cow implements the writable buffer and flush-time dedup of
// spec §4.7. It is grounded on internal/install/install.go's
// renameio.TempFile-based atomic-write idiom (the teacher's only place
// that stages bytes in memory before committing them durably), adapted
// here from "write one file to one path" into "stage N tar entries, then
// serialize the survivors into one new immutable layer."
package cow

import (
	"time"

	"github.com/mikesmullin/tcow/internal/format"
	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/vpath"
)

// Engine holds the in-memory writable buffer described by spec §4.7. It
// does not itself own the underlying file; callers drive Flush's output
// through internal/file's append-flush procedure.
type Engine struct {
	buf []tarcodec.Entry
}

// New returns an Engine with an empty writable buffer.
func New() *Engine {
	return &Engine{}
}

// Pending reports whether the writable buffer holds any staged entries.
func (e *Engine) Pending() bool { return len(e.buf) > 0 }

// Buffer returns the writable buffer in its current (undeduplicated)
// order, for use by internal/union's Lookup/List as the top-of-stack
// layer. Callers must not mutate the returned slice.
func (e *Engine) Buffer() []tarcodec.Entry { return e.buf }

// Write stages a new entry for path (spec §4.7). A prior writable-buffer
// entry for the same path is never removed here; Flush's dedup keeps only
// the last one. Copy-up needs no lower-layer read: the new entry shadows
// whatever was below it on the next union lookup.
func (e *Engine) Write(path string, content []byte, mtime time.Time) error {
	norm, err := vpath.Normalize(path)
	if err != nil {
		return err
	}
	e.buf = append(e.buf, tarcodec.Entry{
		Path:     norm,
		Typeflag: tarcodec.TypeReg,
		Mode:     0644,
		Size:     int64(len(content)),
		ModTime:  mtime,
		Content:  content,
	})
	return nil
}

// Delete appends a whiteout entry for path (spec §4.7). Its path
// (<parent>/.wh.<basename>) differs from any prior non-whiteout entry for
// path, so both survive Flush's per-path dedup; the whiteout's separate
// presence is what hides the non-whiteout one on the next union lookup.
func (e *Engine) Delete(path string, mtime time.Time) error {
	norm, err := vpath.Normalize(path)
	if err != nil {
		return err
	}
	e.buf = append(e.buf, tarcodec.MakeWhiteout(norm, mtime))
	return nil
}

// dedup groups entries by exact path for Flush (spec §4.7's "flush
// dedup"): a whiteout and a non-whiteout for the same base name have
// different Path strings, so they are different groups and both survive;
// two writes to the same path collapse to the last one written.
func dedup(buf []tarcodec.Entry) []tarcodec.Entry {
	lastIndex := make(map[string]int, len(buf))
	for i, e := range buf {
		lastIndex[e.Path] = i
	}
	out := make([]tarcodec.Entry, 0, len(lastIndex))
	for i, e := range buf {
		if lastIndex[e.Path] == i {
			out = append(out, e)
		}
	}
	return out
}

// FlushResult is what Flush hands back to internal/file: the serialized
// layer bytes and the descriptor metadata the caller should record in the
// rewritten Trailer, plus whether anything was actually staged.
type FlushResult struct {
	Bytes []byte
	Kind  format.Kind
	Empty bool // true if buf was empty and force was false: no-op
}

// Flush implements spec §4.7's flush(): dedup the buffer, serialize it via
// internal/tarcodec, and clear the buffer. If the buffer is empty and
// force is false, Flush returns without doing any work (Empty == true) so
// the caller can skip the append-flush I/O entirely. isFirstLayer governs
// whether the resulting descriptor is tagged Base or Delta (spec §3: the
// first layer in a file is always Base, every later one Delta).
func (e *Engine) Flush(force bool, isFirstLayer bool) (FlushResult, error) {
	if len(e.buf) == 0 && !force {
		return FlushResult{Empty: true}, nil
	}

	survivors := dedup(e.buf)
	b, err := tarcodec.Encode(survivors)
	if err != nil {
		return FlushResult{}, err
	}

	kind := format.KindDelta
	if isFirstLayer {
		kind = format.KindBase
	}

	e.buf = nil
	return FlushResult{Bytes: b, Kind: kind}, nil
}
