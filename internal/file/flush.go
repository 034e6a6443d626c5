package file

import (
	"time"

	"golang.org/x/exp/mmap"

	"github.com/mikesmullin/tcow/internal/digest"
	"github.com/mikesmullin/tcow/internal/format"
	"github.com/mikesmullin/tcow/internal/layer"
	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// FlushOptions governs one call to AppendFlush.
type FlushOptions struct {
	// Force checkpoints even when the writable buffer is empty, emitting
	// a bare end-of-archive delta (spec §4.8, used by `snapshot`).
	Force bool
	// Label, when non-nil, replaces the trailer's label field for this
	// and subsequent flushes until overwritten (spec §4.8).
	Label *string
	// Digest requests the new layer be digested and stamped into its
	// descriptor (spec §4.2); verify re-derives this independently.
	Digest bool
	Now    time.Time
}

// AppendFlush implements spec §4.4's append-flush procedure. It dedups
// and serializes the engine's writable buffer, then performs:
// truncate-to-old-trailer-offset, append new layer, append new trailer,
// append new footer, fsync — the total order spec §5 requires for the
// "best-effort in-place" atomicity level. Returns nil, nil if the buffer
// was empty and Force was false.
func (f *File) AppendFlush(opts FlushOptions) (*format.LayerDescriptor, error) {
	isFirst := len(f.trailer.Layers) == 0
	res, err := f.engine.Flush(opts.Force, isFirst)
	if err != nil {
		return nil, err
	}
	if res.Empty {
		return nil, nil
	}

	oldOffset := int64(0)
	if len(f.trailer.Layers) > 0 {
		last := f.trailer.Layers[len(f.trailer.Layers)-1]
		oldOffset = int64(last.Offset + last.Size)
	} else {
		oldOffset = int64(format.HeaderSize)
	}

	if err := f.osFile.Truncate(oldOffset); err != nil {
		return nil, tcowerr.IO("truncate before append", err)
	}

	if _, err := f.osFile.WriteAt(res.Bytes, oldOffset); err != nil {
		return nil, tcowerr.IO("append layer", err)
	}

	desc := format.LayerDescriptor{
		Offset: uint64(oldOffset),
		Size:   uint64(len(res.Bytes)),
		Kind:   res.Kind,
	}
	if opts.Digest {
		d := digest.Sum(res.Bytes)
		desc.Digest = &d
	}
	ts := opts.Now.UTC().Format(time.RFC3339)
	desc.CreatedAt = ts

	newTrailer := format.Trailer{
		FormatVersion: format.CurrentVersion,
		Layers:        append(append([]format.LayerDescriptor{}, f.trailer.Layers...), desc),
		LastModified:  ts,
		Label:         f.trailer.Label,
	}
	if opts.Label != nil {
		newTrailer.Label = opts.Label
	}

	trailerBytes, err := format.EncodeTrailer(newTrailer)
	if err != nil {
		return nil, err
	}

	trailerOffset := oldOffset + int64(len(res.Bytes))
	if _, err := f.osFile.WriteAt(trailerBytes, trailerOffset); err != nil {
		return nil, tcowerr.IO("append trailer", err)
	}

	footer := format.Footer{
		TrailerOffset: uint64(trailerOffset),
		TrailerLen:    uint32(len(trailerBytes)),
	}
	footerOffset := trailerOffset + int64(len(trailerBytes))
	if _, err := f.osFile.WriteAt(footer.Encode(), footerOffset); err != nil {
		return nil, tcowerr.IO("append footer", err)
	}

	if err := f.osFile.Sync(); err != nil {
		return nil, tcowerr.IO("fsync", err)
	}

	f.trailer = newTrailer
	if err := f.reopenStore(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// RewriteTrailerDescriptors replaces the trailer's layer descriptor list
// in place without touching any layer bytes, re-encoding and re-appending
// only the trailer and footer. Used by `verify --fix-missing` (spec §6)
// to stamp freshly-computed digests without an append-flush of a new
// layer.
func (f *File) RewriteTrailerDescriptors(descs []format.LayerDescriptor, now time.Time) error {
	last := descs[len(descs)-1]
	trailerOffset := int64(last.Offset + last.Size)

	if err := f.osFile.Truncate(trailerOffset); err != nil {
		return tcowerr.IO("truncate before trailer rewrite", err)
	}

	newTrailer := format.Trailer{
		FormatVersion: format.CurrentVersion,
		Layers:        descs,
		LastModified:  now.UTC().Format(time.RFC3339),
		Label:         f.trailer.Label,
	}
	trailerBytes, err := format.EncodeTrailer(newTrailer)
	if err != nil {
		return err
	}
	if _, err := f.osFile.WriteAt(trailerBytes, trailerOffset); err != nil {
		return tcowerr.IO("rewrite trailer", err)
	}

	footer := format.Footer{
		TrailerOffset: uint64(trailerOffset),
		TrailerLen:    uint32(len(trailerBytes)),
	}
	footerOffset := trailerOffset + int64(len(trailerBytes))
	if _, err := f.osFile.WriteAt(footer.Encode(), footerOffset); err != nil {
		return tcowerr.IO("rewrite footer", err)
	}
	if err := f.osFile.Sync(); err != nil {
		return tcowerr.IO("fsync", err)
	}

	f.trailer = newTrailer
	return f.reopenStore()
}

// reopenStore re-mmaps the file (its size just changed under the old
// mapping) and rebuilds the Layer store with the freshly-written
// descriptor list, so subsequent reads through Store() see the layer
// that was just flushed (spec §4.5: "mutations...only manifest after
// flush re-opens the trailer image"). A re-mmap failure is returned as an
// IOError and leaves the old mapping and store in place.
func (f *File) reopenStore() error {
	fresh, err := mmap.Open(f.path)
	if err != nil {
		return tcowerr.IO("re-mmap after flush", err)
	}
	f.reader.Close()
	f.reader = fresh

	descs := make([]format.LayerDescriptor, len(f.trailer.Layers))
	copy(descs, f.trailer.Layers)
	f.store = layer.New(f.reader, descs)
	return nil
}
