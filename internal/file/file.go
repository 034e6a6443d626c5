// Package file implements the on-disk .tcow file I/O of spec §4.4: Open,
// CreateEmpty, and the append-flush procedure. It is grounded on
// internal/install/install.go's mmap.Open(path)-then-wrap-a-reader idiom
// for the read path, and on the same file's renameio usage for the
// general shape of "stage bytes, then commit them durably" that
// AppendFlush generalizes from a single rename to an in-place
// truncate-append sequence (spec §5 calls out truncate-append as
// best-effort in-place, distinct from renameio's write-temp-then-rename
// strategy, which the teacher reserves for files it replaces wholesale).
package file

import (
	"os"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/mikesmullin/tcow/internal/cow"
	"github.com/mikesmullin/tcow/internal/digest"
	"github.com/mikesmullin/tcow/internal/format"
	"github.com/mikesmullin/tcow/internal/layer"
	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// File is an open .tcow artifact: the mmap'd reader backing the Layer
// store, the decoded Trailer, and the OS file handle append-flush writes
// through. Mutations only go through Engine and AppendFlush; Store is
// read-only for the lifetime of a File (spec §4.5).
type File struct {
	path    string
	osFile  *os.File
	reader  *mmap.ReaderAt
	header  format.Header
	trailer format.Trailer
	store   *layer.Store
	engine  *cow.Engine
}

// Path returns the path this File was opened from.
func (f *File) Path() string { return f.path }

// Store returns the read-only Layer store.
func (f *File) Store() *layer.Store { return f.store }

// Engine returns the writable-buffer CoW engine.
func (f *File) Engine() *cow.Engine { return f.engine }

// Trailer returns the last trailer read from disk (or written by the
// most recent Flush through this File).
func (f *File) Trailer() format.Trailer { return f.trailer }

// Close releases the mmap reader and the OS file handle. It does not
// release the advisory lock; callers hold that separately via
// internal/lockfile for the duration of the whole subcommand.
func (f *File) Close() error {
	rerr := f.reader.Close()
	oerr := f.osFile.Close()
	if rerr != nil {
		return tcowerr.IO("close mmap reader", rerr)
	}
	if oerr != nil {
		return tcowerr.IO("close file", oerr)
	}
	return nil
}

// Open implements spec §4.4's open procedure: read the footer, verify the
// header, decode and validate the trailer, and construct a Layer store
// over an mmap'd view of the file.
func Open(path string) (*File, error) {
	osFile, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, tcowerr.IO("open", err)
	}

	info, err := osFile.Stat()
	if err != nil {
		osFile.Close()
		return nil, tcowerr.IO("stat", err)
	}
	size := info.Size()
	if size < int64(format.HeaderSize+format.FooterSize) {
		osFile.Close()
		return nil, tcowerr.ErrTooShort
	}

	footerBuf := make([]byte, format.FooterSize)
	if _, err := osFile.ReadAt(footerBuf, size-int64(format.FooterSize)); err != nil {
		osFile.Close()
		return nil, tcowerr.IO("read footer", err)
	}
	footer, err := format.DecodeFooter(footerBuf)
	if err != nil {
		osFile.Close()
		return nil, err
	}
	if err := footer.ValidateBounds(size); err != nil {
		osFile.Close()
		return nil, err
	}

	headerBuf := make([]byte, format.HeaderSize)
	if _, err := osFile.ReadAt(headerBuf, 0); err != nil {
		osFile.Close()
		return nil, tcowerr.IO("read header", err)
	}
	header, err := format.DecodeHeader(headerBuf)
	if err != nil {
		osFile.Close()
		return nil, err
	}

	trailerBuf := make([]byte, footer.TrailerLen)
	if _, err := osFile.ReadAt(trailerBuf, int64(footer.TrailerOffset)); err != nil {
		osFile.Close()
		return nil, tcowerr.IO("read trailer", err)
	}
	trailer, err := format.DecodeTrailer(trailerBuf)
	if err != nil {
		osFile.Close()
		return nil, err
	}
	if err := trailer.ValidateLayers(int64(footer.TrailerOffset)); err != nil {
		osFile.Close()
		return nil, err
	}

	reader, err := mmap.Open(path)
	if err != nil {
		osFile.Close()
		return nil, tcowerr.IO("mmap open", err)
	}

	descs := make([]format.LayerDescriptor, len(trailer.Layers))
	copy(descs, trailer.Layers)

	return &File{
		path:    path,
		osFile:  osFile,
		reader:  reader,
		header:  header,
		trailer: trailer,
		store:   layer.New(reader, descs),
		engine:  cow.New(),
	}, nil
}

// CreateEmpty implements spec §4.4's create-empty procedure: a header, a
// single Base layer holding only the end-of-archive marker, a trailer
// with one descriptor, and a footer. The file is created, not opened;
// callers that want it open immediately should Open it afterward.
func CreateEmpty(path string, now time.Time) error {
	image, err := buildSingleBaseLayerImage(endOfArchive(), now, false)
	if err != nil {
		return err
	}
	osFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return tcowerr.IO("create", err)
	}
	defer osFile.Close()
	if _, err := osFile.Write(image); err != nil {
		return tcowerr.IO("write image", err)
	}
	return osFile.Sync()
}

// EncodeImage builds a complete single-Base-layer .tcow image in memory:
// header, one Base layer serialized from entries (sorted by path is the
// caller's responsibility, per spec §4.8's compaction step 3), trailer,
// and footer. It performs no file I/O, so callers can hand the result to
// renameio.WriteFile for an atomic whole-file replace.
func EncodeImage(entries []tarcodec.Entry, now time.Time) ([]byte, error) {
	layerBytes, err := tarcodec.Encode(entries)
	if err != nil {
		return nil, err
	}
	return buildSingleBaseLayerImage(layerBytes, now, true)
}

func buildSingleBaseLayerImage(layerBytes []byte, now time.Time, digestIt bool) ([]byte, error) {
	h := format.Header{Version: format.CurrentVersion, Flags: format.FlagHasBaseLayer}
	ts := now.UTC().Format(time.RFC3339)

	desc := format.LayerDescriptor{
		Offset:    format.HeaderSize,
		Size:      uint64(len(layerBytes)),
		Kind:      format.KindBase,
		CreatedAt: ts,
	}
	if digestIt {
		d := digest.Sum(layerBytes)
		desc.Digest = &d
	}

	trailer := format.Trailer{
		FormatVersion: format.CurrentVersion,
		Layers:        []format.LayerDescriptor{desc},
		LastModified:  ts,
	}
	trailerBytes, err := format.EncodeTrailer(trailer)
	if err != nil {
		return nil, err
	}

	footer := format.Footer{
		TrailerOffset: format.HeaderSize + uint64(len(layerBytes)),
		TrailerLen:    uint32(len(trailerBytes)),
	}

	var out []byte
	out = append(out, h.Encode()...)
	out = append(out, layerBytes...)
	out = append(out, trailerBytes...)
	out = append(out, footer.Encode()...)
	return out, nil
}

// endOfArchive is the two-zero-block (1024 byte) marker that terminates
// every valid layer, including an otherwise-empty one (spec §3, §4.8).
func endOfArchive() []byte { return make([]byte, 1024) }
