// Package layer holds the read-only, lazily-materialized view of the
// on-disk layers described by a Trailer (spec §4.5). It is grounded on
// internal/squashfs/reader.go's NewReader(io.ReaderAt)-plus-section-reader
// pattern from the teacher repo, generalized from squashfs inodes to tar
// entries, and on internal/repo/reader.go's shape of a read-only store over
// a fixed descriptor list.
package layer

import (
	"io"
	"log"
	"sync"

	"github.com/mikesmullin/tcow/internal/format"
	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// Store is the read-only, in-memory representation of a .tcow file's
// layers: the ordered descriptor list, plus on-demand decoding of any
// layer's tar stream. It never mutates; writes go through internal/cow and
// only become visible here after a re-open (spec §4.5, §5).
type Store struct {
	r     io.ReaderAt
	descs []format.LayerDescriptor

	mu    sync.Mutex
	cache map[int][]tarcodec.Entry
}

// New builds a Store over r given the Trailer's validated descriptor list.
func New(r io.ReaderAt, descs []format.LayerDescriptor) *Store {
	return &Store{
		r:     r,
		descs: descs,
		cache: make(map[int][]tarcodec.Entry),
	}
}

// Len returns the number of on-disk layers.
func (s *Store) Len() int { return len(s.descs) }

// Descriptor returns the metadata for layer i.
func (s *Store) Descriptor(i int) format.LayerDescriptor { return s.descs[i] }

// Descriptors returns the full, ordered descriptor list.
func (s *Store) Descriptors() []format.LayerDescriptor { return s.descs }

// LayerBytes materializes the raw bytes of layer i by reading
// [offset, offset+size) from the underlying file (spec §4.5).
func (s *Store) LayerBytes(i int) ([]byte, error) {
	if i < 0 || i >= len(s.descs) {
		return nil, tcowerr.Format("layer index out of range")
	}
	d := s.descs[i]
	buf := make([]byte, d.Size)
	if _, err := s.r.ReadAt(buf, int64(d.Offset)); err != nil {
		return nil, tcowerr.IO("read layer bytes", err)
	}
	return buf, nil
}

// Entries decodes layer i via internal/tarcodec, returning entries in
// stored order. Duplicates within the layer are preserved; the resolver
// (internal/union) decides which one wins. Results are cached for the
// lifetime of the Store since layers are immutable once written.
func (s *Store) Entries(i int) ([]tarcodec.Entry, error) {
	s.mu.Lock()
	if cached, ok := s.cache[i]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	raw, err := s.LayerBytes(i)
	if err != nil {
		return nil, err
	}
	entries, err := tarcodec.Decode(raw)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsOpaqueWhiteout() {
			log.Printf("Reserved: layer %d contains opaque whiteout %s, treating as an ordinary zero-byte entry", i, e.Path)
			break
		}
	}

	s.mu.Lock()
	s.cache[i] = entries
	s.mu.Unlock()
	return entries, nil
}
