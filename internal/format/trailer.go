package format

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// Kind distinguishes the first (Base) layer from every later (Delta) one
// (spec §3).
type Kind string

const (
	KindBase  Kind = "Base"
	KindDelta Kind = "Delta"
)

// LayerDescriptor is the per-layer metadata stored in the Trailer
// (spec §3). Digest is a pointer so that an absent digest can round-trip
// as an explicit CBOR null rather than the empty string.
type LayerDescriptor struct {
	Offset    uint64  `cbor:"offset"`
	Size      uint64  `cbor:"size"`
	Kind      Kind    `cbor:"kind"`
	Digest    *string `cbor:"digest"`
	CreatedAt string  `cbor:"created_at"`
}

// Trailer is the structured index at the tail of a .tcow file (spec §3,
// §4.3). Field order below is the order the CBOR map encodes fields in
// (fxamacker/cbor preserves Go struct declaration order), satisfying the
// spec's determinism requirement without resorting to canonical-CBOR key
// sorting.
type Trailer struct {
	FormatVersion uint16            `cbor:"version"`
	Layers        []LayerDescriptor `cbor:"layers"`
	LastModified  string            `cbor:"last_modified"`
	Label         *string           `cbor:"label"`
}

// EncodeTrailer serializes t deterministically. Optional fields (Label,
// and each descriptor's Digest) are always present as an explicit key,
// encoded as CBOR null when nil, never omitted — so the map shape is
// stable across encodes (spec §4.3).
func EncodeTrailer(t Trailer) ([]byte, error) {
	b, err := cbor.Marshal(t)
	if err != nil {
		return nil, tcowerr.IO("cbor marshal trailer", err)
	}
	return b, nil
}

// DecodeTrailer parses a Trailer, accepting either an absent key or an
// explicit null for optional fields.
func DecodeTrailer(b []byte) (Trailer, error) {
	var t Trailer
	if err := cbor.Unmarshal(b, &t); err != nil {
		return Trailer{}, tcowerr.Formatf("TrailerDecode", err)
	}
	if t.FormatVersion != CurrentVersion {
		return Trailer{}, tcowerr.ErrUnsupportedVersion
	}
	return t, nil
}

// ValidateLayers checks the offset-continuity invariants of spec §3/§8:
// descriptor[0].offset == HeaderSize; descriptor[i+1].offset ==
// descriptor[i].offset + descriptor[i].size; descriptor[0].kind == Base;
// every later descriptor is Delta; the last descriptor must end exactly at
// trailerOffset.
func (t Trailer) ValidateLayers(trailerOffset int64) error {
	if len(t.Layers) == 0 {
		return tcowerr.ErrTrailerBoundsInvalid
	}
	if t.Layers[0].Offset != HeaderSize {
		return tcowerr.ErrTrailerBoundsInvalid
	}
	if t.Layers[0].Kind != KindBase {
		return tcowerr.ErrTrailerBoundsInvalid
	}
	for i, d := range t.Layers {
		if d.Offset < HeaderSize || int64(d.Offset) >= trailerOffset {
			return tcowerr.ErrTrailerBoundsInvalid
		}
		if i > 0 {
			prev := t.Layers[i-1]
			if d.Offset != prev.Offset+prev.Size {
				return tcowerr.ErrTrailerBoundsInvalid
			}
			if d.Kind != KindDelta {
				return tcowerr.ErrTrailerBoundsInvalid
			}
		}
	}
	last := t.Layers[len(t.Layers)-1]
	if int64(last.Offset)+int64(last.Size) != trailerOffset {
		return tcowerr.ErrTrailerBoundsInvalid
	}
	return nil
}
