// Package format implements the binary envelope around a .tcow file: the
// fixed 16-byte Header and Footer (spec §3/§6), encoded with
// encoding/binary the same way internal/squashfs's superblock is in the
// teacher repo, and the structured Trailer index (spec §4.3), encoded as a
// deterministic, self-describing, text-keyed CBOR map via
// github.com/fxamacker/cbor/v2 (see DESIGN.md for why CBOR and not
// encoding/binary is used for the Trailer specifically).
package format

import (
	"encoding/binary"

	"github.com/mikesmullin/tcow/internal/tcowerr"
)

const (
	HeaderSize = 16
	FooterSize = 16

	headerMagic = "TCOW"
	footerMagic = "W0CT"

	// FlagHasBaseLayer is bit 0 of the header's flag bitfield (spec §3).
	FlagHasBaseLayer uint16 = 1 << 0
)

// CurrentVersion is the only format version this implementation reads or
// writes (spec §3, §4.4 step 3).
const CurrentVersion uint16 = 1

// Header is the first 16 bytes of a .tcow file.
type Header struct {
	Version uint16
	Flags   uint16
}

// Encode serializes h into the fixed 16-byte on-disk layout: magic,
// version (u16 LE), flags (u16 LE), 8 reserved zero bytes.
func (h Header) Encode() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], headerMagic)
	binary.LittleEndian.PutUint16(b[4:6], h.Version)
	binary.LittleEndian.PutUint16(b[6:8], h.Flags)
	// b[8:16] stays zero (reserved).
	return b
}

// DecodeHeader parses the first 16 bytes of a .tcow file.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, tcowerr.Format("TooShort")
	}
	if string(b[0:4]) != headerMagic {
		return Header{}, tcowerr.ErrBadHeaderMagic
	}
	h := Header{
		Version: binary.LittleEndian.Uint16(b[4:6]),
		Flags:   binary.LittleEndian.Uint16(b[6:8]),
	}
	if h.Version != CurrentVersion {
		return Header{}, tcowerr.ErrUnsupportedVersion
	}
	return h, nil
}
