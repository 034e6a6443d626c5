package format

import (
	"encoding/binary"

	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// Footer is the final 16 bytes of a .tcow file: it locates the Trailer.
type Footer struct {
	TrailerOffset uint64
	TrailerLen    uint32
}

// Encode serializes f: trailer_offset (u64 LE), trailer_len (u32 LE),
// magic "W0CT" (spec §4.3).
func (f Footer) Encode() []byte {
	b := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(b[0:8], f.TrailerOffset)
	binary.LittleEndian.PutUint32(b[8:12], f.TrailerLen)
	copy(b[12:16], footerMagic)
	return b
}

// DecodeFooter parses the last 16 bytes of a .tcow file.
func DecodeFooter(b []byte) (Footer, error) {
	if len(b) != FooterSize {
		return Footer{}, tcowerr.Format("TooShort")
	}
	if string(b[12:16]) != footerMagic {
		return Footer{}, tcowerr.ErrBadFooterMagic
	}
	return Footer{
		TrailerOffset: binary.LittleEndian.Uint64(b[0:8]),
		TrailerLen:    binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

// ValidateBounds checks the footer-to-filesize invariant of spec §3:
// trailer_offset + trailer_len + 16 = file_size, and the trailer must not
// extend back into the 16-byte header region.
func (f Footer) ValidateBounds(fileSize int64) error {
	end := int64(f.TrailerOffset) + int64(f.TrailerLen) + FooterSize
	if end != fileSize {
		return tcowerr.ErrTrailerBoundsInvalid
	}
	if int64(f.TrailerOffset) < HeaderSize {
		return tcowerr.ErrTrailerBoundsInvalid
	}
	return nil
}
