package tarcodec

import (
	"strconv"
	"strings"
	"time"

	"github.com/mikesmullin/tcow/internal/tcowerr"
)

// Decode parses one full tar stream and returns its entries in stored
// order, preserving duplicate paths (spec §4.1/§4.5: "last wins" within a
// layer is a property of the resolver, not the decoder).
func Decode(b []byte) ([]Entry, error) {
	if len(b)%blockSize != 0 {
		return nil, tcowerr.Format("TarParse: length not a multiple of 512")
	}
	var entries []Entry
	off := 0
	for {
		if off+blockSize > len(b) {
			return nil, tcowerr.Format("TarParse: truncated stream")
		}
		block := b[off : off+blockSize]
		if isZeroBlock(block) {
			if off+2*blockSize > len(b) || !isZeroBlock(b[off+blockSize:off+2*blockSize]) {
				return nil, tcowerr.Format("TarParse: missing end-of-archive marker")
			}
			return entries, nil
		}
		e, contentBlocks, err := decodeHeader(block)
		if err != nil {
			return nil, err
		}
		off += blockSize
		contentLen := int(e.Size)
		if off+contentBlocks*blockSize > len(b) {
			return nil, tcowerr.Format("TarParse: truncated content")
		}
		if contentLen > 0 {
			e.Content = append([]byte(nil), b[off:off+contentLen]...)
		}
		off += contentBlocks * blockSize
		entries = append(entries, e)
	}
}

func isZeroBlock(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func decodeHeader(b []byte) (Entry, int, error) {
	if err := verifyChecksum(b); err != nil {
		return Entry{}, 0, err
	}

	name := trimField(b[offName : offName+nameSize])
	prefix := trimField(b[offPrefix : offPrefix+prefixSize])
	path := name
	if prefix != "" {
		path = prefix + "/" + name
	}

	mode, err := parseOctal(b[offMode : offMode+8])
	if err != nil {
		return Entry{}, 0, tcowerr.Formatf("mode", err)
	}
	uid, err := parseOctal(b[offUID : offUID+8])
	if err != nil {
		return Entry{}, 0, tcowerr.Formatf("uid", err)
	}
	gid, err := parseOctal(b[offGID : offGID+8])
	if err != nil {
		return Entry{}, 0, tcowerr.Formatf("gid", err)
	}
	size, err := parseOctal(b[offSize : offSize+12])
	if err != nil {
		return Entry{}, 0, tcowerr.Formatf("size", err)
	}
	mtime, err := parseOctal(b[offMtime : offMtime+12])
	if err != nil {
		return Entry{}, 0, tcowerr.Formatf("mtime", err)
	}

	e := Entry{
		Path:     path,
		Mode:     mode,
		UID:      uid,
		GID:      gid,
		Size:     size,
		ModTime:  time.Unix(mtime, 0).UTC(),
		Typeflag: b[offTypeflag],
		Uname:    trimField(b[offUname : offUname+32]),
		Gname:    trimField(b[offGname : offGname+32]),
	}

	contentBlocks := int((size + blockSize - 1) / blockSize)
	return e, contentBlocks, nil
}

func verifyChecksum(b []byte) error {
	want, err := parseOctal(b[offChksum : offChksum+6])
	if err != nil {
		return tcowerr.Formatf("BadChecksum", err)
	}
	var sum int64
	for i, c := range b {
		if i >= offChksum && i < offChksum+8 {
			c = ' '
		}
		sum += int64(c)
	}
	if sum != want {
		return tcowerr.Format("BadChecksum")
	}
	return nil
}

func trimField(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return strings.TrimRight(string(b[:i]), " ")
}

// parseOctal reads an ASCII octal field terminated by a NUL or space.
func parseOctal(b []byte) (int64, error) {
	end := len(b)
	for i, c := range b {
		if c == 0 || c == ' ' {
			end = i
			break
		}
	}
	s := strings.TrimSpace(string(b[:end]))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 8, 64)
}
