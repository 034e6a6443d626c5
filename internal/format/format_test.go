package format

import (
	"bytes"
	"testing"
)

func TestHeaderRoundtrip(t *testing.T) {
	h := Header{Version: CurrentVersion, Flags: FlagHasBaseLayer}
	b := h.Encode()
	if len(b) != HeaderSize {
		t.Fatalf("encoded header length = %d, want %d", len(b), HeaderSize)
	}
	if !bytes.Equal(b[0:4], []byte("TCOW")) {
		t.Fatalf("header magic = %q, want TCOW", b[0:4])
	}
	got, err := DecodeHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("DecodeHeader() = %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	b := Header{Version: CurrentVersion}.Encode()
	b[0] = 'X'
	if _, err := DecodeHeader(b); err == nil {
		t.Fatal("expected BadHeaderMagic error")
	}
}

func TestDecodeHeaderUnsupportedVersion(t *testing.T) {
	b := Header{Version: 99}.Encode()
	if _, err := DecodeHeader(b); err == nil {
		t.Fatal("expected UnsupportedVersion error")
	}
}

func TestFooterRoundtrip(t *testing.T) {
	f := Footer{TrailerOffset: 2048, TrailerLen: 128}
	b := f.Encode()
	if len(b) != FooterSize {
		t.Fatalf("encoded footer length = %d, want %d", len(b), FooterSize)
	}
	if !bytes.Equal(b[12:16], []byte("W0CT")) {
		t.Fatalf("footer magic = %q, want W0CT", b[12:16])
	}
	got, err := DecodeFooter(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != f {
		t.Fatalf("DecodeFooter() = %+v, want %+v", got, f)
	}
	if err := got.ValidateBounds(2048 + 128 + FooterSize); err != nil {
		t.Fatalf("ValidateBounds: %v", err)
	}
	if err := got.ValidateBounds(9999); err == nil {
		t.Fatal("expected TrailerBoundsInvalid for mismatched file size")
	}
}

func TestTrailerRoundtripWithNulls(t *testing.T) {
	digest := "deadbeef"
	tr := Trailer{
		FormatVersion: CurrentVersion,
		Layers: []LayerDescriptor{
			{Offset: 16, Size: 1024, Kind: KindBase, Digest: nil, CreatedAt: "2026-01-01T00:00:00Z"},
			{Offset: 1040, Size: 2048, Kind: KindDelta, Digest: &digest, CreatedAt: "2026-01-02T00:00:00Z"},
		},
		LastModified: "2026-01-02T00:00:00Z",
		Label:        nil,
	}
	b, err := EncodeTrailer(tr)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTrailer(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Layers[0].Digest != nil {
		t.Fatal("expected nil digest for layer 0 to survive round-trip")
	}
	if got.Layers[1].Digest == nil || *got.Layers[1].Digest != digest {
		t.Fatalf("layer 1 digest = %v, want %q", got.Layers[1].Digest, digest)
	}
	if got.Label != nil {
		t.Fatal("expected nil label to survive round-trip")
	}
	if err := got.ValidateLayers(1040 + 2048); err != nil {
		t.Fatalf("ValidateLayers: %v", err)
	}
}

func TestEncodeTrailerIsDeterministic(t *testing.T) {
	tr := Trailer{
		FormatVersion: CurrentVersion,
		Layers: []LayerDescriptor{
			{Offset: 16, Size: 1024, Kind: KindBase, CreatedAt: "2026-01-01T00:00:00Z"},
		},
		LastModified: "2026-01-01T00:00:00Z",
	}
	a, err := EncodeTrailer(tr)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeTrailer(tr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("EncodeTrailer is not deterministic for identical input")
	}
}

func TestValidateLayersRejectsNonContiguous(t *testing.T) {
	tr := Trailer{
		FormatVersion: CurrentVersion,
		Layers: []LayerDescriptor{
			{Offset: 16, Size: 1024, Kind: KindBase},
			{Offset: 2000, Size: 100, Kind: KindDelta}, // gap
		},
	}
	if err := tr.ValidateLayers(2100); err == nil {
		t.Fatal("expected TrailerBoundsInvalid for non-contiguous descriptors")
	}
}
