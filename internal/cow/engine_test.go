package cow

import (
	"testing"
	"time"

	"github.com/mikesmullin/tcow/internal/format"
	"github.com/mikesmullin/tcow/internal/tarcodec"
)

func TestFlushEmptyBufferIsNoop(t *testing.T) {
	e := New()
	res, err := e.Flush(false, true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Empty {
		t.Fatal("expected Empty flush result for untouched engine")
	}
}

func TestFlushForceEmitsEndOfArchive(t *testing.T) {
	e := New()
	res, err := e.Flush(true, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Empty {
		t.Fatal("force flush should not report Empty")
	}
	entries, err := tarcodec.Decode(res.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected a pure end-of-archive stream, got %d entries", len(entries))
	}
	if res.Kind != format.KindBase {
		t.Fatalf("first flush should be tagged Base, got %v", res.Kind)
	}
}

func TestWriteThenFlushProducesOneEntry(t *testing.T) {
	e := New()
	if err := e.Write("hello.txt", []byte("hello world\n"), time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}
	res, err := e.Flush(false, true)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := tarcodec.Decode(res.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != "hello.txt" || string(entries[0].Content) != "hello world\n" {
		t.Fatalf("got %+v", entries)
	}
	if e.Pending() {
		t.Fatal("buffer should be cleared after flush")
	}
}

func TestDoubleWriteDedupsToLast(t *testing.T) {
	e := New()
	e.Write("f.txt", []byte("v1"), time.Unix(0, 0))
	e.Write("f.txt", []byte("v2"), time.Unix(0, 0))
	res, err := e.Flush(false, true)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := tarcodec.Decode(res.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || string(entries[0].Content) != "v2" {
		t.Fatalf("expected dedup to keep only the latest write, got %+v", entries)
	}
}

func TestWriteThenDeleteBothSurviveDedup(t *testing.T) {
	e := New()
	e.Write("f.txt", []byte("v1"), time.Unix(0, 0))
	e.Delete("f.txt", time.Unix(0, 0))
	res, err := e.Flush(false, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != format.KindDelta {
		t.Fatalf("non-first flush should be tagged Delta, got %v", res.Kind)
	}
	entries, err := tarcodec.Decode(res.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both the write and the whiteout to survive dedup (different paths), got %+v", entries)
	}
	var sawContent, sawWhiteout bool
	for _, e := range entries {
		if e.IsWhiteout() {
			sawWhiteout = true
		} else if e.Path == "f.txt" {
			sawContent = true
		}
	}
	if !sawContent || !sawWhiteout {
		t.Fatalf("expected one content entry and one whiteout entry, got %+v", entries)
	}
}

func TestDeleteProducesWhiteoutPath(t *testing.T) {
	e := New()
	e.Delete("dir/f.txt", time.Unix(0, 0))
	res, err := e.Flush(false, false)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := tarcodec.Decode(res.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != "dir/.wh.f.txt" {
		t.Fatalf("got %+v", entries)
	}
	target, ok := entries[0].WhiteoutTarget()
	if !ok || target != "dir/f.txt" {
		t.Fatalf("WhiteoutTarget() = %q, %v", target, ok)
	}
}

func TestWriteRejectsInvalidPath(t *testing.T) {
	e := New()
	if err := e.Write("../escape", []byte("x"), time.Unix(0, 0)); err == nil {
		t.Fatal("expected InvalidPath error")
	}
}

func TestBufferExposesUndedupedOrder(t *testing.T) {
	e := New()
	e.Write("a.txt", []byte("1"), time.Unix(0, 0))
	e.Write("a.txt", []byte("2"), time.Unix(0, 0))
	buf := e.Buffer()
	if len(buf) != 2 {
		t.Fatalf("Buffer() should expose both pre-dedup writes, got %d", len(buf))
	}
}
