package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mikesmullin/tcow/internal/union"
)

func mustCreate(t *testing.T, path string) *File {
	t.Helper()
	if err := CreateEmpty(path, time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestCreateEmptyThenOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tcow")
	f := mustCreate(t, path)
	if f.Store().Len() != 1 {
		t.Fatalf("expected one Base layer, got %d", f.Store().Len())
	}
	if f.Trailer().Layers[0].Kind != "Base" {
		t.Fatalf("first layer kind = %q, want Base", f.Trailer().Layers[0].Kind)
	}
}

func TestCreateAndReadScenario(t *testing.T) {
	// spec §8 scenario 1: create and read.
	path := filepath.Join(t.TempDir(), "scenario1.tcow")
	f := mustCreate(t, path)

	if err := f.Engine().Write("hello.txt", []byte("hello world\n"), time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.AppendFlush(FlushOptions{Now: time.Unix(1, 0)}); err != nil {
		t.Fatal(err)
	}

	res, err := union.Lookup(f.Store(), f.Engine().Buffer(), "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != union.Found || string(res.Entry.Content) != "hello world\n" {
		t.Fatalf("got %+v", res)
	}
	// CreateEmpty already wrote the empty Base layer 0, so the first flush
	// lands in Delta layer 1.
	if res.LayerIndex != 1 {
		t.Fatalf("layer index = %d, want 1", res.LayerIndex)
	}
}

func TestOverwriteIsCopyUpAcrossFlushes(t *testing.T) {
	// spec §8 scenario 2: overwrite is copy-up.
	path := filepath.Join(t.TempDir(), "scenario2.tcow")
	f := mustCreate(t, path)

	f.Engine().Write("hello.txt", []byte("hello world\n"), time.Unix(0, 0))
	if _, err := f.AppendFlush(FlushOptions{Now: time.Unix(1, 0)}); err != nil {
		t.Fatal(err)
	}
	f.Engine().Write("hello.txt", []byte("v2\n"), time.Unix(2, 0))
	if _, err := f.AppendFlush(FlushOptions{Now: time.Unix(2, 0)}); err != nil {
		t.Fatal(err)
	}

	if f.Store().Len() != 3 {
		t.Fatalf("expected three on-disk layers (empty base + two deltas), got %d", f.Store().Len())
	}

	res, err := union.Lookup(f.Store(), nil, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Entry.Content) != "v2\n" {
		t.Fatalf("cat = %q, want v2", res.Entry.Content)
	}

	all, err := union.List(f.Store(), nil, "", union.ModeAll, 0)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, v := range all {
		if v.Path == "hello.txt" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected two hello.txt entries across layers, got %d", count)
	}
}

func TestSnapshotForcesEmptyDelta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.tcow")
	f := mustCreate(t, path)

	label := "checkpoint-1"
	desc, err := f.AppendFlush(FlushOptions{Force: true, Label: &label, Now: time.Unix(5, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if desc == nil {
		t.Fatal("expected a descriptor for a forced snapshot")
	}
	if f.Trailer().Label == nil || *f.Trailer().Label != label {
		t.Fatalf("trailer label = %v, want %q", f.Trailer().Label, label)
	}
	if f.Store().Len() != 2 {
		t.Fatalf("expected base + snapshot delta, got %d layers", f.Store().Len())
	}
}

func TestAppendFlushWithDigestStampsDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.tcow")
	f := mustCreate(t, path)

	f.Engine().Write("a.txt", []byte("x"), time.Unix(0, 0))
	desc, err := f.AppendFlush(FlushOptions{Digest: true, Now: time.Unix(1, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if desc.Digest == nil || len(*desc.Digest) != 64 {
		t.Fatalf("expected a 64-char hex digest, got %v", desc.Digest)
	}
}

func TestReopenAfterFlushSeesNewLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.tcow")
	f := mustCreate(t, path)
	f.Engine().Write("a.txt", []byte("x"), time.Unix(0, 0))
	if _, err := f.AppendFlush(FlushOptions{Now: time.Unix(1, 0)}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Store().Len() != 2 {
		t.Fatalf("expected two layers after reopen, got %d", reopened.Store().Len())
	}
	res, err := union.Lookup(reopened.Store(), nil, "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != union.Found || string(res.Entry.Content) != "x" {
		t.Fatalf("got %+v", res)
	}
}
