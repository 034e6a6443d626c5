package lockfile

import (
	"path/filepath"
	"testing"
)

func TestAcquireAndReleaseExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.tcow")
	lk, err := Acquire(path, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if !lk.Exclusive() {
		t.Fatal("expected exclusive lock")
	}
	if err := lk.Release(); err != nil {
		t.Fatal(err)
	}
}

func TestSecondExclusiveNonblockingFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.tcow")
	first, err := Acquire(path, true, false)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Release()

	if _, err := Acquire(path, true, true); err == nil {
		t.Fatal("expected the second nonblocking exclusive acquire to fail")
	}
}

func TestSharedLocksCoexist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.tcow")
	a, err := Acquire(path, false, true)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()

	b, err := Acquire(path, false, true)
	if err != nil {
		t.Fatalf("two shared locks should coexist: %v", err)
	}
	defer b.Release()
}

func TestReleaseIsIdempotentOnNil(t *testing.T) {
	var lk *Lock
	if err := lk.Release(); err != nil {
		t.Fatal(err)
	}
}
