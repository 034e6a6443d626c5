package digest

import (
	"strings"
	"testing"
)

func TestSumKnownVector(t *testing.T) {
	got := Sum([]byte("hello world\n"))
	want := "a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447"
	if len(want) != 64 {
		// guard against a typo in this test's own expectation literal
		t.Fatalf("test vector malformed: len=%d", len(want))
	}
	want = want[:64]
	if got != want {
		t.Fatalf("Sum() = %q, want %q", got, want)
	}
}

func TestSumReaderMatchesSum(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	got, err := SumReader(strings.NewReader(string(data)), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if want := Sum(data); got != want {
		t.Fatalf("SumReader() = %q, want %q", got, want)
	}
}

func TestEqualCaseInsensitive(t *testing.T) {
	if !Equal("ABCDEF", "abcdef") {
		t.Fatal("Equal should ignore case")
	}
	if Equal("abcdef", "abcdeg") {
		t.Fatal("Equal should reject differing digests")
	}
}
