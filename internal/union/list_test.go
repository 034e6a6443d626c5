package union

import (
	"testing"
	"time"

	"github.com/mikesmullin/tcow/internal/tarcodec"
)

func TestListUnionPrefixFiltersAndSorts(t *testing.T) {
	store := buildStore(t, [][]tarcodec.Entry{
		{reg("dir/b.txt", "b"), reg("dir/a.txt", "a"), reg("other/c.txt", "c")},
	})
	got, err := List(store, nil, "dir", ModeUnion, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries under dir/, got %d (%+v)", len(got), got)
	}
	if got[0].Path != "dir/a.txt" || got[1].Path != "dir/b.txt" {
		t.Fatalf("expected path-sorted order, got %q then %q", got[0].Path, got[1].Path)
	}
}

func TestListUnionDuplicateWithinLayerLastWins(t *testing.T) {
	store := buildStore(t, [][]tarcodec.Entry{
		{reg("f.txt", "first"), reg("f.txt", "second")},
	})
	got, err := List(store, nil, "", ModeUnion, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one f.txt, got %d", len(got))
	}
	if string(got[0].Entry.Content) != "second" {
		t.Fatalf("expected last duplicate within the layer to win, got %q", got[0].Entry.Content)
	}
}

func TestListSingleLayerShowsWhiteoutMarkers(t *testing.T) {
	store := buildStore(t, [][]tarcodec.Entry{
		{reg("f.txt", "x")},
		{tarcodec.MakeWhiteout("f.txt", time.Unix(0, 0))},
	})
	got, err := List(store, nil, "", ModeSingleLayer, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Whiteout {
		t.Fatalf("expected single whiteout marker entry, got %+v", got)
	}
}

func TestListAllHidesWhiteoutTarget(t *testing.T) {
	store := buildStore(t, [][]tarcodec.Entry{
		{reg("f.txt", "x")},
		{tarcodec.MakeWhiteout("f.txt", time.Unix(0, 0))},
	})
	got, err := List(store, nil, "", ModeAll, 0)
	if err != nil {
		t.Fatal(err)
	}
	var sawContent, sawWhiteout bool
	for _, v := range got {
		if v.Whiteout {
			sawWhiteout = true
			if v.Hidden {
				t.Fatal("the whiteout marker itself should not be flagged hidden")
			}
			continue
		}
		if v.Path == "f.txt" {
			sawContent = true
			if !v.Hidden {
				t.Fatal("base-layer f.txt should be hidden once whiteout-shadowed")
			}
		}
	}
	if !sawContent || !sawWhiteout {
		t.Fatalf("expected both the base entry and the whiteout marker in ModeAll, got %+v", got)
	}
}

func TestListUnionEmptyStoreAndWritable(t *testing.T) {
	store := buildStore(t, [][]tarcodec.Entry{{}})
	got, err := List(store, nil, "", ModeUnion, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %+v", got)
	}
}
