package mountfs

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/mikesmullin/tcow/internal/layer"
	"github.com/mikesmullin/tcow/internal/tarcodec"
)

func reg(path, content string) tarcodec.Entry {
	return tarcodec.Entry{
		Path: path, Typeflag: tarcodec.TypeReg, Mode: 0644,
		Size: int64(len(content)), Content: []byte(content), ModTime: time.Unix(0, 0),
	}
}

func emptyStore() *layer.Store {
	return layer.New(bytes.NewReader(nil), nil)
}

func TestLookupAndReadFileThroughBuiltTree(t *testing.T) {
	writable := []tarcodec.Entry{reg("dir/hello.txt", "hi")}
	impl, err := New(emptyStore(), writable)
	if err != nil {
		t.Fatal(err)
	}
	fs := impl.(*unionFS)

	ctx := context.Background()

	lookupDir := &fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "dir"}
	if err := fs.LookUpInode(ctx, lookupDir); err != nil {
		t.Fatal(err)
	}

	lookupFile := &fuseops.LookUpInodeOp{Parent: lookupDir.Entry.Child, Name: "hello.txt"}
	if err := fs.LookUpInode(ctx, lookupFile); err != nil {
		t.Fatal(err)
	}
	if lookupFile.Entry.Attributes.Size != 2 {
		t.Fatalf("size = %d, want 2", lookupFile.Entry.Attributes.Size)
	}

	readOp := &fuseops.ReadFileOp{Inode: lookupFile.Entry.Child, Dst: make([]byte, 16)}
	if err := fs.ReadFile(ctx, readOp); err != nil {
		t.Fatal(err)
	}
	if string(readOp.Dst[:readOp.BytesRead]) != "hi" {
		t.Fatalf("read = %q, want hi", readOp.Dst[:readOp.BytesRead])
	}
}

func TestLookupMissingReturnsENOENT(t *testing.T) {
	impl, err := New(emptyStore(), nil)
	if err != nil {
		t.Fatal(err)
	}
	fs := impl.(*unionFS)

	op := &fuseops.LookUpInodeOp{Parent: fuseops.RootInodeID, Name: "missing"}
	if err := fs.LookUpInode(context.Background(), op); err == nil {
		t.Fatal("expected ENOENT for a missing path")
	}
}

func TestSetInodeAttributesIsReadOnly(t *testing.T) {
	impl, err := New(emptyStore(), nil)
	if err != nil {
		t.Fatal(err)
	}
	fs := impl.(*unionFS)
	if err := fs.SetInodeAttributes(context.Background(), &fuseops.SetInodeAttributesOp{}); err == nil {
		t.Fatal("expected EROFS from a read-only projection")
	}
}
