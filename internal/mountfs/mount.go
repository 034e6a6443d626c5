// Package mountfs projects a .tcow union view as a read-only FUSE
// filesystem (SPEC_FULL supplemental feature: a `mount` subcommand). It
// is grounded on cmd/distri/internal/fuse/fuse.go's fuseops.InodeID
// table and fuseutil.FileSystem method set, generalized from squashfs
// inodes plus a live package-rescan goroutine down to a single static
// snapshot of internal/union's List(ModeUnion) output: this mount does
// not observe writes made after Mount is called, matching spec §4.6's
// "the store is read-only once open" contract.
package mountfs

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/mikesmullin/tcow/internal/layer"
	"github.com/mikesmullin/tcow/internal/tarcodec"
	"github.com/mikesmullin/tcow/internal/union"
)

type node struct {
	name     string
	isDir    bool
	entry    tarcodec.Entry // valid when !isDir
	children map[string]fuseops.InodeID
}

// unionFS implements fuseutil.FileSystem over a fixed snapshot of the
// union view, built once in New. It embeds NotImplementedFileSystem, so
// every op not defined below fails with ENOSYS; SetInodeAttributes
// returns EROFS.
type unionFS struct {
	fuseutil.NotImplementedFileSystem

	mu     sync.Mutex
	nodes  map[fuseops.InodeID]*node
	nextID fuseops.InodeID
}

// New builds the static inode tree for store's (and writable's) union
// view and returns a fuseutil.FileSystem ready to hand to fuse.Mount.
func New(store *layer.Store, writable []tarcodec.Entry) (fuseutil.FileSystem, error) {
	visible, err := union.List(store, writable, "", union.ModeUnion, 0)
	if err != nil {
		return nil, err
	}

	fs := &unionFS{
		nodes:  make(map[fuseops.InodeID]*node),
		nextID: fuseops.RootInodeID + 1,
	}
	root := &node{name: "", isDir: true, children: make(map[string]fuseops.InodeID)}
	fs.nodes[fuseops.RootInodeID] = root

	sort.Slice(visible, func(i, j int) bool { return visible[i].Path < visible[j].Path })
	for _, v := range visible {
		fs.insert(v.Path, v.Entry)
	}
	return fs, nil
}

func (fs *unionFS) insert(path string, entry tarcodec.Entry) {
	parts := strings.Split(path, "/")
	cur := fs.nodes[fuseops.RootInodeID]
	for i, part := range parts {
		if part == "" {
			continue
		}
		last := i == len(parts)-1
		id, ok := cur.children[part]
		if !ok {
			id = fs.nextID
			fs.nextID++
			n := &node{name: part}
			if !last {
				n.isDir = true
				n.children = make(map[string]fuseops.InodeID)
			}
			fs.nodes[id] = n
			cur.children[part] = id
		}
		child := fs.nodes[id]
		if last {
			child.isDir = false
			child.entry = entry
		} else {
			cur = child
		}
	}
}

func (fs *unionFS) attributes(n *node) fuseops.InodeAttributes {
	if n.isDir {
		return fuseops.InodeAttributes{
			Nlink: 1,
			Mode:  os.ModeDir | 0555,
			Atime: time.Now(),
			Mtime: time.Now(),
			Ctime: time.Now(),
		}
	}
	mt := n.entry.ModTime
	return fuseops.InodeAttributes{
		Size:  uint64(len(n.entry.Content)),
		Nlink: 1,
		Mode:  os.FileMode(0444),
		Atime: mt,
		Mtime: mt,
		Ctime: mt,
	}
}

func (fs *unionFS) StatFS(ctx context.Context, op *fuseops.StatFSOp) error { return nil }

func (fs *unionFS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, ok := fs.nodes[op.Parent]
	if !ok || !parent.isDir {
		return syscall.ENOENT
	}
	id, ok := parent.children[op.Name]
	if !ok {
		return syscall.ENOENT
	}
	op.Entry.Child = id
	op.Entry.Attributes = fs.attributes(fs.nodes[id])
	return nil
}

func (fs *unionFS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, ok := fs.nodes[op.Inode]
	if !ok {
		return syscall.ENOENT
	}
	op.Attributes = fs.attributes(n)
	return nil
}

func (fs *unionFS) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	return syscall.EROFS
}

func (fs *unionFS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, ok := fs.nodes[op.Inode]
	if !ok || !n.isDir {
		return syscall.ENOENT
	}
	return nil
}

func (fs *unionFS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, ok := fs.nodes[op.Inode]
	if !ok || !n.isDir {
		return syscall.ENOENT
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	var dst []byte
	for i, name := range names {
		if fuseops.DirOffset(i) < op.Offset {
			continue
		}
		child := fs.nodes[n.children[name]]
		typ := fuseutil.DT_File
		if child.isDir {
			typ = fuseutil.DT_Directory
		}
		dirent := fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  n.children[name],
			Name:   name,
			Type:   typ,
		}
		written := fuseutil.WriteDirent(op.Dst[len(dst):], dirent)
		if written == 0 {
			break
		}
		dst = op.Dst[:len(dst)+written]
	}
	op.BytesRead = len(dst)
	return nil
}

func (fs *unionFS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, ok := fs.nodes[op.Inode]
	if !ok || n.isDir {
		return syscall.ENOENT
	}
	return nil
}

func (fs *unionFS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, ok := fs.nodes[op.Inode]
	if !ok || n.isDir {
		return syscall.ENOENT
	}
	if op.Offset >= int64(len(n.entry.Content)) {
		op.BytesRead = 0
		return nil
	}
	op.BytesRead = copy(op.Dst, n.entry.Content[op.Offset:])
	return nil
}

func (fs *unionFS) Destroy() {}

// Mount projects store's (and writable's) union view onto mountpoint
// read-only and blocks until it is unmounted, mirroring
// cmd/distri/internal/fuse/fuse.go's fuse.Mount-then-Join shape.
func Mount(ctx context.Context, store *layer.Store, writable []tarcodec.Entry, mountpoint string) error {
	fs, err := New(store, writable)
	if err != nil {
		return err
	}
	server := fuseutil.NewFileSystemServer(fs)

	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		FSName:   "tcow",
		ReadOnly: true,
	})
	if err != nil {
		return err
	}
	return mfs.Join(ctx)
}
