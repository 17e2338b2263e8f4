// Package fusebridge adapts internal/ftpfs's FS (component G) onto
// go-fuse v2's Node-embedding API. It is the only package in this
// module that imports github.com/hanwen/go-fuse/v2: every translation
// from FTP-shaped errors and attributes to fuse.Attr/syscall.Errno
// happens here, keeping internal/ftpfs free of any particular VFS
// framework's types.
//
// Grounded on the Node/DirectoryNode/FileNode/FileHandle split the
// retrieval pack's go-fuse-based reference filesystem uses for its own
// InodeEmbedder adapter, adapted to call through to ftpfs.FS instead of
// an object-storage backend.
package fusebridge

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/curlftpfs-go/ftpfs/internal/ftpfs"
)

// Node is the embeddable go-fuse inode for both files and directories;
// which set of Node* interfaces apply is determined at runtime by the
// Attr looked up for path, following the same single-node-type
// simplification the mounted tree's shallow depth allows (no separate
// symlink node type; Readlink just inspects the looked-up Attr).
type Node struct {
	fs.Inode
	fsys *ftpfs.FS
	path string
}

// Root returns the mount's root node, the entry point go-fuse's
// Server needs.
func Root(f *ftpfs.FS) fs.InodeEmbedder {
	return &Node{fsys: f, path: ""}
}

var (
	_ fs.NodeGetattrer  = (*Node)(nil)
	_ fs.NodeLookuper   = (*Node)(nil)
	_ fs.NodeReaddirer  = (*Node)(nil)
	_ fs.NodeReadlinker = (*Node)(nil)
	_ fs.NodeMkdirer    = (*Node)(nil)
	_ fs.NodeRmdirer    = (*Node)(nil)
	_ fs.NodeUnlinker   = (*Node)(nil)
	_ fs.NodeRenamer    = (*Node)(nil)
	_ fs.NodeOpener     = (*Node)(nil)
	_ fs.NodeCreater    = (*Node)(nil)
	_ fs.NodeSetattrer  = (*Node)(nil)
	_ fs.NodeMknoder    = (*Node)(nil)
)

func errnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(interface{ Errno() syscall.Errno }); ok {
		return e.Errno()
	}
	return syscall.EIO
}

// convertFlags translates the kernel's raw open(2) flag bits (as
// go-fuse hands them through unmodified) into ftpfs.OpenFlags, since
// the two do not share bit positions.
func convertFlags(flags uint32) ftpfs.OpenFlags {
	var out ftpfs.OpenFlags
	if flags&syscall.O_WRONLY != 0 {
		out |= ftpfs.OWronly
	}
	if flags&syscall.O_RDWR != 0 {
		out |= ftpfs.ORdwr
	}
	if flags&syscall.O_CREAT != 0 {
		out |= ftpfs.OCreate
	}
	if flags&syscall.O_EXCL != 0 {
		out |= ftpfs.OExcl
	}
	if flags&syscall.O_TRUNC != 0 {
		out |= ftpfs.OTrunc
	}
	if flags&syscall.O_APPEND != 0 {
		out |= ftpfs.OAppend
	}
	return out
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func attrToFuse(a *ftpfs.Attr, out *fuse.Attr) {
	out.Mode = a.Mode
	out.Size = uint64(a.Size)
	if !a.ModTime.IsZero() {
		sec := uint64(a.ModTime.Unix())
		out.Mtime, out.Atime, out.Ctime = sec, sec, sec
	}
}

// Getattr implements fs.NodeGetattrer.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	a, err := n.fsys.Getattr(n.path)
	if err != nil {
		return errnoOf(err)
	}
	attrToFuse(a, &out.Attr)
	return 0
}

// Setattr implements fs.NodeSetattrer, handling the truncate and
// chmod/chown cases the spec's VFS surface supports; other requested
// fields (atime/mtime) are accepted but ignored, per ftpfs.FS.Utimens.
func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if fh, ok := f.(*FileHandle); ok {
			if err := n.fsys.Truncate(fh.id, int64(size)); err != nil {
				return errnoOf(err)
			}
		}
	}
	if mode, ok := in.GetMode(); ok {
		if err := n.fsys.Chmod(n.path, mode); err != nil {
			return errnoOf(err)
		}
	}
	uid, uok := in.GetUID()
	gid, gok := in.GetGID()
	if uok || gok {
		u, g := -1, -1
		if uok {
			u = int(uid)
		}
		if gok {
			g = int(gid)
		}
		if err := n.fsys.Chown(n.path, u, g); err != nil {
			return errnoOf(err)
		}
	}
	a, err := n.fsys.Getattr(n.path)
	if err != nil {
		return errnoOf(err)
	}
	attrToFuse(a, &out.Attr)
	return 0
}

// Lookup implements fs.NodeLookuper.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := joinPath(n.path, name)
	a, err := n.fsys.Getattr(childPath)
	if err != nil {
		return nil, errnoOf(err)
	}
	attrToFuse(a, &out.Attr)
	child := &Node{fsys: n.fsys, path: childPath}
	stable := fs.StableAttr{Mode: a.Mode & syscall.S_IFMT}
	return n.NewInode(ctx, child, stable), 0
}

// Readdir implements fs.NodeReaddirer.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.fsys.Readdir(n.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fuse.DirEntry{Name: e.Name, Mode: e.Attr.Mode & syscall.S_IFMT})
	}
	return fs.NewListDirStream(out), 0
}

// Readlink implements fs.NodeReadlinker.
func (n *Node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := n.fsys.Readlink(n.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	return []byte(target), 0
}

// Mkdir implements fs.NodeMkdirer.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := joinPath(n.path, name)
	if err := n.fsys.Mkdir(childPath); err != nil {
		return nil, errnoOf(err)
	}
	out.Mode = ftpfs.ModeDir | mode
	child := &Node{fsys: n.fsys, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// Rmdir implements fs.NodeRmdirer.
func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return errnoOf(n.fsys.Rmdir(joinPath(n.path, name)))
}

// Unlink implements fs.NodeUnlinker.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return errnoOf(n.fsys.Unlink(joinPath(n.path, name)))
}

// Rename implements fs.NodeRenamer.
func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	np, ok := newParent.(*Node)
	if !ok {
		return syscall.EINVAL
	}
	return errnoOf(n.fsys.Rename(joinPath(n.path, name), joinPath(np.path, newName)))
}

// Mknod implements fs.NodeMknoder. FTP has no notion of device nodes
// or FIFOs, so only plain regular files (S_IFREG) are accepted, per
// spec's "mknod: regular files only; else EPERM."
func (n *Node) Mknod(ctx context.Context, name string, mode uint32, rdev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if mode&syscall.S_IFMT != 0 && mode&syscall.S_IFMT != syscall.S_IFREG {
		return nil, syscall.EPERM
	}
	childPath := joinPath(n.path, name)
	fh, err := n.fsys.Open(childPath, ftpfs.OWronly|ftpfs.OCreate|ftpfs.OExcl)
	if err != nil {
		return nil, errnoOf(err)
	}
	_ = n.fsys.Release(fh)
	out.Mode = ftpfs.ModeRegular | mode
	child := &Node{fsys: n.fsys, path: childPath}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG}), 0
}

// Create implements fs.NodeCreater.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	childPath := joinPath(n.path, name)
	fh, err := n.fsys.Open(childPath, convertFlags(flags)|ftpfs.OCreate)
	if err != nil {
		return nil, nil, 0, errnoOf(err)
	}
	out.Mode = ftpfs.ModeRegular | mode
	child := &Node{fsys: n.fsys, path: childPath}
	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG})
	return inode, &FileHandle{fsys: n.fsys, id: fh}, 0, 0
}

// Open implements fs.NodeOpener.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	fh, err := n.fsys.Open(n.path, convertFlags(flags))
	if err != nil {
		return nil, 0, errnoOf(err)
	}
	return &FileHandle{fsys: n.fsys, id: fh}, 0, 0
}

// FileHandle is the per-open-fd object go-fuse threads through
// Read/Write/Flush/Release/Fsync, wrapping the opaque handle ID
// ftpfs.FS hands back from Open.
type FileHandle struct {
	fsys *ftpfs.FS
	id   uint64
}

var (
	_ fs.FileReader   = (*FileHandle)(nil)
	_ fs.FileWriter   = (*FileHandle)(nil)
	_ fs.FileFlusher  = (*FileHandle)(nil)
	_ fs.FileReleaser = (*FileHandle)(nil)
	_ fs.FileFsyncer  = (*FileHandle)(nil)
)

// Read implements fs.FileReader.
func (h *FileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := h.fsys.Read(h.id, off, len(dest))
	if err != nil {
		return nil, errnoOf(err)
	}
	return fuse.ReadResultData(data), 0
}

// Write implements fs.FileWriter.
func (h *FileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.fsys.Write(h.id, off, data)
	if err != nil {
		return uint32(n), errnoOf(err)
	}
	return uint32(n), 0
}

// Flush implements fs.FileFlusher.
func (h *FileHandle) Flush(ctx context.Context) syscall.Errno {
	return errnoOf(h.fsys.Flush(h.id))
}

// Fsync implements fs.FileFsyncer.
func (h *FileHandle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	return errnoOf(h.fsys.Fsync(h.id))
}

// Release implements fs.FileReleaser.
func (h *FileHandle) Release(ctx context.Context) syscall.Errno {
	return errnoOf(h.fsys.Release(h.id))
}

// Statfs implements fs.NodeStatfser on the root node.
func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	bs, total, free := n.fsys.Statfs()
	out.Bsize = bs
	out.Blocks = total
	out.Bfree = free
	out.Bavail = free
	out.NameLen = 255
	return 0
}

var _ fs.NodeStatfser = (*Node)(nil)
