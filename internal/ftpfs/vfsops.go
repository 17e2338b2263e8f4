package ftpfs

import (
	"bytes"
	"path"
	"strings"
	"sync"
	"time"
)

// Attr is the filesystem-neutral stat result VFS operations return,
// translated by internal/fusebridge into go-fuse's fuse.Attr. Kept
// independent of go-fuse so this package has no FUSE import, the same
// separation backend/ftp/ftp.go keeps between fs.Object and the VFS
// layer that wraps it.
type Attr struct {
	Mode    uint32 // file type bits (S_IFREG/S_IFDIR/S_IFLNK) plus permission bits
	Size    int64
	ModTime time.Time
	Link    string // symlink target, when Mode&S_IFLNK != 0
}

// File mode type bits, matching syscall's S_IF* constants so callers
// can OR them directly into Attr.Mode.
const (
	ModeDir     = 0o040000
	ModeRegular = 0o100000
	ModeSymlink = 0o120000
)

// FS is component G: the VFS operation surface spec §6 specifies,
// bridging a mounted path tree onto the Shared connection and the
// per-handle state machine of handle.go.
//
// Grounded on the Node* interfaces the pack's go-fuse reference
// exposes (NodeGetattrer, NodeOpener, NodeReader, NodeWriter, ...) and
// on backend/ftp/ftp.go's Fs methods (NewObject, List, Mkdir, Rmdir,
// Move, DirMove) for the metadata operations themselves.
type FS struct {
	shared *Shared
	cmd    *commandExecutor
	root   string // remote path this mount is rooted at

	handlesMu sync.Mutex
	handles   map[uint64]*Handle
	nextFH    uint64
}

// NewFS constructs the VFS surface over an already-dialed Shared
// connection, rooted at root (the remote directory given on the mount
// command line).
func NewFS(shared *Shared, root string) *FS {
	fs := &FS{shared: shared, cmd: newCommandExecutor(shared), root: root, handles: map[uint64]*Handle{}}
	shared.Lock()
	fs.cmd.EnableUTF8()
	shared.Unlock()
	return fs
}

func (fs *FS) fullPath(rel string) string {
	return path.Join(fs.root, cleanRel(rel))
}

// Getattr implements spec §6's getattr: stat a path without opening
// it.
func (fs *FS) Getattr(relPath string) (*Attr, error) {
	fs.shared.Lock()
	defer fs.shared.Unlock()
	e, err := findItem(fs.shared, fs.fullPath(relPath))
	if err != nil {
		return nil, err
	}
	return entryToAttr(e), nil
}

func entryToAttr(e *dirEntry) *Attr {
	a := &Attr{Size: e.Size}
	if e.ModTime != 0 {
		a.ModTime = time.Unix(e.ModTime, 0)
	}
	switch e.Type {
	case EntryTypeFolder:
		a.Mode = ModeDir | 0o755
	case EntryTypeLink:
		a.Mode = ModeSymlink | 0o777
		a.Link = e.Target
	default:
		a.Mode = ModeRegular | 0o644
	}
	return a
}

// DirEntry is one row of a Readdir result.
type DirEntry struct {
	Name string
	Attr Attr
}

// Readdir implements spec §6's getdir: list the directory's children.
func (fs *FS) Readdir(relPath string) ([]DirEntry, error) {
	fs.shared.Lock()
	defer fs.shared.Unlock()
	entries, err := listDir(fs.shared, fs.fullPath(relPath))
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, DirEntry{Name: e.Name, Attr: *entryToAttr(e)})
	}
	return out, nil
}

// Readlink implements spec §6's readlink.
func (fs *FS) Readlink(relPath string) (string, error) {
	fs.shared.Lock()
	defer fs.shared.Unlock()
	e, err := findItem(fs.shared, fs.fullPath(relPath))
	if err != nil {
		return "", err
	}
	if e.Type != EntryTypeLink {
		return "", ErrInvalid
	}
	return e.Target, nil
}

// Mkdir implements spec §6's mkdir.
func (fs *FS) Mkdir(relPath string) error {
	if fs.shared.opt.ReadOnly {
		return ErrAccess
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return fs.cmd.Mkdir(fs.fullPath(relPath))
}

// Rmdir implements spec §6's rmdir.
func (fs *FS) Rmdir(relPath string) error {
	if fs.shared.opt.ReadOnly {
		return ErrAccess
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return fs.cmd.Rmdir(fs.fullPath(relPath))
}

// Unlink implements spec §6's unlink.
func (fs *FS) Unlink(relPath string) error {
	if fs.shared.opt.ReadOnly {
		return ErrAccess
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return fs.cmd.Unlink(fs.fullPath(relPath))
}

// Rename implements spec §6's rename, handling both file and directory
// targets identically since FTP's RNFR/RNTO pair doesn't distinguish.
func (fs *FS) Rename(fromRel, toRel string) error {
	if fs.shared.opt.ReadOnly {
		return ErrAccess
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return fs.cmd.Rename(fs.fullPath(fromRel), fs.fullPath(toRel))
}

// Chmod implements spec §6's chmod via SITE CHMOD.
func (fs *FS) Chmod(relPath string, mode uint32) error {
	if fs.shared.opt.ReadOnly {
		return ErrAccess
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return fs.cmd.Chmod(fs.fullPath(relPath), mode)
}

// Chown implements spec §6's chown via SITE CHUID/CHGID.
func (fs *FS) Chown(relPath string, uid, gid int) error {
	if fs.shared.opt.ReadOnly {
		return ErrAccess
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return fs.cmd.Chown(fs.fullPath(relPath), uid, gid)
}

// Open implements spec §6's open/create, allocating a file handle and
// registering it under a fresh handle ID the FUSE bridge threads back
// through subsequent Read/Write/Flush/Release calls.
func (fs *FS) Open(relPath string, flags OpenFlags) (uint64, error) {
	if fs.shared.opt.ReadOnly && (flags.has(OWronly) || flags.has(ORdwr) || flags.has(OCreate) || flags.has(OTrunc)) {
		return 0, ErrAccess
	}
	full := fs.fullPath(relPath)

	fs.shared.Lock()
	e, lookupErr := findItem(fs.shared, full)
	fs.shared.Unlock()

	exists := lookupErr == nil
	if flags.has(OCreate) && flags.has(OExcl) && exists {
		return 0, ErrAccess
	}
	if !exists && !flags.has(OCreate) {
		return 0, ErrNoSuchFile
	}
	var size int64
	if exists {
		size = e.Size
	}

	wantsWrite := flags.has(OWronly) || flags.has(ORdwr)
	if !exists && flags.has(OCreate) && !wantsWrite {
		// O_RDONLY|O_CREAT: create an empty remote file up front so the
		// read-window probe below (and any later read) has something to
		// attach to, per spec §4.F.
		fs.shared.Lock()
		createErr := fs.shared.conn.Stor(encodePath(fs.shared.opt, full), bytes.NewReader(nil))
		fs.shared.Unlock()
		if createErr != nil {
			return 0, ErrAccess
		}
	}

	fs.shared.Lock()
	h, err := OpenHandle(fs.shared, full, size, flags)
	fs.shared.Unlock()
	if err != nil {
		return 0, err
	}

	// A plain read-only open warms the read window with a 1-byte probe,
	// per spec §4.F: any failure here (as opposed to a short read at
	// EOF on an empty file, which is not a failure) rejects the open
	// with access rather than surfacing an I/O error from the first
	// real read.
	if h.state == stateReading {
		fs.shared.Lock()
		_, probeErr := h.Read(0, 1)
		fs.shared.Unlock()
		if probeErr != nil {
			return 0, ErrAccess
		}
	}

	fs.handlesMu.Lock()
	fs.nextFH++
	fh := fs.nextFH
	fs.handles[fh] = h
	fs.handlesMu.Unlock()
	return fh, nil
}

func (fs *FS) handle(fh uint64) (*Handle, error) {
	fs.handlesMu.Lock()
	defer fs.handlesMu.Unlock()
	h, ok := fs.handles[fh]
	if !ok {
		return nil, ErrIO
	}
	return h, nil
}

// Read implements spec §6's read, dispatching to the handle's read
// window (component D).
func (fs *FS) Read(fh uint64, offset int64, size int) ([]byte, error) {
	h, err := fs.handle(fh)
	if err != nil {
		return nil, err
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return h.Read(offset, size)
}

// Write implements spec §6's write, dispatching to the handle's
// upload pipeline (component E). The blocking send/ack rendezvous
// happens without shared.mu held, since a write handle's data
// connection is independent of the metadata connection.
func (fs *FS) Write(fh uint64, offset int64, p []byte) (int, error) {
	h, err := fs.handle(fh)
	if err != nil {
		return 0, err
	}
	return h.Write(offset, p)
}

// Flush implements spec §6's flush: completes a pending upload without
// closing the handle, so a later fsync-then-continue sequence still
// works for the common editor save pattern.
func (fs *FS) Flush(fh uint64) error {
	h, err := fs.handle(fh)
	if err != nil {
		return err
	}
	return h.Flush()
}

// Fsync implements spec §6's fsync identically to Flush: FTP has no
// partial-durability signal weaker than "the STOR finished."
func (fs *FS) Fsync(fh uint64) error { return fs.Flush(fh) }

// Truncate implements spec §6's truncate/ftruncate.
func (fs *FS) Truncate(fh uint64, size int64) error {
	h, err := fs.handle(fh)
	if err != nil {
		return err
	}
	fs.shared.Lock()
	defer fs.shared.Unlock()
	return h.Truncate(size)
}

// Release implements spec §6's release: closes and forgets the
// handle.
func (fs *FS) Release(fh uint64) error {
	h, err := fs.handle(fh)
	if err != nil {
		return err
	}
	fs.shared.Lock()
	err = h.Release()
	fs.shared.Unlock()

	fs.handlesMu.Lock()
	delete(fs.handles, fh)
	fs.handlesMu.Unlock()
	return err
}

// Statfs implements spec §6's statfs with the synthetic values spec
// §6 allows (FTP has no space-usage query): a fixed large block count
// at the configured block size, so df reports "plenty of room" rather
// than zero.
func (fs *FS) Statfs() (blockSize uint32, totalBlocks, freeBlocks uint64) {
	bs := fs.shared.opt.BlockSize
	if bs == 0 {
		bs = 4096
	}
	const syntheticTotalBytes = 1 << 40 // 1 TiB, an arbitrary large constant
	return bs, syntheticTotalBytes / uint64(bs), syntheticTotalBytes / uint64(bs)
}

// Utimens implements spec §6's utime. Most FTP servers have no
// MFMT/SITE UTIME support reachable through jlaffaye/ftp, so this is a
// deliberate no-op that still returns success — the same
// "unsupported-but-harmless" treatment backend/ftp/ftp.go gives
// SetModTime when the server lacks the MFMT extension.
func (fs *FS) Utimens(relPath string, mtime time.Time) error {
	return nil
}

// cleanRel normalizes a relative VFS path the way findItem/listDir
// expect: no leading slash duplication, no trailing slash.
func cleanRel(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}
