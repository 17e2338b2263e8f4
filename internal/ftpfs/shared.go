package ftpfs

import (
	"io"
	"sync"
)

// Download is the minimal surface of a RETR/RETR-from-offset in
// progress. jlaffaye/ftp's *ftp.Response satisfies this (it is an
// io.ReadCloser with an extra SetDeadline), but the interface is kept
// narrow so fakes don't need to import the client library.
type Download = io.ReadCloser

// Conn is the "easy handle" spec §1 describes as an out-of-scope
// external collaborator: an opaque client supporting URL/range/upload
// options, synchronous perform, and the verbs the command executor and
// read/write engines need. It is satisfied by *ftp.ServerConn
// (see internal/ftpfs/client.go for the thin adapter) and by fakes in
// tests.
type Conn interface {
	// List returns the parsed directory listing for dir. Corresponds
	// to backend/ftp/ftp.go's c.List(dir) — parsing is handled entirely
	// by jlaffaye/ftp, so there is no separate parse_dir component here
	// (spec §1 names it as an external collaborator; the client library
	// fills that role).
	List(dir string) ([]*Entry, error)
	// GetEntry looks up a single path via MLST, when the server
	// supports it. Mirrors c.GetEntry in backend/ftp/ftp.go's findItem.
	GetEntry(path string) (*Entry, error)

	// RetrFrom opens a download starting at offset, the server-side
	// restartable cursor spec §1/§4.D describes.
	RetrFrom(path string, offset int64) (Download, error)

	// Stor uploads r to path with STOR semantics (create/overwrite).
	Stor(path string, r io.Reader) error
	// Append uploads r to path with APPE semantics (resume).
	Append(path string, r io.Reader) error

	Rename(from, to string) error
	Delete(path string) error
	MakeDir(path string) error
	RemoveDir(path string) error

	Quit() error
	NoOp() error
}

// Entry is the subset of ftp.Entry the core needs, kept independent of
// the client library so fakes stay simple.
type Entry struct {
	Name    string
	Target  string // symlink target, when Type == EntryTypeLink
	Size    int64
	Type    EntryType
	ModTime int64 // unix seconds; zero means unknown
}

// EntryType mirrors ftp.EntryType.
type EntryType int

// Entry types.
const (
	EntryTypeFile EntryType = iota
	EntryTypeFolder
	EntryTypeLink
)

// SiteConn is the command executor's escape hatch for verbs
// jlaffaye/ftp's ServerConn does not expose (SITE CHMOD/CHUID/CHGID,
// a custom LIST verb, OPTS UTF8 ON). See command.go and DESIGN.md.
type SiteConn interface {
	Quote(cmd string) error
	Close() error
}

// Shared is component B: the single FTP connection shared by every
// metadata operation and every read, guarded by one mutex, with at
// most one attached download mount-wide.
//
// The non-blocking "multi driver + select" of the source is collapsed
// to direct blocking reads on the attached Download: every caller
// already holds mu for the whole operation, so a non-blocking state
// machine buys no extra concurrency here. See DESIGN.md's entry for B.
type Shared struct {
	mu sync.Mutex

	conn Conn
	site SiteConn // lazily dialed, see command.go

	opt Options

	// attached is true iff download is non-nil and a restartable
	// server-side transfer is open on it.
	attached   bool
	currentFH  *Handle
	download   Download
	baseURL    string // directory-URL root used by the command executor

	// dialWrite, when set, opens a brand-new Conn for a write handle's
	// exclusive use, per spec §3's "write_conn is non-null iff the
	// upload thread is running" and §5's "not held across the write
	// pipeline's own upload (which uses its own write_conn and no part
	// of B)". When nil (e.g. tests driving a single fakeConn), writes
	// fall back to sharing conn, which is harmless against an in-memory
	// fake but would serialize uploads against metadata ops on a real
	// control connection.
	dialWrite func() (Conn, error)
}

// NewShared constructs the shared connection. conn must already be
// dialed and logged in.
func NewShared(conn Conn, opt Options, baseURL string) *Shared {
	return &Shared{conn: conn, opt: opt, baseURL: baseURL}
}

// SetDialWrite installs the dialer used to open each write handle's
// own independent connection, keeping upload data transfer off the
// metadata control connection. See DESIGN.md's entry for component E.
func (s *Shared) SetDialWrite(dial func() (Conn, error)) {
	s.dialWrite = dial
}

// Lock acquires the shared mutex. Every public operation that touches
// conn must call Lock first, per spec §4.B's contract.
func (s *Shared) Lock() { s.mu.Lock() }

// Unlock releases the shared mutex.
func (s *Shared) Unlock() { s.mu.Unlock() }

// Conn returns the underlying connection. Callers must hold the
// shared mutex. Exposed mainly for the keepalive loop in
// cmd/ftpfsmount, which only needs NoOp.
func (s *Shared) Conn() Conn { return s.conn }

// cancelPreviousMulti closes any attached download and clears the
// attachment, matching spec §4.B's cancel_previous_multi: a no-op when
// nothing is attached. Call with mu held.
func (s *Shared) cancelPreviousMulti() {
	if !s.attached {
		return
	}
	if s.download != nil {
		_ = s.download.Close()
	}
	s.download = nil
	s.attached = false
	s.currentFH = nil
}

// Close releases the underlying connections. Called at unmount.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPreviousMulti()
	if s.site != nil {
		_ = s.site.Close()
		s.site = nil
	}
	return s.conn.Quit()
}
