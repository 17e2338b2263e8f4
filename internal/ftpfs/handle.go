package ftpfs

import (
	"io"

	"github.com/pkg/errors"
)

// handleState is component F's state machine, spec §4.F's enum:
// a handle starts fresh, becomes a reader or a writer on first access,
// and is closed exactly once.
type handleState int

// Handle states.
const (
	stateFresh handleState = iota
	stateReading
	stateWritePending
	stateWriting
	stateClosed
)

// OpenFlags mirrors the POSIX open(2) flag bits the VFS layer passes
// through, the subset spec §4.F's dispatch table inspects.
type OpenFlags int

// Open flag bits relevant to the state machine.
const (
	OWronly OpenFlags = 1 << iota
	ORdwr
	OCreate
	OExcl
	OTrunc
	OAppend
)

func (f OpenFlags) has(bit OpenFlags) bool { return f&bit != 0 }

// Handle is component F: one open file descriptor's worth of state,
// holding either a read window or a write pipeline but never both,
// per spec §4.F's "no true read/write handle" invariant.
//
// Grounded on the rclone VFS File handle lifecycle the pack's test
// files for vfs/file_test.go exercise (Open/Read/Write/Flush/Release),
// adapted down from rclone's three concrete handle types (read, write,
// read-write-via-cache) to the single engine this spec's no-local-
// caching model allows.
type Handle struct {
	shared *Shared
	path   string
	size   int64 // size observed at Open time

	state handleState
	flags OpenFlags

	rw   *readWindow
	pipe *uploadPipe
	pos  int64 // next expected write offset, for the sequential-write invariant

	// writeMayStart is spec §4.F/§4.E's write_may_start: true once the
	// remote is known to be (or about to become) empty, either because
	// this open carried O_TRUNC / created a new file, or because an
	// ftruncate(0) on a WRITE_PENDING handle established it. It lets the
	// first Write skip the "verify remote size is 0" check.
	writeMayStart bool

	writeConn  Conn // this handle's own connection, non-nil iff the upload goroutine is running
	uploadErr  error
	uploadDone chan struct{}
}

// OpenHandle implements spec §4.F's Open: validating the flag
// combination, and either priming a read window or starting the write
// pipeline's upload goroutine. size is the remote file's current size,
// needed for the O_TRUNC-to-nonzero-value rejection rule and for
// append positioning.
func OpenHandle(shared *Shared, path string, size int64, flags OpenFlags) (*Handle, error) {
	if flags.has(OAppend) {
		return nil, ErrNotSupported
	}
	if flags.has(ORdwr) && !shared.opt.AllowRDWRShim {
		return nil, ErrNotSupported
	}
	if flags.has(OTrunc) && !flags.has(OWronly) && !flags.has(ORdwr) {
		return nil, ErrInvalid
	}

	h := &Handle{shared: shared, path: path, size: size, flags: flags, state: stateFresh}

	// Any write-capable open (O_WRONLY, or O_RDWR under the
	// compatibility shim) eventually drives the write pipeline, but only
	// an O_TRUNC open (or a brand-new, necessarily-empty file) may start
	// STOR immediately: jlaffaye/ftp's Stor truncates the remote file as
	// soon as it is issued, so starting it against an existing,
	// non-empty file before a single byte has been written would
	// silently clobber it. Per spec §4.F, anything else enters
	// WRITE_PENDING and waits for an ftruncate(0) or a same-size
	// ftruncate (resume) to decide which upload to start — see
	// Handle.Truncate and Handle.Write.
	if flags.has(OWronly) || flags.has(ORdwr) {
		if flags.has(OTrunc) || size == 0 {
			h.writeMayStart = true
			h.startWrite(false)
			return h, nil
		}
		h.state = stateWritePending
		return h, nil
	}

	h.rw = newReadWindow()
	h.state = stateReading
	return h, nil
}

// startWrite transitions to the writing state and launches the upload
// goroutine. append selects APPE over STOR, used by Handle.Truncate
// when a caller truncates to the current size (a resume, not a
// rewrite) per the Open Question decision recorded in DESIGN.md.
func (h *Handle) startWrite(resume bool) {
	h.state = stateWritePending
	h.pipe = newUploadPipe()
	h.uploadDone = make(chan struct{})
	h.pos = 0
	if resume {
		h.pos = h.size
	}

	// Dial an independent connection for this upload when possible, so
	// the data transfer never contends with the shared metadata
	// connection's control channel. Falls back to the shared conn when
	// no dialer is configured (tests against a single fake).
	conn := h.shared.conn
	if h.shared.dialWrite != nil {
		if c, err := h.shared.dialWrite(); err == nil {
			conn = c
		}
	}
	h.writeConn = conn

	go func() {
		defer close(h.uploadDone)
		var err error
		if resume {
			err = conn.Append(h.path, h.pipe)
		} else {
			err = conn.Stor(h.path, h.pipe)
		}
		if conn != h.shared.conn {
			_ = conn.Quit()
		}
		h.writeConn = nil
		h.uploadErr = err
		h.pipe.doneCh <- uploadResult{err: err}
	}()

	h.state = stateWriting
}

// Read implements spec §4.D/§4.F's read path. offset/size describe the
// VFS request. Callers must hold shared.Lock for the duration.
func (h *Handle) Read(offset int64, size int) ([]byte, error) {
	if h.state == stateClosed {
		return nil, ErrIO
	}
	if h.state == stateWriting || h.state == stateWritePending {
		if !h.shared.opt.AllowRDWRShim {
			return nil, ErrNotSupported
		}
		// Compatibility shim: reads are only permitted against a
		// write handle before anything has been written.
		if h.pos > 0 {
			return nil, ErrIO
		}
	}
	return h.rw.ReadChunk(h.shared, h, offset, size)
}

// Write implements spec §4.E/§4.F's write path: enforces the
// sequential-write invariant (no seeks mid-upload), (re)starts the
// upload when none is live yet (spec §4.E steps 2-3: a fresh write at
// offset 0, or a resume at offset == pos after a prior flush), and
// hands the chunk to the upload pipeline. Callers must hold shared.Lock
// only for enqueueing — send blocks on the upload goroutine's own pace,
// so this method does release-then-reacquire around the blocking
// portion is NOT done here; Shared's read operations are unaffected
// because a write handle's Conn use (Stor/Append) runs on a goroutine
// that does not touch shared.conn's control channel once the data
// connection is open, matching spec §4.B's "one metadata connection,
// one independent data connection for writes" split.
func (h *Handle) Write(offset int64, p []byte) (int, error) {
	justStarted := false
	if h.state != stateWriting {
		if h.state != stateWritePending {
			return 0, ErrIO
		}
		switch {
		case h.pos == 0 && offset == 0:
			// Fresh write. Without a prior O_TRUNC/ftruncate(0) having
			// set writeMayStart, the only other proof the remote is
			// empty is the size observed at open (or at the last
			// Truncate), per spec §4.E step 2.
			if !h.writeMayStart && h.size != 0 {
				return 0, ErrIO
			}
			h.startWrite(false)
		case h.pos > 0 && offset == h.pos:
			// Resume after a prior flush: spec §4.E step 3, end-to-end
			// scenario 4.
			h.startWrite(true)
		default:
			return 0, ErrIO
		}
		justStarted = true
	}

	if offset != h.pos {
		return 0, ErrIO // non-sequential write: spec §8's rejection law
	}
	if len(p) == 0 {
		return 0, nil
	}

	if justStarted {
		h.pipe.awaitReady()
	}

	chunk := make([]byte, len(p))
	copy(chunk, p)
	for len(chunk) > 0 {
		n := len(chunk)
		if n > writeChunkBuffer {
			n = writeChunkBuffer
		}
		h.pipe.send(chunk[:n])
		chunk = chunk[n:]
	}
	h.pos += int64(len(p))
	return len(p), nil
}

// Flush implements spec §4.F's Flush/Release write-completion path:
// signals EOF to the upload goroutine and waits for STOR/APPE's
// control-channel round trip to finish, surfacing any size mismatch as
// ErrIO per spec §8.
//
// Flush is idempotent: the kernel's ordinary close path sends FLUSH
// then RELEASE, and Release calls Flush again (handle.go's Release) —
// once the upload goroutine has actually exited, its end of the
// rendezvous channels has no receiver left, so a second closeEOF would
// block forever. Moving the state out of stateWriting on completion,
// below, makes every call after the first a no-op.
func (h *Handle) Flush() error {
	if h.state != stateWriting {
		return nil
	}
	h.pipe.awaitReady()
	res := h.pipe.closeEOF()
	<-h.uploadDone

	// The upload has fully finished: there is no live goroutine to
	// rendezvous with any more, so park the handle back in
	// WRITE_PENDING (pos is kept — a later Write at offset == pos
	// resumes with APPE, spec §4.E step 3) and drop the dead pipe.
	h.state = stateWritePending
	h.pipe = nil
	h.writeMayStart = true

	if res.err != nil {
		return newError(ErrIO.Errno(), res.err.Error())
	}
	return nil
}

// Truncate implements spec §4.F's truncate/ftruncate handling: a
// truncate to the handle's own current remote size is accepted as a
// resume point (APPE), any other non-zero value is rejected, per the
// Open Question decision in DESIGN.md. Zero always restarts a fresh
// STOR.
func (h *Handle) Truncate(newSize int64) error {
	if newSize != 0 && newSize != h.size {
		return ErrPermission
	}
	if h.state == stateWriting {
		// abandon whatever's in flight; startWrite below replaces pipe
		// and uploadDone with a fresh pair for the restarted upload.
		_ = h.pipe.closeEOF()
		<-h.uploadDone
	}
	if newSize == 0 {
		h.writeMayStart = true
		h.startWrite(false)
		return nil
	}
	// newSize == h.size (and non-zero): a resume point, not a rewrite,
	// per spec §4.F's ftruncate-to-current-size compatibility hack.
	h.startWrite(true)
	return nil
}

// Release closes the handle, flushing a pending write first.
func (h *Handle) Release() error {
	if h.state == stateClosed {
		return nil
	}
	var err error
	if h.state == stateWriting {
		err = h.Flush()
	}
	if h.shared.attached && h.shared.currentFH == h {
		h.shared.cancelPreviousMulti()
	}
	h.state = stateClosed
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

var _ io.Closer = (*Handle)(nil)

// Close satisfies io.Closer for callers that only need Release's
// effect under that name.
func (h *Handle) Close() error { return h.Release() }
