package ftpfs

import (
	"io"
)

// readDrainChunk is the chunk size used to drain the attached download
// into the read window, grounded on the 64KiB transfer buffer the
// retrieval pack's transfer-layer reference code uses for RETR bodies.
const readDrainChunk = 64 * 1024

// readWindowShrinkThreshold is spec §4.D's "shrink when large" bound:
// once the window's logical length exceeds this, satisfied prefix
// bytes are discarded via buffer.Shrink rather than left to grow
// without limit for the lifetime of a long sequential read.
const readWindowShrinkThreshold = 300 * 1024

// readWindow is component D: the per-handle sliding view over a
// restartable RETR download, implementing spec §4.D's eight-step
// ReadChunk algorithm. It owns no connection itself — it operates on
// the Shared's attached download under Shared.mu, which every public
// method here assumes is already held by the caller (Handle.Read).
type readWindow struct {
	buf *buffer
}

func newReadWindow() *readWindow {
	return &readWindow{buf: newBuffer()}
}

// ReadChunk implements spec §4.D. offset and size describe the VFS
// read request; shared is the mount-wide connection (already locked);
// path is the remote file this handle refers to, needed to restart the
// download when the window and the request have diverged.
//
// Returns the bytes satisfying the request (len <= size) and any
// error. A short read at EOF returns fewer bytes than size with a nil
// error, matching POSIX read() semantics.
func (w *readWindow) ReadChunk(shared *Shared, h *Handle, offset int64, size int) ([]byte, error) {
	// Step 1: is the requested range already inside the window? If not,
	// decide whether to restart or keep draining the attached download
	// until it is.
	if !w.covers(offset, size) {
		// Step 2: is this a pure continuation (offset is exactly the
		// byte past what we've buffered, and a download is already
		// attached to this handle)? If so, just keep draining instead
		// of restarting.
		needRestart := true
		if shared.attached && shared.currentFH == h {
			end := w.buf.BeginOffset() + int64(w.buf.Len())
			if offset >= w.buf.BeginOffset() && offset <= end {
				needRestart = false
			}
		}

		// Step 3/4: restart the transfer from offset when it diverged,
		// or when nothing is attached to this handle yet.
		if needRestart {
			if err := w.restart(shared, h, offset); err != nil {
				return nil, err
			}
		}

		// Step 5: drain forward until the window covers
		// [offset, offset+size) or the transfer hits EOF.
		for !w.covers(offset, size) {
			n, err := w.drainOnce(shared)
			if err != nil {
				if err == io.EOF {
					break
				}
				return nil, newError(ErrIO.Errno(), err.Error())
			}
			if n == 0 {
				break
			}
		}
	}

	// Step 5/6: copy out whatever of [offset, offset+size) is now
	// resident, which may be short at EOF. This must be an independent
	// copy, not a slice aliasing the window's backing array, since the
	// shrink below mutates that array in place.
	result := w.copySlice(offset, size)

	// Step 7: shrink the satisfied range so the window doesn't grow
	// without bound across a long sequential read. Spec §8's shrink
	// invariant requires the new begin_offset to equal
	// offset + bytes_copied, not just offset — the just-returned bytes
	// are safe to discard from the window because result above already
	// holds an independent copy of them.
	if w.buf.Len() > readWindowShrinkThreshold {
		drop := offset + int64(len(result)) - w.buf.BeginOffset()
		if drop > 0 {
			w.buf.Shrink(int(drop))
		}
	}

	return result, nil
}

// covers reports whether the window fully contains [offset, offset+size).
func (w *readWindow) covers(offset int64, size int) bool {
	begin := w.buf.BeginOffset()
	end := begin + int64(w.buf.Len())
	return offset >= begin && offset+int64(size) <= end
}

// slice returns the portion of the window overlapping
// [offset, offset+size), which may be shorter than size near EOF or
// when the window only partially overlaps the request.
func (w *readWindow) slice(offset int64, size int) []byte {
	begin := w.buf.BeginOffset()
	end := begin + int64(w.buf.Len())
	start := offset
	if start < begin {
		start = begin
	}
	stop := offset + int64(size)
	if stop > end {
		stop = end
	}
	if stop <= start {
		return nil
	}
	b := w.buf.Bytes()
	return b[start-begin : stop-begin]
}

// copySlice is slice's caller-safe counterpart: an independent copy of
// the overlap, safe to retain across a subsequent buffer mutation
// (Shrink's in-place memmove, or a later AddMem/Clear on this window).
func (w *readWindow) copySlice(offset int64, size int) []byte {
	s := w.slice(offset, size)
	out := make([]byte, len(s))
	copy(out, s)
	return out
}

// restart cancels any previous attachment and opens a fresh RETR from
// offset, per spec §4.B's cancel_previous_multi / §4.D step 3-4.
func (w *readWindow) restart(shared *Shared, h *Handle, offset int64) error {
	shared.cancelPreviousMulti()
	dl, err := shared.conn.RetrFrom(h.path, offset)
	if err != nil {
		return newError(ErrIO.Errno(), err.Error())
	}
	shared.download = dl
	shared.attached = true
	shared.currentFH = h
	w.buf.Clear()
	w.buf.SetBeginOffset(offset)
	return nil
}

// drainOnce reads one chunk from the attached download into the
// window, returning the number of bytes appended.
func (w *readWindow) drainOnce(shared *Shared) (int, error) {
	tmp := make([]byte, readDrainChunk)
	n, err := shared.download.Read(tmp)
	if n > 0 {
		w.buf.AddMem(tmp[:n])
	}
	if err != nil {
		return n, err
	}
	return n, nil
}
