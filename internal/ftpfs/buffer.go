package ftpfs

// buffer is the growable byte region described in spec §3/§4.A: a
// contiguous region, a logical length, an allocated capacity, and a
// begin-offset meaningful only for read windows (the absolute file
// offset corresponding to p[0]).
//
// No thread safety here — callers (Shared, under its own mutex)
// provide external synchronization, exactly as spec §4.A requires.
type buffer struct {
	p           []byte
	beginOffset int64
}

// newBuffer returns an empty buffer with no allocation.
func newBuffer() *buffer {
	return &buffer{}
}

// Len is the current logical length.
func (b *buffer) Len() int { return len(b.p) }

// Cap is the current allocated capacity.
func (b *buffer) Cap() int { return cap(b.p) }

// BeginOffset is the absolute offset corresponding to Bytes()[0].
func (b *buffer) BeginOffset() int64 { return b.beginOffset }

// SetBeginOffset sets the absolute offset corresponding to Bytes()[0].
// Callers use this after Clear(), when starting a fresh window.
func (b *buffer) SetBeginOffset(off int64) { b.beginOffset = off }

// Bytes returns the buffer's current contents. The slice is only valid
// until the next mutating call.
func (b *buffer) Bytes() []byte { return b.p }

// AddMem appends p to the buffer, growing geometrically (append's own
// doubling policy) the way the teacher's code relies on append to grow
// slices everywhere rather than pre-sizing by hand.
func (b *buffer) AddMem(p []byte) {
	b.p = append(b.p, p...)
}

// Clear resets the logical length to zero. Capacity is retained;
// begin-offset is left to the caller to set via SetBeginOffset, as
// spec §4.A specifies ("begin_offset reset by caller").
func (b *buffer) Clear() {
	b.p = b.p[:0]
}

// NullTerminate is a deliberate no-op here. spec §4.A calls for a
// guarantee that p[len] == 0 without increasing len, needed in the
// source because the buffer is handed to C string APIs. Nothing in
// this module crosses a C-string boundary — jlaffaye/ftp, net/textproto
// and the FUSE bridge all take Go strings/[]byte with explicit
// lengths — so there is no API here that could read past Len() looking
// for a terminator. Kept as a named method so the spec's component
// inventory stays traceable even though the implementation is trivial.
func (b *buffer) NullTerminate() {}

// Shrink slides the buffer forward by n bytes, discarding the first n
// bytes and advancing begin-offset by n. This is the "shrink" operation
// of spec §4.D step 7 / the GLOSSARY: sliding a read window forward
// while retaining capacity. n must be in [0, Len()].
func (b *buffer) Shrink(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.p) {
		b.beginOffset += int64(len(b.p))
		b.p = b.p[:0]
		return
	}
	copy(b.p, b.p[n:])
	b.p = b.p[:len(b.p)-n]
	b.beginOffset += int64(n)
}
