package ftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFreshWriteUploadsWholeBody(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)

	shared.Lock()
	h, err := OpenHandle(shared, "/new.txt", 0, OWronly|OCreate|OTrunc)
	require.NoError(t, err)
	shared.Unlock()

	n, err := h.Write(0, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = h.Write(5, []byte(" world"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	shared.Lock()
	err = h.Flush()
	shared.Unlock()
	require.NoError(t, err)

	assert.Equal(t, "hello world", string(conn.files["/new.txt"]))
}

func TestHandleNonSequentialWriteRejected(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)

	shared.Lock()
	h, err := OpenHandle(shared, "/new.txt", 0, OWronly|OCreate|OTrunc)
	require.NoError(t, err)
	shared.Unlock()

	_, err = h.Write(0, []byte("abc"))
	require.NoError(t, err)

	_, err = h.Write(10, []byte("xyz"))
	assert.ErrorIs(t, err, ErrIO)

	shared.Lock()
	_ = h.Flush()
	shared.Unlock()
}

func TestHandleOExclRejectsExistingFile(t *testing.T) {
	conn := newFakeConn()
	conn.files["/exists.txt"] = []byte("x")
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	_, err := fs.Open("exists.txt", OWronly|OCreate|OExcl)
	assert.ErrorIs(t, err, ErrAccess)
}

func TestHandleAppendUnsupported(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)

	shared.Lock()
	_, err := OpenHandle(shared, "/f.txt", 0, OWronly|OAppend)
	shared.Unlock()
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestHandleRdwrRejectedWithoutShim(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)

	shared.Lock()
	_, err := OpenHandle(shared, "/f.txt", 0, ORdwr)
	shared.Unlock()
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestHandleTruncateToCurrentSizeResumesWithAppend(t *testing.T) {
	conn := newFakeConn()
	conn.files["/f.txt"] = []byte("existing")
	shared := newTestShared(conn)

	shared.Lock()
	h, err := OpenHandle(shared, "/f.txt", int64(len("existing")), OWronly)
	require.NoError(t, err)
	err = h.Truncate(int64(len("existing")))
	shared.Unlock()
	require.NoError(t, err)

	n, err := h.Write(int64(len("existing")), []byte("-more"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	shared.Lock()
	err = h.Flush()
	shared.Unlock()
	require.NoError(t, err)
	assert.Equal(t, "existing-more", string(conn.files["/f.txt"]))
}

func TestHandleTruncateToOtherNonzeroRejected(t *testing.T) {
	conn := newFakeConn()
	conn.files["/f.txt"] = []byte("existing")
	shared := newTestShared(conn)

	shared.Lock()
	h, err := OpenHandle(shared, "/f.txt", int64(len("existing")), OWronly)
	require.NoError(t, err)
	err = h.Truncate(3)
	shared.Unlock()
	assert.ErrorIs(t, err, ErrPermission)
}
