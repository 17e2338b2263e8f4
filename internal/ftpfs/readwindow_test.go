package ftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShared(conn Conn) *Shared {
	return NewShared(conn, DefaultOptions(), "/")
}

func TestReadWindowSequentialRead(t *testing.T) {
	conn := newFakeConn()
	payload := make([]byte, 200*1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	conn.files["/f.bin"] = payload
	shared := newTestShared(conn)
	h := &Handle{shared: shared, path: "/f.bin", size: int64(len(payload))}

	w := newReadWindow()
	got, err := w.ReadChunk(shared, h, 0, 4096)
	require.NoError(t, err)
	assert.Equal(t, payload[:4096], got)

	got, err = w.ReadChunk(shared, h, 4096, 4096)
	require.NoError(t, err)
	assert.Equal(t, payload[4096:8192], got)
}

func TestReadWindowBackwardSeekRestarts(t *testing.T) {
	conn := newFakeConn()
	payload := []byte("0123456789abcdefghij")
	conn.files["/f.bin"] = payload
	shared := newTestShared(conn)
	h := &Handle{shared: shared, path: "/f.bin", size: int64(len(payload))}

	w := newReadWindow()
	_, err := w.ReadChunk(shared, h, 10, 5)
	require.NoError(t, err)

	got, err := w.ReadChunk(shared, h, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("01234"), got)
}

func TestReadWindowShortReadAtEOF(t *testing.T) {
	conn := newFakeConn()
	payload := []byte("short")
	conn.files["/f.bin"] = payload
	shared := newTestShared(conn)
	h := &Handle{shared: shared, path: "/f.bin", size: int64(len(payload))}

	w := newReadWindow()
	got, err := w.ReadChunk(shared, h, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadWindowShrinksDuringLongSequentialRead(t *testing.T) {
	conn := newFakeConn()
	payload := make([]byte, readWindowShrinkThreshold*3)
	conn.files["/f.bin"] = payload
	shared := newTestShared(conn)
	h := &Handle{shared: shared, path: "/f.bin", size: int64(len(payload))}

	w := newReadWindow()
	const step = 32 * 1024
	var offset int64
	for offset+step <= int64(len(payload)) {
		_, err := w.ReadChunk(shared, h, offset, step)
		require.NoError(t, err)
		offset += step
	}

	assert.Less(t, w.buf.Len(), readWindowShrinkThreshold+readDrainChunk)
	assert.Greater(t, w.buf.BeginOffset(), int64(0))
}
