package ftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSGetattrRoot(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	a, err := fs.Getattr("")
	require.NoError(t, err)
	assert.NotZero(t, a.Mode&ModeDir)
}

func TestFSReaddirListsFilesAndDirs(t *testing.T) {
	conn := newFakeConn()
	conn.files["/a.txt"] = []byte("hi")
	conn.dirs["/sub"] = true
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	entries, err := fs.Readdir("")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["a.txt"])
	assert.True(t, names["sub"])
}

func TestFSMkdirReadOnlyRejected(t *testing.T) {
	conn := newFakeConn()
	opt := DefaultOptions()
	opt.ReadOnly = true
	shared := NewShared(conn, opt, "/")
	fs := NewFS(shared, "/")

	err := fs.Mkdir("newdir")
	assert.ErrorIs(t, err, ErrAccess)
	assert.False(t, conn.dirs["/newdir"])
}

func TestFSOpenMissingWithoutCreateFails(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	_, err := fs.Open("nope.txt", OWronly)
	assert.ErrorIs(t, err, ErrNoSuchFile)
}

func TestFSOpenReadOnlyCreateMakesEmptyFile(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	fh, err := fs.Open("fresh.txt", OCreate)
	require.NoError(t, err)
	data, ok := conn.files["/fresh.txt"]
	require.True(t, ok)
	assert.Empty(t, data)

	got, err := fs.Read(fh, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, fs.Release(fh))
}

func TestFSOpenReadOnlyProbeFailureRejectsWithAccess(t *testing.T) {
	conn := newFakeConn()
	conn.files["/broken.txt"] = []byte("x")
	conn.failRetr = assert.AnError
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	_, err := fs.Open("broken.txt", 0)
	assert.ErrorIs(t, err, ErrAccess)
}

func TestFSWriteThenReadRoundTrip(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	fh, err := fs.Open("new.txt", OWronly|OCreate|OTrunc)
	require.NoError(t, err)

	n, err := fs.Write(fh, 0, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	require.NoError(t, fs.Release(fh))
	assert.Equal(t, "payload", string(conn.files["/new.txt"]))

	rfh, err := fs.Open("new.txt", 0)
	require.NoError(t, err)
	data, err := fs.Read(rfh, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	require.NoError(t, fs.Release(rfh))
}

func TestFSStatfsReturnsSyntheticValues(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	fs := NewFS(shared, "/")

	bs, total, free := fs.Statfs()
	assert.EqualValues(t, 4096, bs)
	assert.Equal(t, total, free)
	assert.Greater(t, total, uint64(0))
}

func TestFSRenameReadOnlyRejected(t *testing.T) {
	conn := newFakeConn()
	conn.files["/a.txt"] = []byte("x")
	opt := DefaultOptions()
	opt.ReadOnly = true
	shared := NewShared(conn, opt, "/")
	fs := NewFS(shared, "/")

	err := fs.Rename("a.txt", "b.txt")
	assert.ErrorIs(t, err, ErrAccess)
}
