package ftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindItemRoot(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)

	e, err := findItem(shared, "/")
	require.NoError(t, err)
	assert.Equal(t, EntryTypeFolder, e.Type)
}

func TestFindItemMissing(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)

	_, err := findItem(shared, "/missing.txt")
	assert.ErrorIs(t, err, ErrNoSuchFile)
}

func TestFindItemFound(t *testing.T) {
	conn := newFakeConn()
	conn.files["/a/b.txt"] = []byte("hi")
	conn.dirs["/a"] = true
	shared := newTestShared(conn)

	e, err := findItem(shared, "/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", e.Name)
	assert.EqualValues(t, 2, e.Size)
}

func TestListDirFiltersToDirectChildren(t *testing.T) {
	conn := newFakeConn()
	conn.files["/a.txt"] = []byte("x")
	conn.files["/sub/b.txt"] = []byte("y")
	shared := newTestShared(conn)

	entries, err := listDir(shared, "/")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "a.txt")
	assert.NotContains(t, names, "b.txt")
}
