package ftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandExecutorMkdirRmdir(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	cmd := newCommandExecutor(shared)

	require.NoError(t, cmd.Mkdir("/sub"))
	assert.True(t, conn.dirs["/sub"])

	require.NoError(t, cmd.Rmdir("/sub"))
	assert.False(t, conn.dirs["/sub"])
}

func TestCommandExecutorUnlink(t *testing.T) {
	conn := newFakeConn()
	conn.files["/f.txt"] = []byte("x")
	shared := newTestShared(conn)
	cmd := newCommandExecutor(shared)

	require.NoError(t, cmd.Unlink("/f.txt"))
	_, ok := conn.files["/f.txt"]
	assert.False(t, ok)
}

func TestCommandExecutorUnlinkMissingIsNoSuchFile(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	cmd := newCommandExecutor(shared)

	err := cmd.Unlink("/missing.txt")
	assert.ErrorIs(t, err, ErrNoSuchFile)
}

func TestCommandExecutorRename(t *testing.T) {
	conn := newFakeConn()
	conn.files["/a.txt"] = []byte("x")
	shared := newTestShared(conn)
	cmd := newCommandExecutor(shared)

	require.NoError(t, cmd.Rename("/a.txt", "/b.txt"))
	assert.Equal(t, []byte("x"), conn.files["/b.txt"])
	require.Len(t, conn.renameCalls, 1)
}

func TestCommandExecutorChmodWithoutHostFails(t *testing.T) {
	conn := newFakeConn()
	shared := newTestShared(conn)
	cmd := newCommandExecutor(shared)

	err := cmd.Chmod("/a.txt", 0o644)
	assert.Error(t, err)
}
