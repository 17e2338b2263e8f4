package ftpfs

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrnoExtractsSentinel(t *testing.T) {
	assert.Equal(t, syscall.ENOENT, Errno(ErrNoSuchFile))
}

func TestErrnoDefaultsToEIOForUnknown(t *testing.T) {
	assert.Equal(t, syscall.EIO, Errno(errors.New("boom")))
}

func TestErrnoNilIsZero(t *testing.T) {
	assert.EqualValues(t, 0, Errno(nil))
}

func TestErrorImplementsErrorInterface(t *testing.T) {
	var err error = ErrPermission
	assert.EqualError(t, err, "operation not permitted")
}
