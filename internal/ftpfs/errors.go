package ftpfs

import (
	"syscall"

	"github.com/pkg/errors"
)

// Error is a VFS-facing error carrying the errno-compatible status code
// spec.md §7 enumerates. The taxonomy is deliberately small: most
// failure modes the FTP control channel can produce are folded into
// ErrPermission, the same generalization the source makes (a FTP
// command failure has no cheap way to distinguish EPERM/EACCES/ENOSPC
// from the response code alone).
type Error struct {
	errno syscall.Errno
	msg   string
}

func (e *Error) Error() string { return e.msg }

// Is lets errors.Is/errors.As match any *Error carrying the same errno
// against one of the sentinels below, not just the exact pointer —
// command.go and readwindow.go wrap remote failures in fresh *Error
// values with a server-specific message, so pointer identity alone
// would never match ErrNoSuchFile et al.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.errno == t.errno
}

// Errno implements the interface VFS bridges use to recover a raw errno
// from an arbitrary error value.
func (e *Error) Errno() syscall.Errno { return e.errno }

func newError(errno syscall.Errno, msg string) *Error {
	return &Error{errno: errno, msg: msg}
}

// Sentinel errors from spec §7. Each is a distinct *Error value so
// callers can compare with errors.Is.
var (
	// ErrNoSuchFile — path not present in a directory listing.
	ErrNoSuchFile = newError(syscall.ENOENT, "no such file")
	// ErrAccess — open/probe failed, or an O_EXCL target already exists.
	ErrAccess = newError(syscall.EACCES, "access denied")
	// ErrPermission — any command-executor failure (generalized), or an
	// unsupported truncate value.
	ErrPermission = newError(syscall.EPERM, "operation not permitted")
	// ErrNotSupported — O_APPEND, or O_RDWR without the compatibility shim.
	ErrNotSupported = newError(syscall.ENOTSUP, "not supported")
	// ErrIO — a read failed after a restart, a write failed, a
	// non-sequential write was attempted, or a flush size mismatch.
	ErrIO = newError(syscall.EIO, "I/O error")
	// ErrOutOfMemory — buffer allocation failed during a write.
	ErrOutOfMemory = newError(syscall.ENOMEM, "out of memory")
	// ErrInvalid — a malformed open (e.g. O_TRUNC with O_RDONLY).
	ErrInvalid = newError(syscall.EINVAL, "invalid argument")
)

// Errno extracts a syscall.Errno from err, defaulting to EIO for
// unrecognized errors — the same "fold unknown errors to I/O error"
// policy spec §7 describes for "unclassified client errors."
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.errno
	}
	return syscall.EIO
}
