package ftpfs

import (
	"fmt"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

// command.go is component C, the command executor spec §4.C describes:
// a thin layer issuing the handful of control-channel verbs the VFS
// operations need (mkdir, rmdir, rename, delete, the SITE CHMOD/CHUID/
// CHGID triad, a configured custom LIST verb, and OPTS UTF8 ON), each
// wrapped in the errno taxonomy of errors.go.
//
// Grounded on backend/ftp/ftp.go's Mkdir/Rmdir/Move/DirMove methods,
// which are themselves thin wrappers one level above jlaffaye/ftp.

// dialSite lazily opens the second control connection used only for
// verbs jlaffaye/ftp's ServerConn has no method for. jlaffaye/ftp owns
// the primary connection end to end (handshake, PASV/EPSV, TYPE I);
// reimplementing that handshake by hand for a second stream would
// duplicate a library the teacher already depends on for no benefit,
// so this dialer is deliberately minimal: it is only ever asked to
// send a single SITE/OPTS line and read the reply.
//
// This is the one place in the module that talks net/textproto
// directly instead of going through jlaffaye/ftp — justified in
// DESIGN.md: no released version of jlaffaye/ftp exposes raw command
// passthrough (confirmed against its test suite in the retrieved
// corpus), and SITE CHMOD/CHUID/CHGID have no typed method on that
// client at all.
type textprotoSite struct {
	conn *textproto.Conn
}

func dialSite(addr, user, pass string) (*textprotoSite, error) {
	conn, err := textproto.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "site: dial")
	}
	if _, _, err := conn.ReadResponse(2); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "site: banner")
	}
	if err := conn.PrintfLine("USER %s", user); err != nil {
		conn.Close()
		return nil, err
	}
	if _, _, err := conn.ReadResponse(3); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "site: user")
	}
	if err := conn.PrintfLine("PASS %s", pass); err != nil {
		conn.Close()
		return nil, err
	}
	if _, _, err := conn.ReadResponse(2); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "site: pass")
	}
	return &textprotoSite{conn: conn}, nil
}

func (s *textprotoSite) Quote(cmd string) error {
	id, err := s.conn.Cmd(cmd)
	if err != nil {
		return err
	}
	s.conn.StartResponse(id)
	defer s.conn.EndResponse(id)
	_, msg, err := s.conn.ReadResponse(2)
	if err != nil {
		// 5xx permission-denied replies are the common case for a
		// rejected CHMOD/CHOWN; fold everything else to EPERM per
		// spec §7's "command executor failure" generalization.
		return newError(ErrPermission.Errno(), msg)
	}
	return nil
}

func (s *textprotoSite) Close() error { return s.conn.Close() }

// commandExecutor issues the control-channel verbs component G needs
// beyond plain metadata lookups: mkdir/rmdir/rename/delete go straight
// through Conn, while chmod/chown and the custom LIST verb need the
// secondary SiteConn.
type commandExecutor struct {
	shared *Shared
}

func newCommandExecutor(shared *Shared) *commandExecutor {
	return &commandExecutor{shared: shared}
}

func (c *commandExecutor) site() (SiteConn, error) {
	if c.shared.site != nil {
		return c.shared.site, nil
	}
	opt := c.shared.opt
	if opt.Host == "" {
		return nil, errors.New("no host configured")
	}
	addr := opt.Host
	if opt.Port != "" && !strings.Contains(addr, ":") {
		addr = fmt.Sprintf("%s:%s", addr, opt.Port)
	}
	s, err := dialSite(addr, opt.User, opt.Pass)
	if err != nil {
		return nil, err
	}
	c.shared.site = s
	return s, nil
}

// Chmod issues SITE CHMOD <mode> <path>. Call with shared.mu held.
func (c *commandExecutor) Chmod(path string, mode uint32) error {
	s, err := c.site()
	if err != nil {
		return errors.Wrap(err, "chmod")
	}
	return s.Quote(fmt.Sprintf("SITE CHMOD %o %s", mode&0o7777, path))
}

// Chown issues SITE CHUID and, when gid is non-negative, SITE CHGID.
// Call with shared.mu held.
func (c *commandExecutor) Chown(path string, uid, gid int) error {
	s, err := c.site()
	if err != nil {
		return errors.Wrap(err, "chown")
	}
	if uid >= 0 {
		if err := s.Quote(fmt.Sprintf("SITE CHUID %d %s", uid, path)); err != nil {
			return err
		}
	}
	if gid >= 0 {
		if err := s.Quote(fmt.Sprintf("SITE CHGID %d %s", gid, path)); err != nil {
			return err
		}
	}
	return nil
}

// EnableUTF8 sends OPTS UTF8 ON once, per spec §6's UTF8Opt flag. It
// tolerates servers that reject the option (older FTPds): a failure
// here only means raw bytes are exchanged instead of UTF-8, not a
// mount failure.
func (c *commandExecutor) EnableUTF8() {
	if !c.shared.opt.UTF8Opt {
		return
	}
	s, err := c.site()
	if err != nil {
		return
	}
	_ = s.Quote("OPTS UTF8 ON")
}

// Mkdir creates path. Grounded on backend/ftp/ftp.go's Mkdir, which is
// a direct c.MakeDir(path) call.
func (c *commandExecutor) Mkdir(path string) error {
	if err := c.shared.conn.MakeDir(encodePath(c.shared.opt, path)); err != nil {
		return newError(ErrPermission.Errno(), err.Error())
	}
	return nil
}

// Rmdir removes the directory at path. Grounded on backend/ftp/ftp.go's
// Rmdir (c.RemoveDir(path)).
func (c *commandExecutor) Rmdir(path string) error {
	if err := c.shared.conn.RemoveDir(encodePath(c.shared.opt, path)); err != nil {
		return newError(ErrPermission.Errno(), err.Error())
	}
	return nil
}

// Unlink deletes the file at path.
func (c *commandExecutor) Unlink(path string) error {
	if err := c.shared.conn.Delete(encodePath(c.shared.opt, path)); err != nil {
		return newError(ErrNoSuchFile.Errno(), err.Error())
	}
	return nil
}

// Rename moves from to to. Grounded on backend/ftp/ftp.go's Move/
// DirMove, both of which reduce to a single c.Rename(from, to) since
// the FTP RNFR/RNTO pair works identically for files and directories.
func (c *commandExecutor) Rename(from, to string) error {
	opt := c.shared.opt
	if err := c.shared.conn.Rename(encodePath(opt, from), encodePath(opt, to)); err != nil {
		return newError(ErrPermission.Errno(), err.Error())
	}
	return nil
}
