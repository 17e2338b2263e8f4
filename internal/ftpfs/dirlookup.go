package ftpfs

import (
	"path"
	"strings"
)

// dirlookup.go provides the directory-listing glue component G's VFS
// operations (getattr, getdir, readlink) need on top of the Conn
// interface. jlaffaye/ftp parses LIST/MLSD responses into []*ftp.Entry
// itself, so there is no separate parse_dir routine here — the
// "external collaborator" spec §1 names for that role is simply the
// client library. Grounded on backend/ftp/ftp.go's findItem and List.
type dirEntry = Entry

// findItem locates name inside the listing of its parent directory,
// the adapted equivalent of backend/ftp/ftp.go's findItem: a linear
// scan, because FTP servers commonly mis-support MLST for file-level
// lookups even when they support MLSD for whole directories.
func findItem(shared *Shared, fullPath string) (*dirEntry, error) {
	if fullPath == "" || fullPath == "/" {
		return &dirEntry{Name: "/", Type: EntryTypeFolder}, nil
	}
	dir, name := path.Split(strings.TrimRight(fullPath, "/"))
	entries, err := shared.conn.List(encodePath(shared.opt, dir))
	if err != nil {
		return nil, newError(ErrNoSuchFile.Errno(), err.Error())
	}
	for _, e := range entries {
		if decodePath(shared.opt, e.Name) == name {
			return e, nil
		}
	}
	return nil, ErrNoSuchFile
}

// listDir returns the full directory listing at dirPath, with entry
// names decoded from the configured remote codepage.
func listDir(shared *Shared, dirPath string) ([]*dirEntry, error) {
	entries, err := shared.conn.List(encodePath(shared.opt, dirPath))
	if err != nil {
		return nil, newError(ErrNoSuchFile.Errno(), err.Error())
	}
	for _, e := range entries {
		e.Name = decodePath(shared.opt, e.Name)
	}
	return entries, nil
}
