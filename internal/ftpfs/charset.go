package ftpfs

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// encodePath converts path from opt.IOCharset (the charset this
// process's callers use, typically "utf-8") to opt.Codepage (the
// charset the remote FTP server expects on the wire), the same
// direction backend/ftp/ftp.go's oldCodePage/oldIoCharset conversion
// runs RNFR/RNTO/STOR/MKD paths through for servers that don't speak
// UTF-8. When Codepage is empty the path passes through unchanged.
func encodePath(opt Options, path string) string {
	if opt.Codepage == "" || opt.Codepage == "utf-8" {
		return path
	}
	enc, err := htmlindex.Get(opt.Codepage)
	if err != nil {
		enc = charmap.ISO8859_1
	}
	out, err := enc.NewEncoder().String(path)
	if err != nil {
		return path
	}
	return out
}

// decodePath is the inverse of encodePath, applied to names the
// server's LIST/MLSD response returns.
func decodePath(opt Options, path string) string {
	if opt.Codepage == "" || opt.Codepage == "utf-8" {
		return path
	}
	enc, err := htmlindex.Get(opt.Codepage)
	if err != nil {
		enc = charmap.ISO8859_1
	}
	out, err := enc.NewDecoder().String(path)
	if err != nil {
		return path
	}
	return out
}
