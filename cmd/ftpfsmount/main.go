// Command ftpfsmount mounts a remote FTP server as a local directory
// using FUSE, the command-line entry point for the module.
package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/spf13/cobra"

	"github.com/curlftpfs-go/ftpfs/internal/ftpfs"
	"github.com/curlftpfs-go/ftpfs/internal/fusebridge"
)

var opt = ftpfs.DefaultOptions()

var (
	flagVerbose       bool
	flagReadOnly      bool
	flagAllowRDWRShim bool
	flagDisableEPSV   bool
	flagTLSMode       string
	flagFileMethod    string
	flagCustomList    string
	flagBlockSize     uint32
	flagAllowOther    bool
)

func main() {
	root := &cobra.Command{
		Use:   "ftpfsmount ftp://[user[:pass]@]host[:port]/remote/path mountpoint",
		Short: "Mount a remote FTP server as a local filesystem",
		Args:  cobra.ExactArgs(2),
		RunE:  run,
	}

	flags := root.Flags()
	flags.BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	flags.BoolVar(&flagReadOnly, "read-only", false, "mount as read-only")
	flags.BoolVar(&flagAllowRDWRShim, "allow-rdwr-shim", false, "permit O_RDWR opens (reads rejected once the handle starts writing)")
	flags.BoolVar(&flagDisableEPSV, "disable-epsv", false, "disable EPSV, use PASV only")
	flags.StringVar(&flagTLSMode, "tls", "none", "TLS mode: none, try, control, all")
	flags.StringVar(&flagFileMethod, "file-method", "multicwd", "path traversal method: multicwd, singlecwd")
	flags.StringVar(&flagCustomList, "custom-list-verb", "", "use a non-standard LIST verb")
	flags.Uint32Var(&flagBlockSize, "block-size", 4096, "synthetic statfs block size")
	flags.BoolVar(&flagAllowOther, "allow-other", false, "allow other users to access the mount")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	remoteURL, mountpoint := args[0], args[1]

	if flagVerbose {
		ftpfs.SetLevel(ftpfs.LevelDebug)
	}

	opt.ReadOnly = flagReadOnly
	opt.AllowRDWRShim = flagAllowRDWRShim
	opt.DisableEPSV = flagDisableEPSV
	opt.TLSMode = ftpfs.TLSMode(flagTLSMode)
	opt.FileMethod = ftpfs.FileMethod(flagFileMethod)
	opt.CustomListVerb = flagCustomList
	opt.BlockSize = flagBlockSize

	u, err := url.Parse(remoteURL)
	if err != nil {
		return fmt.Errorf("parse remote url: %w", err)
	}
	if u.Scheme != "ftp" && u.Scheme != "ftps" {
		return fmt.Errorf("unsupported scheme %q, want ftp:// or ftps://", u.Scheme)
	}
	if u.Scheme == "ftps" && opt.TLSMode == ftpfs.TLSNone {
		opt.TLSMode = ftpfs.TLSAll
	}

	opt.Host = u.Hostname()
	opt.User = "anonymous"
	opt.Pass = "anonymous@"
	if u.User != nil {
		opt.User = u.User.Username()
		if p, ok := u.User.Password(); ok {
			opt.Pass = p
		}
	}
	opt.Port = u.Port()
	if opt.Port == "" {
		opt.Port = "21"
	}
	remoteRoot := strings.TrimSuffix(u.Path, "/")
	if remoteRoot == "" {
		remoteRoot = "/"
	}

	addr := fmt.Sprintf("%s:%s", opt.Host, opt.Port)
	ftpfs.Infof(nil, "dialing %s", addr)
	conn, err := ftpfs.DialLogin(addr, opt.User, opt.Pass, opt)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	shared := ftpfs.NewShared(conn, opt, remoteRoot)
	shared.SetDialWrite(func() (ftpfs.Conn, error) {
		return ftpfs.DialLogin(addr, opt.User, opt.Pass, opt)
	})
	vfs := ftpfs.NewFS(shared, remoteRoot)

	mountOpts := &fs.Options{
		MountOptions: gofuse.MountOptions{
			FsName:     "ftpfs",
			Name:       "ftpfs",
			AllowOther: flagAllowOther,
		},
	}
	server, err := fs.Mount(mountpoint, fusebridge.Root(vfs), mountOpts)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	go keepAlive(shared)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		_ = server.Unmount()
	}()

	server.Wait()
	return shared.Close()
}

// keepAlive issues NoOp on an idle cadence so the control connection
// survives servers that close idle sessions. Grounded on
// backend/ftp/ftp.go's use of c.NoOp() as a liveness probe on pooled
// connections, adapted to the single shared connection this module
// keeps for its whole lifetime.
func keepAlive(shared *ftpfs.Shared) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		shared.Lock()
		_ = shared.Conn().NoOp()
		shared.Unlock()
	}
}
