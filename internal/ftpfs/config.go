package ftpfs

import "time"

// ProxyType enumerates the proxy kinds spec §6 "Configuration
// enumerated" lists.
type ProxyType string

// Proxy types.
const (
	ProxyNone  ProxyType = ""
	ProxyHTTP  ProxyType = "http"
	ProxySocks ProxyType = "socks"
)

// ProxyAuth enumerates proxy auth schemes from spec §6.
type ProxyAuth string

// Proxy auth schemes.
const (
	ProxyAuthAny    ProxyAuth = "any"
	ProxyAuthNTLM   ProxyAuth = "ntlm"
	ProxyAuthDigest ProxyAuth = "digest"
	ProxyAuthBasic  ProxyAuth = "basic"
)

// TLSMode enumerates the TLS modes from spec §6.
type TLSMode string

// TLS modes.
const (
	TLSNone    TLSMode = "none"
	TLSTry     TLSMode = "try"
	TLSControl TLSMode = "control"
	TLSAll     TLSMode = "all"
)

// IPVersion enumerates the IP version preference from spec §6.
type IPVersion string

// IP version preferences.
const (
	IPAny IPVersion = "any"
	IPv4  IPVersion = "v4"
	IPv6  IPVersion = "v6"
)

// FileMethod enumerates the FTP directory-traversal method from spec §6.
type FileMethod string

// File methods.
const (
	FileMethodMultiCWD  FileMethod = "multicwd"
	FileMethodSingleCWD FileMethod = "singlecwd"
)

// Options is the parsed mount configuration, the adapted descendant of
// backend/ftp/ftp.go's Options struct: same shape (host/user/pass/TLS/
// proxy/FTP-mode fields), trimmed to what a single persistent mount
// needs and extended with spec §6's mount-only fields (codepage,
// custom LIST verb, safe-nobody, block size) that a one-backend-among-
// many sync tool never needed.
type Options struct {
	// Host URL. e.g. "ftp://user@ftp.example.com:21/remote/path".
	Host string
	User string
	Pass string
	Port string

	// TLS.
	TLSMode           TLSMode
	ClientCertFile    string
	ClientKeyFile     string
	ClientKeyPassword string
	CAFile            string
	CAPath            string
	CipherList        string
	VerifyPeer        bool
	VerifyHost        bool

	// Proxy.
	ProxyURL   string
	ProxyType  ProxyType
	ProxyTunnel bool
	ProxyAuth  ProxyAuth

	// FTP mode.
	DisableEPSV    bool
	DisableEPRT    bool
	SkipPASVIP     bool
	FTPPort        string
	FileMethod     FileMethod
	CustomListVerb string // spec §6: a configured custom LIST verb
	UTF8Opt        bool   // spec §6: "UTF-8-opt-in" -> OPTS UTF8 ON

	// Misc networking.
	TCPNoDelay     bool
	ConnectTimeout time.Duration
	Interface      string
	KerberosLevel  string
	SSLEngine      string
	SSLVersion     string
	IPVersion      IPVersion

	// Codepage / charset. When Codepage is non-empty, RNFR/RNTO
	// arguments are converted from IOCharset to Codepage before being
	// sent, per spec §6 "Path semantics."
	Codepage   string
	IOCharset  string

	Verbose    bool
	SafeNobody bool // spec §4.C: suppress phantom data-channel open for bodyless commands
	BlockSize  uint32

	// AllowRDWRShim relaxes the O_RDWR-is-rejected rule of spec §4.F
	// to the documented compatibility shim: O_RDWR opens are permitted,
	// but reads are still rejected once pos > 0 or write_conn != nil
	// on that handle — see spec §9 Open Questions.
	AllowRDWRShim bool

	// ReadOnly disables all mutating VFS operations (mkdir, write,
	// rename, chmod, ...), matching the teacher's ReadOnly option on
	// the VFS layer.
	ReadOnly bool
}

// DefaultOptions returns Options with the same defaults
// backend/ftp/ftp.go registers for the overlapping fields (port 21,
// EPSV/EPRT/UTF8 enabled, MLSD enabled) plus spec-only defaults.
func DefaultOptions() Options {
	return Options{
		Port:           "21",
		TLSMode:        TLSNone,
		VerifyPeer:     true,
		VerifyHost:     true,
		ProxyType:      ProxyNone,
		ProxyAuth:      ProxyAuthAny,
		FileMethod:     FileMethodMultiCWD,
		UTF8Opt:        true,
		IPVersion:      IPAny,
		ConnectTimeout: 30 * time.Second,
		BlockSize:      4096,
	}
}
