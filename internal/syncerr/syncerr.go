// Package syncerr defines the error kinds surfaced by skills-sync commands.
// Every fatal condition is reported as a *Error carrying a Kind so the CLI can
// print a short bilingual status line together with the failing path, URL or
// business code.
package syncerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error. Kinds are string-based so they read well in logs.
type Kind string

const (
	// KindIO is a filesystem read or write failure.
	KindIO Kind = "IO_ERROR"
	// KindPathTraversal is an archive entry that would escape the extraction root.
	KindPathTraversal Kind = "PATH_TRAVERSAL"
	// KindNetwork is a transport failure or a non-success HTTP status.
	KindNetwork Kind = "NETWORK_ERROR"
	// KindNotFound is a business code unknown to the server.
	KindNotFound Kind = "NOT_FOUND"
	// KindNoSkillsFound is a scan that produced zero marker files.
	KindNoSkillsFound Kind = "NO_SKILLS_FOUND"
	// KindCorruptArchive is a payload that is not a readable zip archive.
	KindCorruptArchive Kind = "CORRUPT_ARCHIVE"
	// KindInvalidInput is a malformed flag or configuration value.
	KindInvalidInput Kind = "INVALID_INPUT"
	// KindUnknown is anything not produced by this package.
	KindUnknown Kind = "UNKNOWN"
)

var titles = map[Kind]string{
	KindIO:             "File access failed / 文件读写失败",
	KindPathTraversal:  "Unsafe archive entry / 压缩包路径越界",
	KindNetwork:        "Network request failed / 网络请求失败",
	KindNotFound:       "Business code not found / 业务码不存在",
	KindNoSkillsFound:  "No SKILL.md files found / 未找到任何 SKILL.md 文件",
	KindCorruptArchive: "Archive is corrupt / 压缩包已损坏",
	KindInvalidInput:   "Invalid input / 参数无效",
	KindUnknown:        "Error / 错误",
}

// Title returns the bilingual status line for k.
func (k Kind) Title() string {
	if t, ok := titles[k]; ok {
		return t
	}
	return titles[KindUnknown]
}

// Error is the concrete error type returned by skills-sync packages.
type Error struct {
	Kind    Kind
	Op      string // operation, e.g. "read", "upload"
	Subject string // failing path, URL or business code
	Status  int    // HTTP status, if any
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op
	}
	if e.Subject != "" {
		msg += " " + e.Subject
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// IO wraps a filesystem failure on path.
func IO(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Subject: path, Err: err}
}

// PathTraversal reports an archive entry escaping the extraction root.
func PathTraversal(entry string) error {
	return &Error{Kind: KindPathTraversal, Op: "extract", Subject: entry,
		Err: errors.New("entry escapes the target directory")}
}

// Network reports a transport failure or an unexpected HTTP status for url.
// message is the server-provided text, if any.
func Network(op, url string, status int, message string, err error) error {
	if err == nil && message != "" {
		err = errors.New(message)
	} else if err != nil && message != "" {
		err = errors.Wrap(err, message)
	}
	return &Error{Kind: KindNetwork, Op: op, Subject: url, Status: status, Err: err}
}

// NotFound reports a business code the server does not recognise.
func NotFound(code string) error {
	return &Error{Kind: KindNotFound, Op: "download", Subject: code, Status: 404}
}

// NoSkillsFound reports an empty scan over roots.
func NoSkillsFound(roots []string) error {
	return &Error{Kind: KindNoSkillsFound, Op: "scan", Subject: fmt.Sprintf("%v", roots)}
}

// CorruptArchive reports a payload that cannot be read as an archive.
func CorruptArchive(err error) error {
	return &Error{Kind: KindCorruptArchive, Op: "open archive", Err: err}
}

// InvalidInput reports a bad flag or configuration value.
func InvalidInput(what string, err error) error {
	return &Error{Kind: KindInvalidInput, Op: "validate", Subject: what, Err: err}
}
