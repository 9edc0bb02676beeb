package pkg

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures raised while cataloging and placing photos.
type ErrorKind int

const (
	// KindIO covers unreadable or uncreatable files and directories.
	KindIO ErrorKind = iota
	// KindDecode means the metadata decoder could not read the file.
	KindDecode
	// KindDateParse means no usable date could be derived for the file.
	KindDateParse
	// KindUnsupported means the file extension is not a supported photo format.
	KindUnsupported
	// KindProcess covers everything else, e.g. a path that cannot be relativized.
	KindProcess
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindDecode:
		return "decode"
	case KindDateParse:
		return "date"
	case KindUnsupported:
		return "unsupported"
	case KindProcess:
		return "process"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by this package.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s %q: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s %q", e.Kind, e.Op, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
// Errors that did not originate here are reported as KindProcess.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProcess
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
