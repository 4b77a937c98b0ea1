// Package kerrors defines the error taxonomy shared by the KittyPress
// codecs: every failure surfacing from pkg/dictcoder, pkg/entropy,
// pkg/entry or pkg/archive carries one of a small set of
// kinds so callers (and the CLI) can report "kind: path: detail" without
// re-deriving what went wrong from a bare error string.
package kerrors

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Other is used for failures that don't fit a more specific kind.
	Other Kind = iota
	// IO covers read/write/open/rename/unlink failures on the filesystem.
	IO
	// BadSignature means the 4-byte magic did not match any known format.
	BadSignature
	// Truncated means the stream ended before a declared-length field or
	// payload was fully read.
	Truncated
	// Corrupt means the input was well-formed but semantically invalid:
	// an unknown code in a bit stream, a back-reference reaching past the
	// output built so far, or a token tag outside the graceful-stop set.
	Corrupt
	// UnsupportedVersion means the magic identified a real format that
	// this call is not able to handle (V4 on a per-file path, or a
	// legacy V1/V2/V3 magic on the archive path).
	UnsupportedVersion
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io error"
	case BadSignature:
		return "bad signature"
	case Truncated:
		return "truncated"
	case Corrupt:
		return "corrupt"
	case UnsupportedVersion:
		return "unsupported version"
	default:
		return "error"
	}
}

// Error is the concrete error type returned by KittyPress codecs. Op names
// the failing operation (e.g. "entry.Compress"), Path is the file the
// operation was acting on, and Err is the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind for op/path, wrapping err (which
// may be nil).
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Is reports whether err (or any error it wraps) is a *kerrors.Error of
// the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
