// Package tcowerr defines the error taxonomy shared by every tcow package
// (spec §7). Callers match these with errors.Is/errors.As; the CLI maps them
// to the exit codes documented in spec §6.
package tcowerr

import "golang.org/x/xerrors"

// FormatError wraps the structural decode failures of spec §7: bad magic,
// unsupported version, truncated trailer, bad checksum, and so on. Reason
// names the failing field or condition so the CLI can print a one-line
// diagnostic per spec §7.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return "format: " + e.Reason + ": " + e.Err.Error()
	}
	return "format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

func Format(reason string) error {
	return &FormatError{Reason: reason}
}

func Formatf(reason string, err error) error {
	return &FormatError{Reason: reason, Err: err}
}

// Sentinel reasons used by internal/file and internal/format. Matched with
// errors.Is against a *FormatError whose Reason equals the sentinel's
// Reason (see Is below), since the wrapped Err varies per call site.
var (
	ErrBadHeaderMagic      = &FormatError{Reason: "BadHeaderMagic"}
	ErrUnsupportedVersion  = &FormatError{Reason: "UnsupportedVersion"}
	ErrBadFooterMagic      = &FormatError{Reason: "BadFooterMagic"}
	ErrTooShort            = &FormatError{Reason: "TooShort"}
	ErrTrailerBoundsInvalid = &FormatError{Reason: "TrailerBoundsInvalid"}
	ErrTrailerDecode       = &FormatError{Reason: "TrailerDecode"}
	ErrTarParse            = &FormatError{Reason: "TarParse"}
	ErrBadChecksum         = &FormatError{Reason: "BadChecksum"}
	ErrNameTooLong         = &FormatError{Reason: "NameTooLong"}
)

// Is lets errors.Is(err, ErrBadHeaderMagic) succeed even though the actual
// error returned by a call site wraps an underlying cause the sentinel does
// not carry.
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// ErrNotFound reports that a path did not resolve under the requested
// lookup mode. Not an engine error; it is the caller's query returning
// empty, per spec §7.
var ErrNotFound = xerrors.New("tcow: path not found")

// InvalidPathError reports an empty path, a path containing "..", or a path
// containing a NUL byte (spec §7).
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return "invalid path " + quote(e.Path) + ": " + e.Reason
}

func quote(s string) string {
	return "\"" + s + "\""
}

func InvalidPath(path, reason string) error {
	return &InvalidPathError{Path: path, Reason: reason}
}

// IOError wraps an underlying read/write/seek/truncate/fsync/lock failure
// with the operation that triggered it.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return "io: " + e.Op + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}

// IntegrityError reports a layer digest mismatch found by verify.
type IntegrityError struct {
	LayerIndex int
	Want       string
	Got        string
}

func (e *IntegrityError) Error() string {
	return xerrors.Errorf("layer %d: digest mismatch: want %s, got %s",
		e.LayerIndex, e.Want, e.Got).Error()
}

// StateError reports a mutation attempted on a read-only session, or a
// second open while a lock is already held.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "state: " + e.Reason }

func State(reason string) error {
	return &StateError{Reason: reason}
}
