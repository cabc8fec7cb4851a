package backup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies pipeline failures.
type ErrorKind int

const (
	// KindConfigMissingOrInvalid - a configured path does not exist or a system definition is incomplete.
	KindConfigMissingOrInvalid ErrorKind = iota + 1
	// KindDestinationConflict - destination archive already exists or has the wrong extension.
	KindDestinationConflict
	// KindSourceMissing - source root vanished between validation and run.
	KindSourceMissing
	// KindIOFailure - read/write/create failure while traversing or archiving.
	KindIOFailure
	// KindPathComputation - an entry could not be made relative to the source root.
	KindPathComputation
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfigMissingOrInvalid:
		return "config missing or invalid"
	case KindDestinationConflict:
		return "destination conflict"
	case KindSourceMissing:
		return "source missing"
	case KindIOFailure:
		return "I/O failure"
	case KindPathComputation:
		return "path computation failure"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by the archival pipeline. Lines holds
// the human-readable diagnostics in display order; Err keeps the underlying
// cause (typically an *fs.PathError) reachable through errors.Is/As.
type Error struct {
	Kind  ErrorKind
	Op    string
	Path  string
	Lines []string
	Err   error
}

func (e *Error) Error() string {
	return strings.Join(e.Texts(), "; ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Texts returns the flat, ordered list of plain-text lines describing the error.
// The underlying cause, when present, is always the last line.
func (e *Error) Texts() []string {
	if e == nil {
		return nil
	}
	lines := make([]string, 0, len(e.Lines)+1)
	lines = append(lines, e.Lines...)
	if e.Err != nil {
		lines = append(lines, e.Err.Error())
	}
	if len(lines) == 0 {
		lines = append(lines, e.Kind.String())
	}
	return lines
}

func newError(kind ErrorKind, op, path string, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:  kind,
		Op:    op,
		Path:  path,
		Lines: []string{fmt.Sprintf(format, args...)},
		Err:   err,
	}
}

// NewConfigError builds a KindConfigMissingOrInvalid error with the given lines.
func NewConfigError(path string, lines ...string) *Error {
	return &Error{
		Kind:  KindConfigMissingOrInvalid,
		Op:    "validate",
		Path:  path,
		Lines: append([]string(nil), lines...),
	}
}

// WithContext prepends a line (for example the system name) to an error's texts.
// Non-pipeline errors are wrapped as KindIOFailure so callers always get lines.
func WithContext(err error, line string) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		clone := *be
		clone.Lines = append([]string{line}, be.Lines...)
		return &clone
	}
	return &Error{Kind: KindIOFailure, Lines: []string{line}, Err: err}
}

// IsKind reports whether err is (or wraps) a pipeline error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// Texts returns the display lines for any error.
func Texts(err error) []string {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Texts()
	}
	return strings.Split(err.Error(), "\n")
}
