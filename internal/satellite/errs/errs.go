// Package errs implements the error taxonomy spec.md §7 names: fatal
// startup errors, per-object protocol errors, recoverable errors, and
// errors that are logged and continued past. Every other package
// returns plain wrapped errors the normal Go way; neither cmd/satellite
// nor internal/loop imports this package.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the response spec.md §7 requires.
type Kind int

const (
	// KindFatal is a startup failure: missing required host global,
	// cannot open the X display, cannot spawn Xwayland, cannot claim
	// WM_Sn. The process exits non-zero before any handshake.
	KindFatal Kind = iota
	// KindProtocol is a malformed Xwayland request or unknown opcode.
	// The offending connection is the only one Xwayland has, so in
	// practice Xwayland itself dies and the satellite exits with its
	// status (spec.md §7).
	KindProtocol
	// KindRecoverable is a host global disappearing at runtime, an X
	// property decode failure, or a selection-transfer read error.
	// The dependent feature is disabled or a default assumed; the
	// process keeps running.
	KindRecoverable
	// KindLogged is an unknown X atom, unsupported MIME type, or
	// out-of-range geometry: logged once, never surfaced further.
	KindLogged
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindProtocol:
		return "protocol"
	case KindRecoverable:
		return "recoverable"
	case KindLogged:
		return "logged"
	default:
		return "unknown"
	}
}

// Error pairs an underlying error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Fatal wraps err as a fatal startup error.
func Fatal(format string, args ...any) error {
	return &Error{Kind: KindFatal, Err: fmt.Errorf(format, args...)}
}

// Protocol wraps err as a per-object protocol error.
func Protocol(format string, args ...any) error {
	return &Error{Kind: KindProtocol, Err: fmt.Errorf(format, args...)}
}

// Recoverable wraps err as a recoverable error.
func Recoverable(format string, args ...any) error {
	return &Error{Kind: KindRecoverable, Err: fmt.Errorf(format, args...)}
}

// Logged wraps err as a logged-and-continued error.
func Logged(format string, args ...any) error {
	return &Error{Kind: KindLogged, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the Kind of err, defaulting to KindRecoverable for
// any error not constructed through this package (an unclassified
// error should never bring the process down by itself).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRecoverable
}

// IsFatal reports whether err (or anything it wraps) is fatal.
func IsFatal(err error) bool { return KindOf(err) == KindFatal }
