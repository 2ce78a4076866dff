// Package errs classifies the satellite's failures into the four
// categories spec.md §7 distinguishes, the way the teacher's
// internal/server/server.go separates a privilege-separation failure
// (fatal, before the server can run at all) from a per-connection one
// (logged, the server keeps serving everyone else).
package errs

import (
	"errors"
	"fmt"
)

// Category is one of spec.md §7's four failure classes.
type Category int

const (
	// Recoverable: the operation that failed can simply be retried or
	// skipped; nothing else observes it.
	Recoverable Category = iota
	// LoggedAndContinued: worth a log line, never propagated further
	// (internal/loop.LogAndContinue's category).
	LoggedAndContinued
	// PerObjectProtocol: a malformed request or unknown opcode from
	// Xwayland; that connection is killed, the satellite keeps running.
	PerObjectProtocol
	// FatalStartup: missing required host global, cannot open the X
	// display, cannot spawn Xwayland, cannot claim WM_Sn — the satellite
	// cannot run at all and exits non-zero before any handshake
	// completes.
	FatalStartup
)

func (c Category) String() string {
	switch c {
	case Recoverable:
		return "recoverable"
	case LoggedAndContinued:
		return "logged"
	case PerObjectProtocol:
		return "protocol"
	case FatalStartup:
		return "fatal-startup"
	default:
		return "unknown"
	}
}

// Error carries a Category alongside the usual op/wrapped-error shape,
// so a caller can react to the class of failure without parsing
// strings cmd/satellite's error messages might otherwise require.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func newError(cat Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: cat, Op: op, Err: err}
}

// Startup wraps err as a FatalStartup failure (spec.md §7's first
// category).
func Startup(op string, err error) error { return newError(FatalStartup, op, err) }

// Protocol wraps err as a PerObjectProtocol failure: the offending
// Xwayland connection is the one that dies, not the whole process.
func Protocol(op string, err error) error { return newError(PerObjectProtocol, op, err) }

// Is reports whether err (or anything it wraps) is an *Error of cat.
func Is(err error, cat Category) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Category == cat
}
