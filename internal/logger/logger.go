// Package logger wraps github.com/charmbracelet/log the way the
// teacher's internal/logger does: a package-level *log.Logger, level
// selected from LOG_LEVEL. FatalStartup additionally writes straight
// to stderr (spec.md §7: a fatal-startup failure must be visible even
// if LOG_LEVEL has quieted the styled logger below the level it would
// otherwise log at).
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL")))
}

// levelFromEnv resolves LOG_LEVEL's value to a log.Level, split out of
// init so the resolution itself is unit-testable.
func levelFromEnv(v string) log.Level {
	switch strings.ToUpper(v) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}

// FatalStartup reports a spec.md §7 fatal-startup failure (missing
// required host global, cannot open the X display, cannot spawn
// Xwayland, cannot claim WM_Sn) directly to stderr, bypassing the
// styled logger entirely, then exits non-zero before any Xwayland
// handshake can complete. cmd/satellite is the only caller.
func FatalStartup(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "fatal: "+format+"\n", args...)
	os.Exit(1)
}
