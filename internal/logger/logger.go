// Package logger provides the process-wide structured logger.
package logger

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// wireTrace is set when WAYLAND_DEBUG asks for protocol tracing.
var wireTrace bool

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	SetLevel(os.Getenv("LOG_LEVEL"))

	level, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if err == nil && level > 0 {
		wireTrace = true
		Logger.SetLevel(log.DebugLevel)
	}
}

// SetLevel sets the level by name. Unknown names select INFO.
func SetLevel(name string) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		Logger.SetLevel(log.DebugLevel)
	case "WARN", "WARNING":
		Logger.SetLevel(log.WarnLevel)
	case "ERROR":
		Logger.SetLevel(log.ErrorLevel)
	case "FATAL":
		Logger.SetLevel(log.FatalLevel)
	default:
		Logger.SetLevel(log.InfoLevel)
	}
}

// With returns a sub-logger that attaches keyvals to every message.
func With(keyvals ...interface{}) *log.Logger {
	return Logger.With(keyvals...)
}

// Tracef logs Wayland protocol traffic. It does nothing unless
// WAYLAND_DEBUG is set to a positive integer.
func Tracef(format string, args ...interface{}) {
	if wireTrace {
		Logger.Debugf(format, args...)
	}
}

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
