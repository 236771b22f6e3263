package logging

import (
	"io"
	"os"

	"github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"
)

// Fields is a set of structured log fields.
type Fields = log.Fields

// logger is the debug logger. It stays at warn level until Setup enables
// verbose output.
var logger = newLogger(os.Stderr)

// Verbose reports whether debug output is enabled.
var Verbose bool

func newLogger(w io.Writer) *log.Logger {
	l := log.New()
	l.SetOutput(w)
	l.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	l.SetLevel(log.WarnLevel)
	return l
}

// Setup configures the debug logger. With verbose set, debug messages are
// written to w.
func Setup(verbose bool, w io.Writer) {
	Verbose = verbose
	logger = newLogger(w)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

// Debug logs a debug message with optional fields.
func Debug(msg string, fields Fields) {
	logger.WithFields(fields).Debug(msg)
}

// Warn logs a warning for conditions that were tolerated.
func Warn(msg string, err error) {
	entry := logger.WithFields(Fields{})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
}

// Command logs an external command line in shell-quoted form, so the
// logged line can be pasted into a terminal as is.
func Command(dir, name string, args []string) {
	logger.WithFields(Fields{
		"dir": dir,
		"cmd": shellquote.Join(append([]string{name}, args...)...),
	}).Debug("exec")
}
