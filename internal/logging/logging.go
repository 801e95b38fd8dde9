// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// StacktraceField is the entry field that carries the stack of a logged failure.
const StacktraceField = "stacktrace"

// Options controls Configure.
type Options struct {
	// Level is a logrus level name (default: info)
	Level string
	// File additionally receives every entry; empty disables the file sink
	File string
	// Console is the terminal sink (default: os.Stderr)
	Console io.Writer
	// NoColor disables level colors on the console
	NoColor bool
}

// Configure installs a text formatter with full timestamps and tees output to
// the console and the log file. The returned closer releases the file.
func Configure(opts Options) (io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
		level = parsed
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	out := console
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "open log file %s", opts.File)
		}
		out = io.MultiWriter(console, f)
		closer = f
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    opts.NoColor || opts.File != "",
		QuoteEmptyFields: true,
	})
	log.SetOutput(out)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// WithStacktrace attaches err and the stack recorded where it was first
// wrapped. Used for failures that abort an experiment.
func WithStacktrace(entry *log.Entry, err error) *log.Entry {
	entry = entry.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		entry = entry.WithField(StacktraceField, stack)
	}
	return entry
}

// ExtractStack returns the outermost pkg/errors stack along err's chain,
// looking through role member wrappers and aggregated fan-out errors. It
// returns nil when no stack was recorded.
func ExtractStack(err error) errors.StackTrace {
	var st stackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return nil
}
