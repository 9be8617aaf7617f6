// Package log configures the process-wide structured logger. Components
// receive a *logrus.Entry tagged with their name at construction; nothing
// in the repository logs from a real-time path.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing human-readable lines to out. Verbose lowers
// the level to debug. The visualizer occupies the terminal's alternate
// screen while running, so main hands this stderr: startup and shutdown
// lines stay visible after the screen is restored.
func New(out io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// WithComponent tags a logger with the component name used across the
// codebase, e.g. component=capture.
func WithComponent(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// Nop returns a logger that discards everything. Tests use it where a
// component requires a logger but the output is irrelevant.
func Nop() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
