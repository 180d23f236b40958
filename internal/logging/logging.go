// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options selects level, format and an optional extra log file.
type Options struct {
	Level  string
	Format string
	File   string
}

// Setup configures logrus to write to stderr and, when opts.File is set, to
// that file as well. stdout is reserved for the MCP protocol. The returned
// file handle is nil when no file was requested; callers close it on exit.
func Setup(opts Options) (*os.File, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)

	switch opts.Format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q (use text or json)", opts.Format)
	}

	if opts.File == "" {
		logrus.SetOutput(os.Stderr)
		return nil, nil
	}

	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

func parseLevel(s string) (logrus.Level, error) {
	if s == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
