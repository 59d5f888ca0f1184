// Package logging builds the zerolog logger used across a run: level from
// the verbosity flags, human output on a terminal, JSON otherwise, and an
// optional rotating file. Every sink redacts secrets.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	_logMaxSizeMB  = 5
	_logMaxBackups = 3
	_logMaxAgeDays = 28
)

// Options configures New.
type Options struct {
	Verbose bool
	Quiet   bool
	// File, when set, also receives JSON logs with rotation.
	File string
	// Console is the human-facing sink; nil means os.Stderr.
	Console io.Writer
}

// New returns the logger and a Closer for the log file (a no-op when there
// is none). A log file that cannot be opened is reported on the logger and
// otherwise ignored.
func New(opts Options) (zerolog.Logger, io.Closer) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	var writer io.Writer = NewFilteringWriter(selectOutput(console))
	closer := io.Closer(nopCloser{})

	var fileErr error
	if opts.File != "" {
		lj, err := fileWriter(opts.File)
		if err != nil {
			fileErr = err
		} else {
			closer = lj
			writer = zerolog.MultiLevelWriter(writer, NewFilteringWriter(lj))
		}
	}

	logger := zerolog.New(writer).Level(selectLevel(opts.Verbose, opts.Quiet)).With().Timestamp().Logger()
	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("log_file", opts.File).Msg("continuing without log file")
	}
	return logger, closer
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput uses a console writer for a terminal without NO_COLOR and
// raw JSON for everything else.
func selectOutput(w io.Writer) io.Writer {
	f, ok := w.(*os.File)
	if ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return w
}

func fileWriter(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	fi, err := os.Stat(path)
	if err == nil && fi.IsDir() {
		return nil, errors.New("log file path is a directory")
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    _logMaxSizeMB,
		MaxBackups: _logMaxBackups,
		MaxAge:     _logMaxAgeDays,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
