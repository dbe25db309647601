package spqrlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Zero = NewZeroLogger("", "info", false)

// logFile is the currently opened log file, if any.
var logFile *os.File

// NewZeroLogger builds a zerolog logger writing to filepath (stdout when empty).
// Output is JSON unless pretty is set, in which case a console writer is used.
func NewZeroLogger(filepath string, level string, pretty bool) *zerolog.Logger {
	file, writer, err := newWriter(filepath)
	if err != nil {
		writer = os.Stdout
	}
	if file != nil {
		logFile = file
	}

	var output io.Writer = writer
	if pretty {
		output = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).With().Timestamp().Logger().Level(parseLevel(level))
	return &logger
}

// ReloadLogger reopens the global logger, closing the previously opened file.
func ReloadLogger(filepath string, level string, pretty bool) {
	oldFile := logFile
	logFile = nil
	Zero = NewZeroLogger(filepath, level, pretty)
	if oldFile != nil && oldFile != logFile {
		_ = oldFile.Close()
	}
}

func UpdateZeroLogLevel(logLevel string) error {
	level := parseLevel(logLevel)
	zeroLogger := Zero.With().Logger().Level(level)
	Zero = &zeroLogger
	return nil
}

func IsDebugLevel() bool {
	return Zero.GetLevel() <= zerolog.DebugLevel
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
