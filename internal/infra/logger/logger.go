// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Output string // "stdout", "stderr", or a file path
	Level  string // "debug", "info", "warn", "error"
	JSON   bool   // Force JSON lines on stdout/stderr
}

// Init initializes the global zerolog logger with the given configuration.
// It returns a function that releases the log file, if one was opened.
func Init(cfg Config) (func() error, error) {
	writer, closer, err := openWriter(cfg.Output)
	if err != nil {
		return nil, err
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.CallerMarshalFunc = shortCaller

	logger := New(writer, level, cfg.JSON || !isConsole(cfg.Output))
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger

	return closer, nil
}

// New builds a logger writing to w. Console output is colored; JSON output
// is used for files. The caller is only recorded at debug level.
func New(w io.Writer, level zerolog.Level, asJSON bool) zerolog.Logger {
	var ctx zerolog.Context
	if asJSON {
		ctx = zerolog.New(w).With().Timestamp()
	} else {
		cw := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
		}
		if level == zerolog.DebugLevel {
			cw.PartsOrder = []string{"time", "level", "message", "caller"}
			cw.FormatCaller = func(i interface{}) string {
				return "(" + i.(string) + ")"
			}
		}
		ctx = zerolog.New(cw).With().Timestamp()
	}
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func openWriter(output string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(output) {
	case "stdout", "":
		return os.Stdout, noop, nil
	case "stderr":
		return os.Stderr, noop, nil
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, errors.Wrap(err, "failed to create log directory")
		}
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open log file")
	}
	return f, f.Close, nil
}

func isConsole(output string) bool {
	switch strings.ToLower(output) {
	case "stdout", "stderr", "":
		return true
	}
	return false
}

// shortCaller keeps the last directory and the file name: "playback/queue.go:42".
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// parseLevel parses the log level string.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
