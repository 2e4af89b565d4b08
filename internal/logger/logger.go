package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. It writes JSON to stdout until Init is called.
var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the global logger. In development the output is a pretty console,
// otherwise JSON. When logDir is set the output is also appended to logDir/app.log so
// Promtail can ship it.
func Init(env, level, logDir string) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err == nil {
			f, err := os.OpenFile(filepath.Join(logDir, "app.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err == nil {
				out = io.MultiWriter(out, f)
			}
		}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if env == "development" {
		ctx = ctx.Caller()
	}
	Log = ctx.Logger().Level(parseLevel(level))
}

func parseLevel(value string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Info() *zerolog.Event {
	return Log.Info()
}

func Error() *zerolog.Event {
	return Log.Error()
}

func Warn() *zerolog.Event {
	return Log.Warn()
}

func Debug() *zerolog.Event {
	return Log.Debug()
}

func Fatal() *zerolog.Event {
	return Log.Fatal()
}
