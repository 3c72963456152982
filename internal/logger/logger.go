package logger

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	base   zerolog.Logger
	ready  bool
	output io.Writer = os.Stdout
)

// Init configures the global JSON logger.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
//   - LOG_FILE: path of a rotated log file written next to stdout
//   - LOG_MAX_AGE_DAYS: days rotated files are kept (default: 14)
func Init() {
	level := parseLevel(getenv("LOG_LEVEL", "info"))
	pretty := strings.EqualFold(getenv("LOG_PRETTY", "false"), "true")

	zerolog.TimeFieldFormat = time.RFC3339Nano
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = output
	if pretty {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	if path := os.Getenv("LOG_FILE"); path != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename: path,
			MaxSize:  100,
			MaxAge:   atoiDefault(getenv("LOG_MAX_AGE_DAYS", ""), 14),
			Compress: true,
		})
	}
	base = zerolog.New(w).With().Timestamp().Logger().Level(level)
	ready = true
}

// L returns the global logger. Call Init() once on startup; the first call
// initializes it otherwise.
func L() *zerolog.Logger {
	mu.RLock()
	if ready {
		l := base
		mu.RUnlock()
		return &l
	}
	mu.RUnlock()
	Init()
	return L()
}

// Stage returns a child logger tagged with a pipeline stage and run id.
func Stage(stage, runID string) *zerolog.Logger {
	l := L().With().Str("stage", stage).Str("run_id", runID).Logger()
	return &l
}

// SetOutput redirects the logger and re-initializes it. Tests use it to
// capture log lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
	Init()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
