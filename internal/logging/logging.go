// Package logging builds the zap loggers used by the eventd command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// EnvLevel names the environment variable holding the default level.
const EnvLevel = "EVENTD_LOG_LEVEL"

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ANSI colors for console levels.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[91m"
	yellow = "\033[93m"
	white  = "\033[97m"
	gray   = "\033[90m"
)

// Config configures a logger.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Format is FormatConsole or FormatJSON.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the configuration used without flags, taking the
// level from EVENTD_LOG_LEVEL when set.
func DefaultConfig() Config {
	cfg := Config{
		Level:  "warn",
		Format: FormatConsole,
		Output: os.Stderr,
	}
	if lvl, ok := os.LookupEnv(EnvLevel); ok && lvl != "" {
		cfg.Level = lvl
	}
	return cfg
}

// ParseLevel parses a level name. Case is ignored and "warning" is accepted.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "", FormatConsole:
		enc = consoleEncoder(isTerminal(out))
	case FormatJSON:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	return zap.New(core), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func consoleEncoder(color bool) zapcore.Encoder {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		s := t.Format("15:04:05")
		if color {
			s = dim + s + reset
		}
		enc.AppendString(s)
	}
	ec.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		s := l.CapitalString()[:1]
		if color {
			s = levelColor(l) + bold + s + reset
		}
		enc.AppendString(s)
	}
	return zapcore.NewConsoleEncoder(ec)
}

func levelColor(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return gray
	case zapcore.InfoLevel:
		return white
	case zapcore.WarnLevel:
		return yellow
	default:
		return red
	}
}
