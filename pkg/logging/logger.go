// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// ParseLevel maps a configuration string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// zerologLevels maps each LogLevel to its zerolog level.
var zerologLevels = map[LogLevel]zerolog.Level{
	LevelDebug: zerolog.DebugLevel,
	LevelInfo:  zerolog.InfoLevel,
	LevelWarn:  zerolog.WarnLevel,
	LevelError: zerolog.ErrorLevel,
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written.
	Level LogLevel

	// Pretty switches from JSON lines to console output.
	Pretty bool

	// Output receives the log lines (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup installs the global zerolog logger and level. Loggers obtained from
// NewLogger before Setup keep the previous output; Component loggers follow.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// parseLevel converts a LogLevel, in any spelling ParseLevel accepts, to
// its zerolog level.
func parseLevel(level LogLevel) zerolog.Level {
	return zerologLevels[ParseLevel(string(level))]
}

// NewLogger creates a logger tagged with the given component name, derived
// from the global logger as it is now.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Component names a logging component for packages without a constructor
// to hold a logger. Each call to Logger derives from the current global
// logger, so a Component can be declared at package level.
type Component string

// Logger returns the component's logger.
func (c Component) Logger() *zerolog.Logger {
	l := NewLogger(string(c))
	return &l
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Upstream requests (resource, status, duration)
//   - Fan-out batch completion
//   - Aggregation results and sitemap collection
//
// Info: Normal operation events
//   - Server startup/shutdown
//   - Configuration in effect
//
// Warn: Warning conditions that don't prevent operation
//   - Failed fan-out items (placeholder or dropped)
//   - Detail aggregations ending not_found
//   - View state errors (navigation continues without fallback data)
//
// Error: Error conditions requiring attention
//   - Listing pages failing as a whole
//   - Store unavailability
//   - Configuration errors
//
// Context Fields:
//   - component: Emitting package (pokeapi-client, aggregate, web, ...)
//   - resource: Upstream resource kind (pokemon, pokemon-species, type, ...)
//   - status_code: HTTP status code
//   - duration: Request or aggregation duration
//   - error_class: Error classification (client, server, network)
//   - batch: Fan-out batch name (listing, forms, evolution, related, ...)
//   - pokemon: Requested creature name or id
//   - session: Visitor session id
