package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is the minimum severity a logger emits. It is set from --log-level
// or NETTY_LOG_LEVEL.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format selects the slog handler, from --log-format or NETTY_LOG_FORMAT.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config describes the process logger the runner hands to each server.
// The zero value logs Info and above as text to stderr.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer // nil means os.Stderr
}

// New builds the process logger. Servers derive per-domain loggers from it
// with ForDomain.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return slog.New(newHandler(cfg.Format, out, &slog.HandlerOptions{Level: cfg.Level}))
}

func newHandler(format Format, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Nop returns the logger used by servers and hosts built without WithLogger.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// DomainKey is the attribute that tags records logged inside an isolation
// domain.
const DomainKey = "domain_id"

// ForDomain returns l, or a no-op logger, with every record tagged with the
// domain identifier.
func ForDomain(l *slog.Logger, domainID string) *slog.Logger {
	return OrNop(l).With(DomainKey, domainID)
}

// ParseLevel parses a log level string ("debug", "info", "warn", "warning",
// "error"), ignoring case. Unrecognized values yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
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

// ParseFormat parses a log format string, ignoring case.
// Unrecognized values yield FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
