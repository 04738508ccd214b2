package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveKeys are compared after lowercasing and dropping underscores.
var sensitiveKeys = map[string]bool{
	"password":   true,
	"secret":     true,
	"token":      true,
	"apikey":     true,
	"credential": true,
	"privatekey": true,
	"auth":       true,
}

// ParseLevel maps a configured level name to a slog.Level. Unknown names fall
// back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewJSONHandler returns a JSON handler that redacts credential-like keys.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, handlerOptions(level))
}

// NewTextHandler returns a text handler that redacts credential-like keys.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, handlerOptions(level))
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	return a
}

func isSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(strings.ReplaceAll(key, "_", ""))]
}

// NewLogger builds a logger for cfg writing to w. The returned logger carries
// a "service" attribute so lines from several processes can be told apart.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = NewJSONHandler(w, level)
	} else {
		handler = NewTextHandler(w, level)
	}
	return slog.New(handler).With("service", "memrouter")
}

// OpenOutput resolves cfg.Output to a writer. The returned close function is
// a no-op for the standard streams.
func OpenOutput(cfg LoggingConfig) (io.Writer, func() error, error) {
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		return os.Stderr, func() error { return nil }, nil
	case "stdout":
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, newLogOutputError(cfg.Output, err)
	}
	return f, f.Close, nil
}
