package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/trace"

	charmlog "github.com/charmbracelet/log"
)

// Format names an output encoding for log records.
type Format string

const (
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
	FormatText   Format = "text"
)

type contextKey struct{}

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")

	// AllFormats lists the accepted values of the --log-format flag.
	AllFormats = []string{string(FormatJSON), string(FormatLogfmt), string(FormatText)}
	// AllLevels lists the accepted values of the --log-level flag.
	AllLevels = []string{"error", "warn", "info", "debug"}
)

var levels = map[string]slog.Level{
	"error":   slog.LevelError,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"debug":   slog.LevelDebug,
}

var handlers = map[Format]func(w io.Writer, level slog.Level) slog.Handler{
	FormatJSON: func(w io.Writer, level slog.Level) slog.Handler {
		return slog.NewJSONHandler(w, stdOptions(level))
	},
	FormatLogfmt: func(w io.Writer, level slog.Level) slog.Handler {
		return slog.NewTextHandler(w, stdOptions(level))
	},
	FormatText: newTextHandler,
}

// NewHandler returns a [slog.Handler] writing to w. level and format are
// matched case-insensitively against [AllLevels] ("warning" is accepted
// for "warn") and [AllFormats].
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrUnknownLogLevel, level)
	}

	newHandler, ok := handlers[Format(strings.ToLower(format))]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrUnknownLogFormat, format)
	}

	return newHandler(w, lvl), nil
}

// stdOptions reports source locations at debug level only.
func stdOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	}
}

// newTextHandler renders records for humans with charmbracelet/log.
func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(int32(level)), //nolint:gosec // Bounded by levels.
		Formatter:       charmlog.TextFormatter,
		ReportTimestamp: true,
		ReportCaller:    level <= slog.LevelDebug,
		TimeFormat:      time.StampMilli,
		Prefix:          "charon",
	})
	logger.SetColorProfile(termenv.ColorProfile())

	return logger
}

// NewContext returns a copy of ctx carrying logger. [WithContext] returns it
// in preference to the default logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithContext returns the logger stored by [NewContext]. Without one, it
// returns the default logger, tagged with the short trace ID when ctx
// carries a span.
func WithContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return slog.Default()
	}

	traceID := sc.TraceID().String()

	return slog.With(slog.String("trace_id", traceID[:8]))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
