package logger

import (
	"io"
	"log/slog"
	"os"
)

// Option configures a logger built by New.
type Option func(*options)

type options struct {
	out        io.Writer
	sentry     *SentryConfig
	extractors []ContextExtractor
	level      slog.Level
}

// WithLevel sets the minimum level written to the output.
// Default: slog.LevelInfo.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithOutput sets the writer for JSON log lines.
// Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithExtractors adds context extractors applied on every log call.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithSentry forwards warnings and errors to Sentry.
// An empty DSN keeps the logger stdout-only.
func WithSentry(cfg SentryConfig) Option {
	return func(o *options) {
		o.sentry = &cfg
	}
}

// New creates a JSON logger. Records pass through the context extractors
// before reaching the output and, when configured, Sentry.
func New(opts ...Option) *slog.Logger {
	o := &options{
		out:   os.Stdout,
		level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(o)
	}

	var handler slog.Handler = slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.level})

	if o.sentry != nil && o.sentry.DSN != "" {
		sentryHandler, err := newSentryHandler(*o.sentry)
		if err != nil {
			slog.New(handler).Error("failed to initialize sentry", slog.String("error", err.Error()))
		} else {
			handler = newFanoutHandler(handler, sentryHandler)
		}
	}

	return slog.New(NewLogHandlerDecorator(handler, o.extractors...))
}

// NewNope creates a logger that discards everything.
// Library types fall back to it when no logger is supplied.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
