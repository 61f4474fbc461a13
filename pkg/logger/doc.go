// Package logger builds log/slog loggers for the strategy and its hosts.
//
// Loggers write JSON to stdout (or any writer), enrich every record with
// attributes pulled from the context, and optionally forward warnings and
// errors to Sentry.
//
// # Usage
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithExtractors(logger.StringExtractor("request_id", middleware.GetReqID)),
//		logger.WithSentry(logger.SentryConfig{DSN: os.Getenv("SENTRY_DSN")}),
//	)
//
//	log.InfoContext(ctx, "athlete signed in", slog.String("provider", "strava"))
//
// When the Sentry DSN is empty, or Sentry fails to initialize, the logger
// stays stdout-only, so the same wiring works in development.
//
// Libraries that accept an optional *slog.Logger default to NewNope.
package logger
