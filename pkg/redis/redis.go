package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open parses url, applies pool settings and pings the server until it
// answers or the retry budget runs out. Accepts redis:// and rediss://.
//
//	client, err := redis.Open(ctx, cfg.RedisURL,
//	    redis.WithRetry(5, time.Second),
//	    redis.WithLogger(log),
//	)
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	ro.PoolSize = o.poolSize
	ro.MinIdleConns = o.minIdleConns
	ro.ConnMaxIdleTime = o.maxIdleTime
	ro.ReadTimeout = o.ioTimeout
	ro.WriteTimeout = o.ioTimeout
	ro.DialTimeout = o.dialTimeout

	client := redis.NewClient(ro)
	if err := ping(ctx, client, o); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func ping(ctx context.Context, client *redis.Client, o *options) error {
	attempts := max(o.retryAttempts, 1)

	var lastErr error
	for i := range attempts {
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return nil
		}

		o.logger.WarnContext(ctx, "redis ping failed",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", attempts),
			slog.String("error", lastErr.Error()),
		)

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * o.retryInterval):
		}
	}

	return errors.Join(ErrConnectionFailed, lastErr)
}

// Healthcheck pings the server. It fits health.CheckFunc.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrHealthcheckFailed
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown closes the client. It matches the shutdown hook signature used by
// cmd/strava-example.
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
