// Command strava-example is a small web app that logs users in with Strava.
//
// Required environment: STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET and
// COOKIE_SECRET (32+ bytes). With REDIS_URL set, OAuth state is kept in
// Redis; otherwise it travels in an encrypted cookie.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	strava "github.com/Riderize/passport-strava-oauth2"
	"github.com/Riderize/passport-strava-oauth2/pkg/cache"
	"github.com/Riderize/passport-strava-oauth2/pkg/cookie"
	"github.com/Riderize/passport-strava-oauth2/pkg/health"
	"github.com/Riderize/passport-strava-oauth2/pkg/logger"
	"github.com/Riderize/passport-strava-oauth2/pkg/oauth"
	"github.com/Riderize/passport-strava-oauth2/pkg/redis"
)

type config struct {
	Address         string        `env:"ADDRESS" envDefault:":3000"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	CookieSecret    string        `env:"COOKIE_SECRET,required"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false"`
	RedisURL        string        `env:"REDIS_URL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	Sentry          logger.SentryConfig
	Strava          strava.Config
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithSentry(cfg.Sentry),
		logger.WithExtractors(logger.StringExtractor("request_id", middleware.GetReqID)),
	)

	if err := run(cfg, log); err != nil {
		log.Error("application error", slog.Any("error", err))
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
	sentry.Flush(2 * time.Second)
}

func run(cfg config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cookies := cookie.New(
		cookie.WithSecret(cfg.CookieSecret),
		cookie.WithSecure(cfg.CookieSecure),
	)

	checks := health.Checks{}
	var shutdownHooks []func(context.Context) error

	states := oauth.StateStore(oauth.NewCookieStateStore(cookies, oauth.DefaultStateTTL))
	if cfg.RedisURL != "" {
		client, err := redis.Open(ctx, cfg.RedisURL, redis.WithLogger(log))
		if err != nil {
			return err
		}
		checks["redis"] = redis.Healthcheck(client)
		shutdownHooks = append(shutdownHooks, redis.Shutdown(client))

		states = oauth.NewCacheStateStore(
			cache.NewRedis[oauth.StateData](client, nil, cache.WithPrefix("oauth:state")),
			cookies,
			oauth.DefaultStateTTL,
		)
		log.Info("oauth state stored in redis")
	}

	strategy, err := strava.New(&cfg.Strava, verifyAthlete(log),
		oauth.WithLogger(log),
		oauth.WithStateStore(states),
		oauth.WithPKCE(),
	)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(oauth.MetricsCollectors()...)

	app, err := newServer(strategy, cookies, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           app.routes(checks, registry),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", slog.String("address", cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		errs := []error{srv.Shutdown(shutdownCtx)}
		for _, hook := range shutdownHooks {
			if err := hook(shutdownCtx); err != nil {
				log.Error("shutdown hook failed", slog.Any("error", err))
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// verifyAthlete accepts every athlete; the example has no user database, so
// the profile itself is the user.
func verifyAthlete(log *slog.Logger) oauth.VerifyFunc {
	return func(ctx context.Context, _, _ string, p *oauth.Profile) (any, any, error) {
		if p == nil || p.ID == "" {
			return nil, "Strava did not return an athlete id.", nil
		}
		log.InfoContext(ctx, "athlete authenticated", slog.String("athlete_id", p.ID))
		return p, nil, nil
	}
}
