package main

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	strava "github.com/Riderize/passport-strava-oauth2"
	"github.com/Riderize/passport-strava-oauth2/pkg/cookie"
	"github.com/Riderize/passport-strava-oauth2/pkg/health"
	"github.com/Riderize/passport-strava-oauth2/pkg/oauth"
)

//go:embed templates/*.html
var templates embed.FS

const (
	sessionCookie = "strava_session"
	sessionTTL    = 7 * 24 * time.Hour
)

// sessionUser is the part of the profile kept in the session cookie.
type sessionUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Photo       string `json:"photo,omitempty"`
	Gender      string `json:"gender,omitempty"`
	City        string `json:"city,omitempty"`
	Premium     bool   `json:"premium,omitempty"`
}

type server struct {
	strategy *strava.Strategy
	cookies  *cookie.Manager
	views    *template.Template
	log      *slog.Logger
}

func newServer(strategy *strava.Strategy, cookies *cookie.Manager, log *slog.Logger) (*server, error) {
	views, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &server{strategy: strategy, cookies: cookies, views: views, log: log}, nil
}

func (s *server) routes(checks health.Checks, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.page("index.html"))
	r.With(s.requireUser).Get("/account", s.page("account.html"))
	r.Get("/login", s.page("login.html"))
	r.Get("/logout", s.logout)

	r.Get("/auth/strava", s.strategy.Handler(oauth.HandlerOptions{
		Options: []oauth.AuthenticateOption{oauth.WithScope("read")},
		OnError: s.authError,
	}).ServeHTTP)
	r.Get("/auth/strava/callback", s.strategy.Handler(oauth.HandlerOptions{
		SuccessRedirect: "/",
		FailureRedirect: "/login",
		OnSuccess:       s.login,
		OnError:         s.authError,
	}).ServeHTTP)

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(checks, health.WithLogger(s.log)))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}

func (s *server) login(w http.ResponseWriter, r *http.Request, res *oauth.Result) error {
	p, ok := res.User.(*oauth.Profile)
	if !ok {
		return errors.New("unexpected user type")
	}

	u := sessionUser{ID: p.ID, DisplayName: p.DisplayName, Gender: p.Gender}
	if len(p.Photos) > 1 && p.Photos[1].Value != nil {
		u.Photo = *p.Photos[1].Value
	}
	if a, err := strava.AthleteFromProfile(p); err == nil {
		u.City = a.City
		u.Premium = a.Premium
	}

	return s.cookies.SetJSON(w, sessionCookie, u, sessionTTL)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	s.cookies.Delete(w, sessionCookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *server) authError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.ErrorContext(r.Context(), "strava authentication failed", slog.Any("error", err))

	status := http.StatusInternalServerError
	var ae *oauth.AuthorizationError
	if errors.As(err, &ae) {
		status = ae.Status
	}
	http.Error(w, http.StatusText(status), status)
}

// currentUser returns nil when there is no valid session.
func (s *server) currentUser(r *http.Request) *sessionUser {
	var u sessionUser
	if err := s.cookies.GetJSON(r, sessionCookie, &u); err != nil {
		if !errors.Is(err, cookie.ErrNotFound) {
			s.log.WarnContext(r.Context(), "invalid session cookie", slog.Any("error", err))
		}
		return nil
	}
	return &u
}

func (s *server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.currentUser(r) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.views.ExecuteTemplate(w, name, map[string]any{"User": s.currentUser(r)}); err != nil {
			s.log.ErrorContext(r.Context(), "render failed", slog.String("template", name), slog.Any("error", err))
		}
	}
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.DebugContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
