package oauth

import (
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

// Option configures a Core.
type Option func(*options)

type options struct {
	httpClient  *http.Client
	logger      *slog.Logger
	profile     ProfileFunc
	states      StateStore
	authOpts    []oauth2.AuthCodeOption
	pkce        bool
	skipProfile bool
}

// WithHTTPClient sets the client used for token and profile requests.
// Useful for httptest servers or custom transports.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger. Tokens are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProfileFunc sets how the profile is loaded after the code exchange.
// Provider packages install their own; without one the profile only carries
// the provider name.
func WithProfileFunc(fn ProfileFunc) Option {
	return func(o *options) {
		o.profile = fn
	}
}

// WithStateStore enables the state parameter, persisted in s between the
// redirect and the callback.
func WithStateStore(s StateStore) Option {
	return func(o *options) {
		o.states = s
	}
}

// WithPKCE adds an S256 code challenge to the authorization request.
// Requires WithStateStore.
func WithPKCE() Option {
	return func(o *options) {
		o.pkce = true
	}
}

// WithSkipUserProfile skips the profile request; VerifyFunc then receives nil.
func WithSkipUserProfile() Option {
	return func(o *options) {
		o.skipProfile = true
	}
}

// WithAuthCodeOptions appends parameters to every authorization URL,
// such as a provider's approval prompt.
func WithAuthCodeOptions(opts ...oauth2.AuthCodeOption) Option {
	return func(o *options) {
		o.authOpts = append(o.authOpts, opts...)
	}
}
