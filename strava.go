package strava

import (
	"errors"
	"net/url"
	"slices"

	"golang.org/x/oauth2"

	"github.com/Riderize/passport-strava-oauth2/pkg/oauth"
)

const (
	// Name identifies the strategy and labels its metrics and logs.
	Name = "strava"

	AuthorizationURL = "https://www.strava.com/oauth/authorize"
	TokenURL         = "https://www.strava.com/oauth/token"
	ProfileURL       = "https://www.strava.com/api/v3/athlete"

	// ScopeSeparator joins scopes; Strava expects a comma instead of a space.
	ScopeSeparator = ","
)

// Endpoint is Strava's OAuth 2.0 endpoint. Strava reads client credentials
// from the request body only.
var Endpoint = oauth2.Endpoint{
	AuthURL:   AuthorizationURL,
	TokenURL:  TokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// DefaultScopes returns the scopes requested when Config.Scopes is empty.
func DefaultScopes() []string {
	return []string{"read"}
}

// Config holds Strava OAuth configuration. Empty URLs fall back to Strava's
// public endpoints.
type Config struct {
	ClientID         string   `env:"STRAVA_CLIENT_ID,required"`
	ClientSecret     string   `env:"STRAVA_CLIENT_SECRET,required"`
	CallbackURL      string   `env:"STRAVA_CALLBACK_URL" envDefault:"/auth/strava/callback"`
	AuthorizationURL string   `env:"STRAVA_AUTHORIZATION_URL"`
	TokenURL         string   `env:"STRAVA_TOKEN_URL"`
	ProfileURL       string   `env:"STRAVA_PROFILE_URL"`
	Scopes           []string `env:"STRAVA_SCOPES" envSeparator:","`
	ScopeSeparator   string   `env:"STRAVA_SCOPE_SEPARATOR"`
}

func (c Config) withDefaults() Config {
	if c.AuthorizationURL == "" {
		c.AuthorizationURL = AuthorizationURL
	}
	if c.TokenURL == "" {
		c.TokenURL = TokenURL
	}
	if c.ProfileURL == "" {
		c.ProfileURL = ProfileURL
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes()
	}
	if c.ScopeSeparator == "" {
		c.ScopeSeparator = ScopeSeparator
	}
	return c
}

// Strategy authenticates users with Strava.
type Strategy struct {
	*oauth.Core
	profileURL string
}

// New creates a Strava strategy. verify receives the access token, the
// refresh token and the athlete profile after a successful code exchange.
//
//	s, err := strava.New(&strava.Config{
//		ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
//		ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
//		CallbackURL:  "https://www.example.net/auth/strava/callback",
//	}, verify)
//
// A WithProfileFunc option replaces the built-in athlete lookup.
func New(cfg *Config, verify oauth.VerifyFunc, opts ...oauth.Option) (*Strategy, error) {
	if cfg == nil {
		return nil, errors.Join(oauth.ErrInvalidConfig, oauth.ErrNilConfig)
	}
	c := cfg.withDefaults()

	if u, err := url.Parse(c.ProfileURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Join(oauth.ErrInvalidConfig, oauth.ErrMissingEndpoint)
	}

	s := &Strategy{profileURL: c.ProfileURL}

	// caller options come last so they can override the profile function
	all := slices.Concat([]oauth.Option{oauth.WithProfileFunc(s.FetchProfile)}, opts)

	core, err := oauth.New(Name, oauth.Config{
		ClientID:         c.ClientID,
		ClientSecret:     c.ClientSecret,
		CallbackURL:      c.CallbackURL,
		AuthorizationURL: c.AuthorizationURL,
		TokenURL:         c.TokenURL,
		Scopes:           c.Scopes,
		ScopeSeparator:   c.ScopeSeparator,
		AuthStyle:        Endpoint.AuthStyle,
	}, verify, all...)
	if err != nil {
		return nil, err
	}
	s.Core = core

	return s, nil
}

// WithApprovalPrompt controls Strava's approval_prompt parameter. With force
// set the user is asked to authorize again even if they already did.
func WithApprovalPrompt(force bool) oauth.Option {
	prompt := "auto"
	if force {
		prompt = "force"
	}
	return oauth.WithAuthCodeOptions(oauth2.SetAuthURLParam("approval_prompt", prompt))
}
