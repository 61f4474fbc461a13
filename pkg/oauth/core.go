package oauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Riderize/passport-strava-oauth2/pkg/logger"
)

// Core runs the OAuth 2.0 authorization code flow for one provider.
// Provider packages embed it and install a ProfileFunc.
// A Core is safe for concurrent use.
type Core struct {
	config      *oauth2.Config
	verify      VerifyFunc
	profile     ProfileFunc
	states      StateStore
	httpClient  *http.Client
	logger      *slog.Logger
	name        string
	scopeSep    string
	scopes      []string
	authOpts    []oauth2.AuthCodeOption
	pkce        bool
	skipProfile bool
}

// New validates cfg and creates a Core named name.
// All configuration problems are reported at once, joined under ErrInvalidConfig.
func New(name string, cfg Config, verify VerifyFunc, opts ...Option) (*Core, error) {
	o := options{logger: logger.NewNope()}
	for _, opt := range opts {
		opt(&o)
	}

	errs := cfg.problems()
	if verify == nil {
		errs = append(errs, ErrMissingVerify)
	}
	if o.pkce && o.states == nil {
		errs = append(errs, ErrPKCEWithoutState)
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	sep := cfg.ScopeSeparator
	if sep == "" {
		sep = DefaultScopeSeparator
	}

	return &Core{
		// Scopes stay off oauth2.Config: x/oauth2 always joins them with a
		// space and some providers want another separator.
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizationURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: cfg.AuthStyle,
			},
		},
		verify:      verify,
		profile:     o.profile,
		states:      o.states,
		httpClient:  o.httpClient,
		logger:      o.logger.With(slog.String("provider", name)),
		name:        name,
		scopeSep:    sep,
		scopes:      cfg.Scopes,
		authOpts:    o.authOpts,
		pkce:        o.pkce,
		skipProfile: o.skipProfile,
	}, nil
}

// Name returns the provider identifier.
func (c *Core) Name() string {
	return c.name
}

// AuthCodeURL builds the authorization URL. Later options override earlier
// ones, so a scope or redirect_uri given here replaces the configured one.
func (c *Core) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	all := make([]oauth2.AuthCodeOption, 0, len(c.authOpts)+len(opts)+1)
	if len(c.scopes) > 0 {
		all = append(all, c.scopeParam(c.scopes))
	}
	all = append(all, c.authOpts...)
	all = append(all, opts...)
	return c.config.AuthCodeURL(state, all...)
}

// Exchange trades an authorization code for a token. Failures are joined
// with ErrTokenExchange and carry a *TokenError or *InternalError.
func (c *Core) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := c.config.Exchange(c.contextWithHTTPClient(ctx), code, opts...)
	if err != nil {
		classified := ClassifyTokenError(err)
		tokenErrors.WithLabelValues(c.name, tokenErrorKind(classified)).Inc()
		return nil, errors.Join(ErrTokenExchange, classified)
	}
	return token, nil
}

// Get performs an authenticated GET and returns the body. A transport
// failure or a non-2xx status is returned as *InternalError.
func (c *Core) Get(ctx context.Context, url, accessToken string) ([]byte, error) {
	ctx = c.contextWithHTTPClient(ctx)
	client := c.config.Client(ctx, &oauth2.Token{AccessToken: accessToken})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &InternalError{Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &InternalError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &InternalError{Message: "failed to read response", Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &InternalError{Message: http.StatusText(resp.StatusCode), Status: resp.StatusCode, Body: body}
	}

	return body, nil
}

// UserProfile loads the profile for accessToken through the installed
// ProfileFunc. Without one it returns a profile carrying only the provider.
func (c *Core) UserProfile(ctx context.Context, accessToken string) (*Profile, error) {
	if c.profile == nil {
		return &Profile{Provider: c.name}, nil
	}

	start := time.Now()
	defer func() {
		profileFetchDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	return c.profile(ctx, accessToken)
}

// NewInternalError wraps err under message, keeping the status and body of
// an underlying *InternalError.
func NewInternalError(message string, err error) *InternalError {
	ie := &InternalError{Message: message, Err: err}
	var inner *InternalError
	if errors.As(err, &inner) {
		ie.Status = inner.Status
		ie.Body = inner.Body
	}
	return ie
}

func (c *Core) scopeParam(scopes []string) oauth2.AuthCodeOption {
	return oauth2.SetAuthURLParam("scope", strings.Join(scopes, c.scopeSep))
}

func (c *Core) contextWithHTTPClient(ctx context.Context) context.Context {
	if c.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return ctx
}
