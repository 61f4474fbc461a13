package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Outcome tells which branch an authentication attempt took.
type Outcome int

const (
	OutcomeRedirect Outcome = iota + 1
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is a completed authentication step.
//
//   - OutcomeRedirect: send the browser to RedirectURL.
//   - OutcomeSuccess: User, Info, Token and Profile are set.
//   - OutcomeFailure: Failure is set.
type Result struct {
	Outcome     Outcome
	RedirectURL string
	User        any
	Info        any
	Token       *oauth2.Token
	Profile     *Profile
	Failure     *Failure
}

// StateFailureMessage is reported when the state parameter cannot be verified.
const StateFailureMessage = "Unable to verify authorization request state."

// AuthenticateOption adjusts a single Authenticate call.
type AuthenticateOption func(*authenticateOptions)

type authenticateOptions struct {
	state       string
	callbackURL string
	scopes      []string
}

// WithScope requests scopes instead of the configured ones.
func WithScope(scopes ...string) AuthenticateOption {
	return func(o *authenticateOptions) {
		o.scopes = scopes
	}
}

// WithState sends a fixed state value. Ignored when a StateStore is configured.
func WithState(state string) AuthenticateOption {
	return func(o *authenticateOptions) {
		o.state = state
	}
}

// WithCallbackURL overrides the configured callback URL.
func WithCallbackURL(u string) AuthenticateOption {
	return func(o *authenticateOptions) {
		o.callbackURL = u
	}
}

// HandleCallback processes the query of an authorization callback without a
// StateStore. It returns exactly one of a token, a user-facing failure (the
// user denied access) or an error: *AuthorizationError for other error
// codes, ErrMissingCode, or an exchange error from Exchange.
func (c *Core) HandleCallback(ctx context.Context, query url.Values, opts ...oauth2.AuthCodeOption) (*oauth2.Token, *Failure, error) {
	if code := query.Get("error"); code != "" {
		if code == "access_denied" {
			return nil, &Failure{
				Message: query.Get("error_description"),
				Code:    query.Get("error_code"),
				Reason:  query.Get("error_reason"),
				Status:  http.StatusUnauthorized,
			}, nil
		}
		return nil, nil, NewAuthorizationError(query.Get("error_description"), code, query.Get("error_uri"))
	}

	code := query.Get("code")
	if code == "" {
		return nil, nil, ErrMissingCode
	}

	token, err := c.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, nil, err
	}
	return token, nil, nil
}

// Authenticate runs one step of the flow for r.
//
// Without code or error in the query it starts the flow and returns an
// OutcomeRedirect result. Otherwise it completes the callback: verifies state
// when a StateStore is configured, exchanges the code, loads the profile and
// calls VerifyFunc. Exactly one of the result and the error is non-nil.
func (c *Core) Authenticate(w http.ResponseWriter, r *http.Request, opts ...AuthenticateOption) (res *Result, err error) {
	var o authenticateOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx := r.Context()
	defer func() { c.observe(ctx, res, err) }()

	callbackURL := o.callbackURL
	if callbackURL == "" {
		callbackURL = c.config.RedirectURL
	}
	callbackURL = resolveURL(callbackURL, r)

	query := r.URL.Query()
	if query.Get("error") == "" && query.Get("code") == "" {
		return c.begin(ctx, w, r, o, callbackURL)
	}
	return c.complete(ctx, w, r, query, callbackURL)
}

func (c *Core) begin(ctx context.Context, w http.ResponseWriter, r *http.Request, o authenticateOptions, callbackURL string) (*Result, error) {
	var params []oauth2.AuthCodeOption
	if callbackURL != "" {
		params = append(params, oauth2.SetAuthURLParam("redirect_uri", callbackURL))
	}
	if len(o.scopes) > 0 {
		params = append(params, c.scopeParam(o.scopes))
	}

	state := o.state
	if c.states != nil {
		data := StateData{Provider: c.name, CallbackURL: callbackURL}
		if c.pkce {
			data.Verifier = oauth2.GenerateVerifier()
			params = append(params, oauth2.S256ChallengeOption(data.Verifier))
		}

		handle, err := c.states.Store(ctx, w, r, data)
		if err != nil {
			return nil, fmt.Errorf("oauth: store state: %w", err)
		}
		state = handle
	}

	return &Result{Outcome: OutcomeRedirect, RedirectURL: c.AuthCodeURL(state, params...)}, nil
}

func (c *Core) complete(ctx context.Context, w http.ResponseWriter, r *http.Request, query url.Values, callbackURL string) (*Result, error) {
	var exchangeOpts []oauth2.AuthCodeOption

	// errors reported by the server take precedence over state checks
	if query.Get("error") == "" && c.states != nil {
		data, err := c.states.Verify(ctx, w, r, c.name, query.Get("state"))
		switch {
		case errors.Is(err, ErrStateNotFound), errors.Is(err, ErrStateMismatch), errors.Is(err, ErrStateExpired):
			c.logger.InfoContext(ctx, "oauth state rejected", slog.String("error", err.Error()))
			return failed(&Failure{Message: StateFailureMessage, Status: http.StatusForbidden}), nil
		case err != nil:
			return nil, fmt.Errorf("oauth: verify state: %w", err)
		}

		if data.CallbackURL != "" {
			callbackURL = data.CallbackURL
		}
		if data.Verifier != "" {
			exchangeOpts = append(exchangeOpts, oauth2.VerifierOption(data.Verifier))
		}
	}
	if callbackURL != "" {
		exchangeOpts = append(exchangeOpts, oauth2.SetAuthURLParam("redirect_uri", callbackURL))
	}

	token, failure, err := c.HandleCallback(ctx, query, exchangeOpts...)
	if err != nil {
		return nil, err
	}
	if failure != nil {
		return failed(failure), nil
	}

	var profile *Profile
	if !c.skipProfile {
		profile, err = c.UserProfile(ctx, token.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	user, info, err := c.verify(ctx, token.AccessToken, token.RefreshToken, profile)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return failed(failureFromInfo(info)), nil
	}

	return &Result{
		Outcome: OutcomeSuccess,
		User:    user,
		Info:    info,
		Token:   token,
		Profile: profile,
	}, nil
}

func (c *Core) observe(ctx context.Context, res *Result, err error) {
	outcome := "error"
	if res != nil {
		outcome = res.Outcome.String()
	}
	authentications.WithLabelValues(c.name, outcome).Inc()

	switch {
	case err != nil:
		c.logger.ErrorContext(ctx, "oauth authentication error", slog.String("error", err.Error()))
	case res.Outcome == OutcomeFailure:
		c.logger.InfoContext(ctx, "oauth authentication failed",
			slog.String("message", res.Failure.Message),
			slog.Int("status", res.Failure.Status),
		)
	default:
		c.logger.DebugContext(ctx, "oauth authentication step", slog.String("outcome", outcome))
	}
}

func failed(f *Failure) *Result {
	return &Result{Outcome: OutcomeFailure, Failure: f}
}

func failureFromInfo(info any) *Failure {
	switch v := info.(type) {
	case *Failure:
		if v != nil {
			f := *v
			if f.Status == 0 {
				f.Status = http.StatusUnauthorized
			}
			return &f
		}
	case string:
		return &Failure{Message: v, Status: http.StatusUnauthorized}
	}
	return &Failure{Status: http.StatusUnauthorized}
}

// resolveURL makes a relative callback URL absolute using the request's
// scheme and host.
func resolveURL(raw string, r *http.Request) string {
	if raw == "" || isAbsoluteURL(raw) {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: r.Host}).ResolveReference(ref).String()
}
