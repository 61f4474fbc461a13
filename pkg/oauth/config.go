package oauth

import (
	"net/url"

	"golang.org/x/oauth2"
)

// DefaultScopeSeparator joins scopes as RFC 6749 section 3.3 describes.
const DefaultScopeSeparator = " "

// Config holds the client credentials and endpoints of one provider.
type Config struct {
	ClientID     string
	ClientSecret string

	// CallbackURL may be relative ("/auth/strava/callback"); it is then
	// resolved against the incoming request.
	CallbackURL string

	AuthorizationURL string
	TokenURL         string

	// Scopes requested when Authenticate is not given WithScope.
	Scopes []string

	// ScopeSeparator joins Scopes in the authorize URL.
	// Default: DefaultScopeSeparator
	ScopeSeparator string

	// AuthStyle selects how client credentials reach the token endpoint.
	// Zero lets x/oauth2 autodetect.
	AuthStyle oauth2.AuthStyle
}

// problems lists what is wrong with c.
func (c Config) problems() []error {
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if c.ClientSecret == "" {
		errs = append(errs, ErrMissingClientSecret)
	}
	for _, raw := range []string{c.AuthorizationURL, c.TokenURL} {
		if !isAbsoluteURL(raw) {
			errs = append(errs, ErrMissingEndpoint)
			break
		}
	}
	return errs
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
