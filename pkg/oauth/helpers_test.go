package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Riderize/passport-strava-oauth2/pkg/cookie"
	"github.com/Riderize/passport-strava-oauth2/pkg/oauth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// tokenRequest records what the token endpoint received.
type tokenRequest struct {
	form url.Values
}

// newProviderServer serves /token and /me. The code selects the token response.
func newProviderServer(t *testing.T) (*httptest.Server, chan tokenRequest) {
	t.Helper()

	requests := make(chan tokenRequest, 16)
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		select {
		case requests <- tokenRequest{form: r.PostForm}:
		default:
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("code") {
		case "legacy":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Error validating verification code.","type":"OAuthException","code":100,"error_subcode":36007,"fbtrace_id":"A1b2C3"}}`))
		case "rfc":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Authorization code expired","error_uri":"https://example.com/errors/invalid_grant"}`))
		case "garbage":
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "at-" + r.PostForm.Get("code"),
				"refresh_token": "rt",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		}
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Authorization Error"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"name":"Tester"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, requests
}

func testConfig(srv *httptest.Server) oauth.Config {
	return oauth.Config{
		ClientID:         "client-id",
		ClientSecret:     "client-secret",
		CallbackURL:      "https://app.example.com/auth/test/callback",
		AuthorizationURL: srv.URL + "/authorize",
		TokenURL:         srv.URL + "/token",
		AuthStyle:        oauth2.AuthStyleInParams,
	}
}

func acceptAll(_ context.Context, accessToken, refreshToken string, p *oauth.Profile) (any, any, error) {
	return map[string]string{"access": accessToken, "refresh": refreshToken}, "welcome", nil
}

func newCookies(t *testing.T) *cookie.Manager {
	t.Helper()
	return cookie.New(cookie.WithSecret(testSecret))
}

// callbackRequest builds the callback request that follows a redirect
// recorded in rec, carrying its cookies.
func callbackRequest(t *testing.T, rec *httptest.ResponseRecorder, redirectURL string, extra url.Values) *http.Request {
	t.Helper()

	u, err := url.Parse(redirectURL)
	require.NoError(t, err)

	q := url.Values{"state": {u.Query().Get("state")}}
	for k, v := range extra {
		q[k] = v
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/test/callback?"+q.Encode(), nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}
