package oauth_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Riderize/passport-strava-oauth2/pkg/cache"
	"github.com/Riderize/passport-strava-oauth2/pkg/oauth"
)

func TestCore_HandleCallback(t *testing.T) {
	t.Parallel()

	srv, _ := newProviderServer(t)
	core, err := oauth.New("test", testConfig(srv), acceptAll, oauth.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("access denied is a failure", func(t *testing.T) {
		t.Parallel()

		token, failure, err := core.HandleCallback(ctx, url.Values{
			"error":             {"access_denied"},
			"error_code":        {"200"},
			"error_description": {"Permissions error"},
			"error_reason":      {"user_denied"},
		})
		require.NoError(t, err)
		require.Nil(t, token)
		require.Equal(t, &oauth.Failure{
			Message: "Permissions error",
			Code:    "200",
			Reason:  "user_denied",
			Status:  http.StatusUnauthorized,
		}, failure)
	})

	t.Run("other error codes", func(t *testing.T) {
		t.Parallel()

		_, failure, err := core.HandleCallback(ctx, url.Values{
			"error":             {"temporarily_unavailable"},
			"error_description": {"try later"},
			"error_uri":         {"https://example.com/status"},
		})
		require.Nil(t, failure)

		var ae *oauth.AuthorizationError
		require.ErrorAs(t, err, &ae)
		require.Equal(t, "temporarily_unavailable", ae.Code)
		require.Equal(t, "try later", ae.Message)
		require.Equal(t, "https://example.com/status", ae.URI)
		require.Equal(t, http.StatusServiceUnavailable, ae.Status)
	})

	t.Run("missing code", func(t *testing.T) {
		t.Parallel()

		_, _, err := core.HandleCallback(ctx, url.Values{})
		require.ErrorIs(t, err, oauth.ErrMissingCode)
	})

	t.Run("code exchanged", func(t *testing.T) {
		t.Parallel()

		token, failure, err := core.HandleCallback(ctx, url.Values{"code": {"good"}})
		require.NoError(t, err)
		require.Nil(t, failure)
		require.Equal(t, "at-good", token.AccessToken)
	})
}

func TestCore_Authenticate_WithoutStateStore(t *testing.T) {
	t.Parallel()

	srv, requests := newProviderServer(t)

	var gotProfile *oauth.Profile
	verify := func(_ context.Context, accessToken, refreshToken string, p *oauth.Profile) (any, any, error) {
		gotProfile = p
		return "user-1", map[string]string{"scope": "read"}, nil
	}
	core, err := oauth.New("test", testConfig(srv), verify,
		oauth.WithHTTPClient(srv.Client()),
		oauth.WithProfileFunc(func(_ context.Context, accessToken string) (*oauth.Profile, error) {
			return &oauth.Profile{Provider: "test", ID: "7", AccessToken: accessToken}, nil
		}),
	)
	require.NoError(t, err)

	t.Run("redirect", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/test", nil)

		res, err := core.Authenticate(rec, req, oauth.WithScope("read", "profile"), oauth.WithState("fixed"))
		require.NoError(t, err)
		require.Equal(t, oauth.OutcomeRedirect, res.Outcome)

		u, err := url.Parse(res.RedirectURL)
		require.NoError(t, err)
		require.Equal(t, srv.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
		require.Equal(t, "fixed", u.Query().Get("state"))
		require.Equal(t, "read profile", u.Query().Get("scope"))
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/test/callback?code=good", nil)

		res, err := core.Authenticate(rec, req)
		require.NoError(t, err)
		require.Equal(t, oauth.OutcomeSuccess, res.Outcome)
		require.Equal(t, "user-1", res.User)
		require.Equal(t, map[string]string{"scope": "read"}, res.Info)
		require.Equal(t, "at-good", res.Token.AccessToken)
		require.Equal(t, "7", res.Profile.ID)
		require.Same(t, gotProfile, res.Profile)

		tr := <-requests
		require.Equal(t, "https://app.example.com/auth/test/callback", tr.form.Get("redirect_uri"))
	})

	t.Run("access denied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/test/callback?error=access_denied&error_description=Nope", nil)

		res, err := core.Authenticate(rec, req)
		require.NoError(t, err)
		require.Equal(t, oauth.OutcomeFailure, res.Outcome)
		require.Equal(t, "Nope", res.Failure.Message)
	})

	t.Run("token error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/test/callback?code=rfc", nil)

		res, err := core.Authenticate(rec, req)
		<-requests
		require.Nil(t, res)
		require.ErrorIs(t, err, oauth.ErrTokenExchange)

		var te *oauth.TokenError
		require.ErrorAs(t, err, &te)
		require.Equal(t, "invalid_grant", te.Code)
	})
}

func TestCore_Authenticate_Verify(t *testing.T) {
	t.Parallel()

	srv, _ := newProviderServer(t)

	tests := []struct {
		name    string
		verify  oauth.VerifyFunc
		failure *oauth.Failure
		err     error
	}{
		{
			name: "nil user with message",
			verify: func(context.Context, string, string, *oauth.Profile) (any, any, error) {
				return nil, "Account suspended", nil
			},
			failure: &oauth.Failure{Message: "Account suspended", Status: http.StatusUnauthorized},
		},
		{
			name: "nil user with failure",
			verify: func(context.Context, string, string, *oauth.Profile) (any, any, error) {
				return nil, &oauth.Failure{Message: "Banned", Status: http.StatusForbidden}, nil
			},
			failure: &oauth.Failure{Message: "Banned", Status: http.StatusForbidden},
		},
		{
			name: "nil user without info",
			verify: func(context.Context, string, string, *oauth.Profile) (any, any, error) {
				return nil, nil, nil
			},
			failure: &oauth.Failure{Status: http.StatusUnauthorized},
		},
		{
			name: "verify error",
			verify: func(context.Context, string, string, *oauth.Profile) (any, any, error) {
				return nil, nil, errors.New("database down")
			},
			err: errors.New("database down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, err := oauth.New("test", testConfig(srv), tt.verify,
				oauth.WithHTTPClient(srv.Client()),
				oauth.WithSkipUserProfile(),
			)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/auth/test/callback?code=good", nil)
			res, err := core.Authenticate(httptest.NewRecorder(), req)

			if tt.err != nil {
				require.Nil(t, res)
				require.EqualError(t, err, tt.err.Error())
				return
			}
			require.NoError(t, err)
			require.Equal(t, oauth.OutcomeFailure, res.Outcome)
			require.Equal(t, tt.failure, res.Failure)
		})
	}
}

func TestCore_Authenticate_State(t *testing.T) {
	t.Parallel()

	srv, _ := newProviderServer(t)

	stores := map[string]func(t *testing.T) oauth.StateStore{
		"cookie": func(t *testing.T) oauth.StateStore {
			return oauth.NewCookieStateStore(newCookies(t), 0)
		},
		"cache": func(t *testing.T) oauth.StateStore {
			states := cache.NewMemory[oauth.StateData]()
			t.Cleanup(func() { _ = states.Close() })
			return oauth.NewCacheStateStore(states, newCookies(t), time.Minute)
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			core, err := oauth.New("test", testConfig(srv), acceptAll,
				oauth.WithHTTPClient(srv.Client()),
				oauth.WithStateStore(newStore(t)),
			)
			require.NoError(t, err)

			begin := func(t *testing.T) (*httptest.ResponseRecorder, string) {
				rec := httptest.NewRecorder()
				res, err := core.Authenticate(rec, httptest.NewRequest(http.MethodGet, "/auth/test", nil))
				require.NoError(t, err)
				require.Equal(t, oauth.OutcomeRedirect, res.Outcome)
				return rec, res.RedirectURL
			}

			t.Run("round trip", func(t *testing.T) {
				rec, redirect := begin(t)
				req := callbackRequest(t, rec, redirect, url.Values{"code": {"good"}})

				res, err := core.Authenticate(httptest.NewRecorder(), req)
				require.NoError(t, err)
				require.Equal(t, oauth.OutcomeSuccess, res.Outcome)
			})

			t.Run("state used twice", func(t *testing.T) {
				rec, redirect := begin(t)
				req := callbackRequest(t, rec, redirect, url.Values{"code": {"good"}})

				res, err := core.Authenticate(httptest.NewRecorder(), req)
				require.NoError(t, err)
				require.Equal(t, oauth.OutcomeSuccess, res.Outcome)

				if name == "cookie" {
					// the browser drops the cookie; replaying it is caught by the cache store only
					return
				}
				res, err = core.Authenticate(httptest.NewRecorder(), callbackRequest(t, rec, redirect, url.Values{"code": {"good"}}))
				require.NoError(t, err)
				require.Equal(t, oauth.OutcomeFailure, res.Outcome)
			})

			t.Run("mismatch", func(t *testing.T) {
				rec, _ := begin(t)
				req := callbackRequest(t, rec, "/?state=forged", url.Values{"code": {"good"}})

				res, err := core.Authenticate(httptest.NewRecorder(), req)
				require.NoError(t, err)
				require.Equal(t, oauth.OutcomeFailure, res.Outcome)
				require.Equal(t, oauth.StateFailureMessage, res.Failure.Message)
				require.Equal(t, http.StatusForbidden, res.Failure.Status)
			})

			t.Run("missing state cookie", func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/auth/test/callback?code=good&state=abc", nil)

				res, err := core.Authenticate(httptest.NewRecorder(), req)
				require.NoError(t, err)
				require.Equal(t, oauth.OutcomeFailure, res.Outcome)
				require.Equal(t, oauth.StateFailureMessage, res.Failure.Message)
			})

			t.Run("provider error wins over state", func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/auth/test/callback?error=access_denied&error_description=Denied", nil)

				res, err := core.Authenticate(httptest.NewRecorder(), req)
				require.NoError(t, err)
				require.Equal(t, "Denied", res.Failure.Message)
			})
		})
	}
}

func TestCore_Authenticate_PKCE(t *testing.T) {
	t.Parallel()

	srv, requests := newProviderServer(t)
	core, err := oauth.New("test", testConfig(srv), acceptAll,
		oauth.WithHTTPClient(srv.Client()),
		oauth.WithStateStore(oauth.NewCookieStateStore(newCookies(t), 0)),
		oauth.WithPKCE(),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	res, err := core.Authenticate(rec, httptest.NewRequest(http.MethodGet, "/auth/test", nil))
	require.NoError(t, err)

	u, err := url.Parse(res.RedirectURL)
	require.NoError(t, err)
	challenge := u.Query().Get("code_challenge")
	require.NotEmpty(t, challenge)
	require.Equal(t, "S256", u.Query().Get("code_challenge_method"))

	res, err = core.Authenticate(httptest.NewRecorder(), callbackRequest(t, rec, res.RedirectURL, url.Values{"code": {"good"}}))
	require.NoError(t, err)
	require.Equal(t, oauth.OutcomeSuccess, res.Outcome)

	verifier := (<-requests).form.Get("code_verifier")
	require.NotEmpty(t, verifier)
	sum := sha256.Sum256([]byte(verifier))
	require.Equal(t, challenge, base64.RawURLEncoding.EncodeToString(sum[:]))
}

func TestCore_Authenticate_RelativeCallback(t *testing.T) {
	t.Parallel()

	srv, _ := newProviderServer(t)
	cfg := testConfig(srv)
	cfg.CallbackURL = "/auth/test/callback"
	core, err := oauth.New("test", cfg, acceptAll)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://login.example.com/auth/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	res, err := core.Authenticate(httptest.NewRecorder(), req)
	require.NoError(t, err)

	u, err := url.Parse(res.RedirectURL)
	require.NoError(t, err)
	require.Equal(t, "https://login.example.com/auth/test/callback", u.Query().Get("redirect_uri"))
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "redirect", oauth.OutcomeRedirect.String())
	require.Equal(t, "success", oauth.OutcomeSuccess.String())
	require.Equal(t, "failure", oauth.OutcomeFailure.String())
	require.Equal(t, "Outcome(0)", oauth.Outcome(0).String())
}
