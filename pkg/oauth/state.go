package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Riderize/passport-strava-oauth2/pkg/cache"
	"github.com/Riderize/passport-strava-oauth2/pkg/cookie"
)

// DefaultStateTTL bounds the time between the redirect and the callback.
const DefaultStateTTL = 5 * time.Minute

// StateData is what survives between the redirect and the callback.
type StateData struct {
	Handle      string    `json:"handle"`
	Provider    string    `json:"provider"`
	Verifier    string    `json:"verifier,omitempty"`
	CallbackURL string    `json:"callback_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StateStore persists StateData for one authorization round trip.
// Verify consumes the entry: a handle verifies at most once.
type StateStore interface {
	// Store saves data and returns the handle sent as the state parameter.
	Store(ctx context.Context, w http.ResponseWriter, r *http.Request, data StateData) (string, error)

	// Verify returns the data stored under handle for provider.
	Verify(ctx context.Context, w http.ResponseWriter, r *http.Request, provider, handle string) (StateData, error)
}

func stateCookieName(provider string) string {
	return "__oauth_state_" + provider
}

func sameHandle(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newHandle(data StateData, ttl time.Duration) StateData {
	data.Handle = uuid.NewString()
	data.ExpiresAt = time.Now().Add(ttl)
	return data
}

// CookieStateStore keeps state in an encrypted cookie, one per provider.
// The manager must carry a secret.
type CookieStateStore struct {
	cookies *cookie.Manager
	ttl     time.Duration
}

// NewCookieStateStore creates a cookie-backed store. A non-positive ttl
// selects DefaultStateTTL.
func NewCookieStateStore(cookies *cookie.Manager, ttl time.Duration) *CookieStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &CookieStateStore{cookies: cookies, ttl: ttl}
}

func (s *CookieStateStore) Store(_ context.Context, w http.ResponseWriter, _ *http.Request, data StateData) (string, error) {
	data = newHandle(data, s.ttl)
	if err := s.cookies.SetJSON(w, stateCookieName(data.Provider), data, s.ttl); err != nil {
		return "", err
	}
	return data.Handle, nil
}

func (s *CookieStateStore) Verify(_ context.Context, w http.ResponseWriter, r *http.Request, provider, handle string) (StateData, error) {
	name := stateCookieName(provider)

	var data StateData
	if err := s.cookies.GetJSON(r, name, &data); err != nil {
		if errors.Is(err, cookie.ErrNotFound) {
			return StateData{}, ErrStateNotFound
		}
		return StateData{}, errors.Join(ErrStateMismatch, err)
	}
	s.cookies.Delete(w, name)

	return checkState(data, provider, handle)
}

// CacheStateStore keeps state server side in a cache and binds it to the
// browser with a signed cookie holding the handle. With cache.Redis the
// entry is consumed by GETDEL, so concurrent callbacks cannot both succeed.
type CacheStateStore struct {
	states  cache.Cache[StateData]
	cookies *cookie.Manager
	ttl     time.Duration
}

// NewCacheStateStore creates a cache-backed store. The manager must carry a
// secret. A non-positive ttl selects DefaultStateTTL.
func NewCacheStateStore(states cache.Cache[StateData], cookies *cookie.Manager, ttl time.Duration) *CacheStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &CacheStateStore{states: states, cookies: cookies, ttl: ttl}
}

func (s *CacheStateStore) Store(ctx context.Context, w http.ResponseWriter, _ *http.Request, data StateData) (string, error) {
	data = newHandle(data, s.ttl)
	if err := s.states.Set(ctx, cacheKey(data.Provider, data.Handle), data, s.ttl); err != nil {
		return "", err
	}
	if err := s.cookies.SetSigned(w, stateCookieName(data.Provider), data.Handle, s.ttl); err != nil {
		return "", err
	}
	return data.Handle, nil
}

func (s *CacheStateStore) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request, provider, handle string) (StateData, error) {
	name := stateCookieName(provider)

	bound, err := s.cookies.GetSigned(r, name)
	if err != nil {
		if errors.Is(err, cookie.ErrNotFound) {
			return StateData{}, ErrStateNotFound
		}
		return StateData{}, errors.Join(ErrStateMismatch, err)
	}
	s.cookies.Delete(w, name)

	if !sameHandle(bound, handle) {
		return StateData{}, ErrStateMismatch
	}

	data, err := s.states.Take(ctx, cacheKey(provider, handle))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return StateData{}, ErrStateNotFound
		}
		return StateData{}, err
	}

	return checkState(data, provider, handle)
}

func cacheKey(provider, handle string) string {
	return provider + ":" + handle
}

func checkState(data StateData, provider, handle string) (StateData, error) {
	if data.Provider != provider || !sameHandle(data.Handle, handle) {
		return StateData{}, ErrStateMismatch
	}
	if time.Now().After(data.ExpiresAt) {
		return StateData{}, ErrStateExpired
	}
	return data, nil
}

var (
	_ StateStore = (*CookieStateStore)(nil)
	_ StateStore = (*CacheStateStore)(nil)
)
