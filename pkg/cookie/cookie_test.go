package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Riderize/passport-strava-oauth2/pkg/cookie"
)

const testSecret = "this-is-a-32-byte-or-longer-key!"

// roundTrip copies the cookies written to w onto a fresh request.
func roundTrip(t *testing.T, w *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestPlainCookies(t *testing.T) {
	t.Parallel()

	m := cookie.New()

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := m.Get(r, "missing")
		require.ErrorIs(t, err, cookie.ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		m.Set(w, "name", "value", time.Hour)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, 3600, cookies[0].MaxAge)
		require.True(t, cookies[0].HttpOnly)
		require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		require.Equal(t, "/", cookies[0].Path)

		val, err := m.Get(roundTrip(t, w), "name")
		require.NoError(t, err)
		require.Equal(t, "value", val)
	})

	t.Run("sub-second ttl rounds up", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		m.Set(w, "name", "value", 10*time.Millisecond)
		require.Equal(t, 1, w.Result().Cookies()[0].MaxAge)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		m.Delete(w, "name")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Negative(t, cookies[0].MaxAge)
	})
}

func TestOptions(t *testing.T) {
	t.Parallel()

	m := cookie.New(
		cookie.WithDomain("example.com"),
		cookie.WithPath("/auth"),
		cookie.WithSecure(true),
		cookie.WithHTTPOnly(false),
		cookie.WithSameSite(http.SameSiteStrictMode),
	)

	w := httptest.NewRecorder()
	m.Set(w, "name", "value", 0)

	c := w.Result().Cookies()[0]
	require.Equal(t, "example.com", c.Domain)
	require.Equal(t, "/auth", c.Path)
	require.True(t, c.Secure)
	require.False(t, c.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	require.Zero(t, c.MaxAge)
}

func TestSecrets(t *testing.T) {
	t.Parallel()

	t.Run("no secret", func(t *testing.T) {
		t.Parallel()
		m := cookie.New()
		require.ErrorIs(t, m.SetSigned(httptest.NewRecorder(), "n", "v", time.Minute), cookie.ErrNoSecret)
		require.ErrorIs(t, m.SetEncrypted(httptest.NewRecorder(), "n", "v", time.Minute), cookie.ErrNoSecret)
		require.ErrorIs(t, m.SetJSON(httptest.NewRecorder(), "n", 1, time.Minute), cookie.ErrNoSecret)
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		m := cookie.New(cookie.WithSecret("too-short"))
		err := m.SetEncrypted(httptest.NewRecorder(), "n", "v", time.Minute)
		require.ErrorIs(t, err, cookie.ErrBadSecret)
	})
}

func TestSignedCookies(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sig", "hello", time.Minute))

		val, err := m.GetSigned(roundTrip(t, w), "sig")
		require.NoError(t, err)
		require.Equal(t, "hello", val)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sig", Value: "aGVsbG8.AAAA"})

		_, err := m.GetSigned(r, "sig")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("other secret", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sig", "hello", time.Minute))

		other := cookie.New(cookie.WithSecret("another-32-byte-or-longer-secret!"))
		_, err := other.GetSigned(roundTrip(t, w), "sig")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})
}

func TestEncryptedCookies(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetEncrypted(w, "enc", "secret value", time.Minute))
		require.NotContains(t, w.Result().Cookies()[0].Value, "secret")

		val, err := m.GetEncrypted(roundTrip(t, w), "enc")
		require.NoError(t, err)
		require.Equal(t, "secret value", val)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "enc", Value: "bm90LWVuY3J5cHRlZA"})

		_, err := m.GetEncrypted(r, "enc")
		require.ErrorIs(t, err, cookie.ErrDecrypt)
	})

	t.Run("json round trip", func(t *testing.T) {
		t.Parallel()
		type athlete struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}

		w := httptest.NewRecorder()
		require.NoError(t, m.SetJSON(w, "user", athlete{ID: "60121955", Name: "Edilson da Silva"}, time.Hour))

		var got athlete
		require.NoError(t, m.GetJSON(roundTrip(t, w), "user", &got))
		require.Equal(t, athlete{ID: "60121955", Name: "Edilson da Silva"}, got)
	})

	t.Run("json missing", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		err := m.GetJSON(httptest.NewRequest(http.MethodGet, "/", nil), "user", &got)
		require.ErrorIs(t, err, cookie.ErrNotFound)
	})
}
