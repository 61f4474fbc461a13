package cookie

import (
	"errors"
	"net/http"
	"time"
)

// Errors.
var (
	ErrNotFound  = errors.New("cookie: not found")
	ErrNoSecret  = errors.New("cookie: secret required")
	ErrBadSecret = errors.New("cookie: secret must be 32+ bytes")
	ErrBadSig    = errors.New("cookie: invalid signature")
	ErrDecrypt   = errors.New("cookie: decryption failed")
	ErrDecode    = errors.New("cookie: failed to decode value")
)

// Manager reads and writes cookies that share one set of attributes.
type Manager struct {
	secretErr error
	secret    []byte
	domain    string
	path      string
	sameSite  http.SameSite
	secure    bool
	httpOnly  bool
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a cookie Manager. Defaults: Path "/", HttpOnly, SameSite=Lax.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:      "/",
		httpOnly:  true,
		sameSite:  http.SameSiteLaxMode,
		secretErr: ErrNoSecret,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithSecret sets the key for signed and encrypted cookies.
// Secrets shorter than 32 bytes make those operations fail with ErrBadSecret.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		switch {
		case secret == "":
			m.secret, m.secretErr = nil, ErrNoSecret
		case len(secret) < 32:
			m.secret, m.secretErr = nil, ErrBadSecret
		default:
			m.secret, m.secretErr = []byte(secret), nil
		}
	}
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the cookie path.
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithSecure sets the Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithHTTPOnly sets the HttpOnly flag.
func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) {
		m.httpOnly = httpOnly
	}
}

// WithSameSite sets the SameSite attribute.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// Get returns a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Set writes a plain cookie living for ttl. A zero ttl makes a session cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, m.cookie(name, value, maxAge(ttl)))
}

// Delete expires a cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}

func maxAge(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	// round up so sub-second TTLs do not turn into session cookies
	return int((ttl + time.Second - 1) / time.Second)
}
