// Package cookie manages HTTP cookies with optional signing and encryption.
//
// The strategy uses it to keep the OAuth2 authorization request state
// (state handle, PKCE verifier) on the client between the redirect to the
// provider and the callback. Hosts can reuse the same Manager for their own
// login cookie.
//
// # Usage
//
//	m := cookie.New(
//		cookie.WithSecret(os.Getenv("COOKIE_SECRET")), // 32+ bytes
//		cookie.WithSecure(true),
//	)
//
//	m.Set(w, "theme", "dark", 24*time.Hour)
//	err := m.SetJSON(w, "oauth_state_strava", state, 5*time.Minute)
//	err = m.GetJSON(r, "oauth_state_strava", &state)
//
// Signed and encrypted operations return ErrNoSecret without a secret and
// ErrBadSecret when it is shorter than 32 bytes. Encryption is AES-GCM with
// a key derived from the secret by SHA-256; signatures are HMAC-SHA256.
package cookie
