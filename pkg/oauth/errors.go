package oauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

var (
	// ErrInvalidConfig wraps every configuration problem found by New.
	ErrInvalidConfig = errors.New("oauth: invalid configuration")

	// ErrNilConfig is returned when a provider is given no configuration at all.
	ErrNilConfig = errors.New("oauth: configuration is required")

	// ErrMissingClientID is returned when the OAuth client ID is not provided.
	ErrMissingClientID = errors.New("oauth: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("oauth: missing client secret")

	// ErrMissingEndpoint is returned when the authorization or token URL is not absolute.
	ErrMissingEndpoint = errors.New("oauth: authorization and token URLs must be absolute")

	// ErrMissingVerify is returned when New receives a nil VerifyFunc.
	ErrMissingVerify = errors.New("oauth: verify function is required")

	// ErrTokenExchange is returned when the authorization code cannot be exchanged.
	ErrTokenExchange = errors.New("oauth: failed to obtain access token")

	// ErrProfileFetch is returned when the user profile request fails.
	ErrProfileFetch = errors.New("oauth: failed to fetch user profile")

	// ErrProfileParse is returned when the profile body is not valid JSON.
	ErrProfileParse = errors.New("oauth: failed to parse user profile")

	// ErrMissingCode is returned by HandleCallback when the query has neither code nor error.
	ErrMissingCode = errors.New("oauth: missing authorization code")

	ErrStateNotFound = errors.New("oauth: state not found")
	ErrStateMismatch = errors.New("oauth: state mismatch")
	ErrStateExpired  = errors.New("oauth: state expired")

	// ErrPKCEWithoutState is returned when PKCE is enabled but no StateStore can carry the verifier.
	ErrPKCEWithoutState = errors.New("oauth: PKCE requires a state store")
)

// Failure is a user-facing authentication failure: the user denied access,
// the state did not match or the verify function rejected the user.
// It is a result, not an error.
type Failure struct {
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// AuthorizationError is reported by the authorization server through the
// callback's error parameter, for any error other than access_denied.
type AuthorizationError struct {
	Message string
	Code    string
	URI     string
	Status  int
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("oauth: authorization error %s: %s", e.Code, e.Message)
	}
	return "oauth: authorization error " + e.Code
}

// NewAuthorizationError maps a callback error code to an HTTP status.
func NewAuthorizationError(message, code, uri string) *AuthorizationError {
	status := http.StatusInternalServerError
	switch code {
	case "access_denied":
		status = http.StatusForbidden
	case "server_error":
		status = http.StatusBadGateway
	case "temporarily_unavailable":
		status = http.StatusServiceUnavailable
	}
	return &AuthorizationError{Message: message, Code: code, URI: uri, Status: status}
}

// TokenError is a structured error returned by the token endpoint.
// Both the RFC 6749 shape and the legacy nested-object shape are decoded
// into it; the legacy fields stay empty for RFC responses.
type TokenError struct {
	Message string
	Type    string
	Code    string
	Subcode int
	TraceID string
	URI     string
	Status  int
}

func (e *TokenError) Error() string {
	if e.Message == "" {
		return "oauth: token error " + e.Code
	}
	return fmt.Sprintf("oauth: token error %s: %s", e.Code, e.Message)
}

// InternalError is a transport-level failure with the response that caused it.
type InternalError struct {
	Message string
	Status  int
	Body    []byte
	Err     error
}

func (e *InternalError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("oauth: %s (status %d)", e.Message, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("oauth: %s: %v", e.Message, e.Err)
	default:
		return "oauth: " + e.Message
	}
}

func (e *InternalError) Unwrap() error { return e.Err }

// ClassifyTokenError turns an x/oauth2 token error into a *TokenError when
// the body carries a recognised error payload and into an *InternalError
// otherwise.
func ClassifyTokenError(err error) error {
	if err == nil {
		return nil
	}

	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &InternalError{Message: "Failed to obtain access token", Err: err}
	}

	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}

	if te := parseTokenError(re.Body); te != nil {
		te.Status = status
		return te
	}
	return &InternalError{Message: "Failed to obtain access token", Status: status, Body: re.Body, Err: err}
}

func parseTokenError(body []byte) *TokenError {
	var payload struct {
		Error       json.RawMessage `json:"error"`
		Description string          `json:"error_description"`
		URI         string          `json:"error_uri"`
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &payload) != nil {
		return nil
	}

	raw := bytes.TrimSpace(payload.Error)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '"':
		var code string
		if json.Unmarshal(raw, &code) != nil || code == "" {
			return nil
		}
		return &TokenError{Message: payload.Description, Code: code, URI: payload.URI}

	case '{':
		var legacy struct {
			Message string      `json:"message"`
			Type    string      `json:"type"`
			Code    json.Number `json:"code"`
			Subcode int         `json:"error_subcode"`
			TraceID string      `json:"fbtrace_id"`
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if dec.Decode(&legacy) != nil {
			return nil
		}
		return &TokenError{
			Message: legacy.Message,
			Type:    legacy.Type,
			Code:    legacy.Code.String(),
			Subcode: legacy.Subcode,
			TraceID: legacy.TraceID,
		}
	}

	return nil
}
