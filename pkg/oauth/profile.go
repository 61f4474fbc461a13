package oauth

import "context"

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Profile is the provider-neutral user profile handed to VerifyFunc.
// When the provider response lacks an id, only Provider, Raw and JSON are set.
type Profile struct {
	Provider    string `json:"provider"`
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`

	// Deprecated: use DisplayName. FullName always carries the same value.
	FullName string `json:"fullName,omitempty"`

	Name        *Name   `json:"name,omitempty"`
	Photos      []Photo `json:"photos,omitempty"`
	Gender      string  `json:"gender,omitempty"`
	AccessToken string  `json:"accessToken,omitempty"`

	// Raw is the response body as received.
	Raw string `json:"_raw"`
	// JSON is Raw decoded into generic values; numbers stay json.Number.
	JSON map[string]any `json:"_json"`
}

type Name struct {
	FamilyName string `json:"familyName"`
	GivenName  string `json:"givenName"`
}

// Photo.Value is nil when the provider sent no URL.
type Photo struct {
	Value *string `json:"value,omitempty"`
}

// ProfileFunc loads the profile that belongs to accessToken.
type ProfileFunc func(ctx context.Context, accessToken string) (*Profile, error)

// VerifyFunc decides whether the authenticated profile maps to a user.
//
// Return (user, info, nil) on success. A nil user with a nil error is an
// authentication failure; info then becomes the failure message when it is a
// string or the failure itself when it is a *Failure. A non-nil error aborts
// the attempt.
type VerifyFunc func(ctx context.Context, accessToken, refreshToken string, profile *Profile) (user any, info any, err error)
