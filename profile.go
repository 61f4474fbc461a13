package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Riderize/passport-strava-oauth2/pkg/oauth"
)

// ErrNotAnObject is joined with oauth.ErrProfileParse when the athlete body
// is valid JSON but not an object.
var ErrNotAnObject = errors.New("strava: athlete response is not a JSON object")

// FetchProfile loads the authenticated athlete. It is installed as the
// strategy's profile function.
func (s *Strategy) FetchProfile(ctx context.Context, accessToken string) (*oauth.Profile, error) {
	body, err := s.Get(ctx, s.profileURL, accessToken)
	if err != nil {
		return nil, errors.Join(oauth.ErrProfileFetch, oauth.NewInternalError("Unable to get user info", err))
	}
	return ParseProfile(body, accessToken)
}

// ParseProfile normalizes an athlete response.
//
// An athlete without a usable id still parses: the profile then carries only
// the provider and the raw body.
func ParseProfile(body []byte, accessToken string) (*oauth.Profile, error) {
	data, err := decodeObject(body)
	if err != nil {
		return nil, errors.Join(oauth.ErrProfileParse, err)
	}

	p := &oauth.Profile{
		Provider: Name,
		Raw:      string(body),
		JSON:     data,
	}

	id, ok := athleteID(data["id"])
	if !ok {
		return p, nil
	}

	first, _ := data["firstname"].(string)
	last, _ := data["lastname"].(string)

	p.ID = id
	p.DisplayName = displayName(first, last)
	p.FullName = p.DisplayName
	p.Name = &oauth.Name{FamilyName: last, GivenName: first}
	p.Photos = []oauth.Photo{
		{Value: stringPtr(data["profile"])},
		{Value: stringPtr(data["profile_medium"])},
	}
	p.Gender = gender(data)
	p.AccessToken = accessToken

	return p, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("strava: unexpected data after athlete object")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	return obj, nil
}

// athleteID stringifies a truthy id. Zero, empty, false and null are not ids.
func athleteID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		if f, err := id.Float64(); err == nil && f == 0 {
			return "", false
		}
		return id.String(), true
	case bool:
		return "true", id
	case nil:
		return "", false
	default:
		return fmt.Sprint(id), true
	}
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

func gender(data map[string]any) string {
	v, ok := data["sex"].(string)
	if !ok {
		v, _ = data["gender"].(string)
	}
	switch v {
	case "M":
		return oauth.GenderMale
	case "F":
		return oauth.GenderFemale
	default:
		return ""
	}
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
