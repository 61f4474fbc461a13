package strava

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Riderize/passport-strava-oauth2/pkg/oauth"
)

// ErrNoAthlete is returned by AthleteFromProfile when the profile carries no
// raw athlete body.
var ErrNoAthlete = errors.New("strava: profile has no athlete data")

// Athlete is the summary representation returned by GET /athlete.
type Athlete struct {
	ID            AthleteID `json:"id"`
	Username      string    `json:"username,omitempty"`
	FirstName     string    `json:"firstname"`
	LastName      string    `json:"lastname"`
	Sex           string    `json:"sex,omitempty"`
	Profile       string    `json:"profile,omitempty"`
	ProfileMedium string    `json:"profile_medium,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	Country       string    `json:"country,omitempty"`
	Premium       bool      `json:"premium"`
	Summit        bool      `json:"summit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AthleteID accepts both numeric and string ids.
type AthleteID string

func (id *AthleteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AthleteID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = AthleteID(n.String())
	return nil
}

// Int64 returns the numeric form of the id.
func (id AthleteID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// AthleteFromProfile decodes the typed athlete from a profile returned by
// the strategy.
func AthleteFromProfile(p *oauth.Profile) (*Athlete, error) {
	if p == nil || p.Raw == "" {
		return nil, ErrNoAthlete
	}

	var a Athlete
	if err := json.Unmarshal([]byte(p.Raw), &a); err != nil {
		return nil, errors.Join(oauth.ErrProfileParse, err)
	}
	return &a, nil
}
