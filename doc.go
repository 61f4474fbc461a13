// Package strava authenticates users with Strava using OAuth 2.0.
//
// A [Strategy] embeds the generic flow from pkg/oauth and adds what is
// specific to Strava: its endpoints, comma-separated scopes, client
// credentials sent in the request body and the mapping of the athlete
// response to an [oauth.Profile].
//
// # Usage
//
//	s, err := strava.New(&strava.Config{
//		ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
//		ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
//		CallbackURL:  "/auth/strava/callback",
//	}, func(ctx context.Context, accessToken, refreshToken string, p *oauth.Profile) (any, any, error) {
//		user, err := users.FindOrCreate(ctx, p.ID)
//		return user, nil, err
//	}, oauth.WithStateStore(oauth.NewCookieStateStore(cookies, 0)))
//	if err != nil {
//		return err
//	}
//
//	r.Get("/auth/strava", s.Handler(oauth.HandlerOptions{}))
//	r.Get("/auth/strava/callback", s.Handler(oauth.HandlerOptions{
//		SuccessRedirect: "/",
//		FailureRedirect: "/login",
//		OnSuccess:       login,
//	}))
//
// # Profile
//
// The athlete is normalized as follows:
//
//   - ID: the athlete id as a string
//   - DisplayName: first and last name (FullName carries the same value)
//   - Name: given and family name
//   - Photos: the profile and profile_medium URLs, nil when missing
//   - Gender: "male" or "female" from the sex field, empty otherwise
//
// The raw body and its decoded form are always kept in Profile.Raw and
// Profile.JSON; [AthleteFromProfile] decodes a typed [Athlete] from them.
// A response without an id yields a profile with only those fields set.
package strava
