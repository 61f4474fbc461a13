// Package oauth implements the OAuth 2.0 authorization code flow shared by
// provider strategies.
//
// A [Core] wraps [golang.org/x/oauth2] with the parts a login flow needs on
// top of it: building the authorization URL with a provider-specific scope
// separator, exchanging the code, loading the user profile through a
// [ProfileFunc] and handing the result to the application's [VerifyFunc].
// Provider packages embed a Core and install their ProfileFunc; see the root
// strava package.
//
// # Usage
//
//	core, err := oauth.New("example", oauth.Config{
//		ClientID:         os.Getenv("CLIENT_ID"),
//		ClientSecret:     os.Getenv("CLIENT_SECRET"),
//		CallbackURL:      "/auth/example/callback",
//		AuthorizationURL: "https://example.com/oauth/authorize",
//		TokenURL:         "https://example.com/oauth/token",
//	}, verify,
//		oauth.WithStateStore(oauth.NewCookieStateStore(cookies, 0)),
//		oauth.WithPKCE(),
//	)
//
// [Core.Authenticate] runs one step per request and returns a [Result]:
// a redirect to the provider, a success carrying the user, or a [Failure]
// such as a denied authorization. [Core.Handler] turns that into an
// http.Handler with success and failure redirects.
//
// # State
//
// With a [StateStore] the state parameter is a random handle bound to the
// browser. [CookieStateStore] keeps the state in an encrypted cookie;
// [CacheStateStore] keeps it in pkg/cache (memory or Redis) and consumes it
// atomically. PKCE verifiers travel in the stored [StateData].
//
// # Errors
//
// Configuration problems are joined under [ErrInvalidConfig]. Token endpoint
// failures are joined with [ErrTokenExchange] and carry a [*TokenError]
// (both the RFC 6749 and the legacy nested error shapes) or an
// [*InternalError]. Callback errors other than access_denied surface as
// [*AuthorizationError].
//
// # Metrics
//
// [MetricsCollectors] returns the Prometheus collectors for attempts by
// outcome, token errors by kind and profile fetch latency.
package oauth
