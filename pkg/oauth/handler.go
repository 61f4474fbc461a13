package oauth

import (
	"errors"
	"net/http"
)

// HandlerOptions configures Handler.
type HandlerOptions struct {
	// SuccessRedirect is where the browser goes after OnSuccess.
	// When empty, OnSuccess owns the response.
	SuccessRedirect string

	// FailureRedirect is where the browser goes after a failure when
	// OnFailure is nil. When both are empty the failure status is written.
	FailureRedirect string

	// Options are passed to every Authenticate call.
	Options []AuthenticateOption

	// OnSuccess logs the user in, typically by writing a session cookie.
	// A returned error is handled like an authentication error.
	OnSuccess func(w http.ResponseWriter, r *http.Request, res *Result) error

	OnFailure func(w http.ResponseWriter, r *http.Request, f *Failure)
	OnError   func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler serves both the login route and the callback route.
//
//	r.Get("/auth/strava", s.Handler(oauth.HandlerOptions{}))
//	r.Get("/auth/strava/callback", s.Handler(oauth.HandlerOptions{
//		SuccessRedirect: "/",
//		FailureRedirect: "/login",
//		OnSuccess:       login,
//	}))
func (c *Core) Handler(o HandlerOptions) http.Handler {
	onError := o.OnError
	if onError == nil {
		onError = writeError
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := c.Authenticate(w, r, o.Options...)
		if err != nil {
			onError(w, r, err)
			return
		}

		switch res.Outcome {
		case OutcomeRedirect:
			http.Redirect(w, r, res.RedirectURL, http.StatusFound)

		case OutcomeFailure:
			switch {
			case o.OnFailure != nil:
				o.OnFailure(w, r, res.Failure)
			case o.FailureRedirect != "":
				http.Redirect(w, r, o.FailureRedirect, http.StatusFound)
			default:
				status := res.Failure.Status
				if status == 0 {
					status = http.StatusUnauthorized
				}
				http.Error(w, http.StatusText(status), status)
			}

		case OutcomeSuccess:
			if o.OnSuccess != nil {
				if err := o.OnSuccess(w, r, res); err != nil {
					onError(w, r, err)
					return
				}
			}
			if o.SuccessRedirect != "" {
				http.Redirect(w, r, o.SuccessRedirect, http.StatusFound)
			} else if o.OnSuccess == nil {
				w.WriteHeader(http.StatusNoContent)
			}
		}
	})
}

func writeError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusInternalServerError
	var ae *AuthorizationError
	if errors.As(err, &ae) {
		status = ae.Status
	}
	http.Error(w, http.StatusText(status), status)
}
