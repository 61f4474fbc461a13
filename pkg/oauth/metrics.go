package oauth

import "github.com/prometheus/client_golang/prometheus"

var (
	authentications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_authentications_total",
			Help: "Authentication attempts by outcome (redirect, success, failure, error)",
		},
		[]string{"provider", "outcome"},
	)
	tokenErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_token_errors_total",
			Help: "Failed code exchanges by error kind",
		},
		[]string{"provider", "kind"},
	)
	profileFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauth_profile_fetch_duration_seconds",
			Help:    "Latency of user profile requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// MetricsCollectors returns collectors for the OAuth core.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		authentications,
		tokenErrors,
		profileFetchDuration,
	}
}

func tokenErrorKind(err error) string {
	switch err.(type) {
	case *TokenError:
		return "token"
	case *InternalError:
		return "internal"
	default:
		return "unknown"
	}
}
