// Package health serves liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"redis": redis.Healthcheck(client),
//	}, health.WithLogger(log)))
//
// Both handlers answer plain text unless the client asks for JSON through the
// Accept header or ?format=json.
package health
