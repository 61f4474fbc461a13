// Package redis opens go-redis clients for the OAuth state cache.
//
// [Open] validates the URL, applies pool settings and pings the server with
// a linear backoff before handing the client back. [Healthcheck] plugs into
// the readiness endpoint and [Shutdown] closes the client on exit.
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"), redis.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	states := cache.NewRedis[oauth.StateData](client, nil, cache.WithPrefix("oauth:state"))
package redis
