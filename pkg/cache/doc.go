// Package cache provides a small generic key-value cache with TTLs.
//
// Two backends implement Cache: Memory for single-process deployments and
// Redis for deployments where the authorization redirect and the callback
// may land on different instances. The OAuth2 core stores pending
// authorization requests here and consumes them with Take, which hands a
// value out at most once.
//
//	c := cache.NewMemory[string](cache.WithDefaultTTL(5 * time.Minute))
//	defer c.Close()
//
//	_ = c.Set(ctx, "k", "v", 0)   // default TTL
//	v, err := c.Take(ctx, "k")    // "v", nil
//	_, err = c.Take(ctx, "k")     // cache.ErrNotFound
package cache
