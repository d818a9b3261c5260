// Package resource translates domain CRUD operations into cache keys, fetch
// functions, and invalidation cascades. Each binding (Items, Posts, Profile)
// owns the key layout of its resource and the exact set of keys a successful
// mutation must invalidate; reads go through the query cache, mutations go
// straight to the HTTP client and only touch the cache after the server has
// confirmed success. A failed mutation therefore leaves the cache byte-for-
// byte as it was before the attempt.
package resource
