// Package query implements the subscriber-driven fetch cache that mediates
// between resource bindings and the remote API. Each cache key maps a resource
// name plus canonicalized parameters to an entry carrying the last fetch
// result, its freshness, and the active subscribers. The cache guarantees
// single-flight fetches per key, stale-while-revalidate reads inside a
// configurable freshness window, and predicate-based invalidation cascades
// driven by mutations. Resource bindings depend on this package instead of
// talking to the HTTP client directly, so staleness and de-duplication
// policies live in exactly one place.
package query
