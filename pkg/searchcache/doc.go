// Package searchcache implements context-aware caching of marketplace
// search results on top of Redis.
//
// The cache decides what to cache, for whom, and for how long. A result
// set is only cached once its key has accumulated a minimum number of
// accesses, TTL and size limits depend on the requester's subscription
// tier, and a cached entry is only served to a requester whose derived
// segments sufficiently overlap the segments that produced it.
//
// The package is a library consumed by a request-handling layer: it has
// no network surface of its own. Callers fall back to the live query
// engine on every miss, so all store failures degrade to misses and are
// never propagated as request failures.
//
// Background maintenance runs as two independent periodic jobs: a Warmer
// that pre-populates entries for historically popular queries, and a
// SizeOptimizer that enforces a soft cap on the cache population by
// evicting the lowest-scoring entries.
package searchcache
