// Package requests coordinates API calls made by the LuckyFind screens.
//
// # Overview
//
// A Coordinator sits between a screen and the function that actually talks to
// Discogs. For every logical request, identified by an endpoint name plus a flat
// parameter map, it guarantees:
//
//   - at most one fetch in flight per key; later callers join the first one
//   - successful results are cached for a TTL (5 minutes by default)
//   - the cache is bounded (50 entries by default) and evicts in insertion order
//   - each in-flight key can be cancelled on its own or all at once
//
// # Usage
//
//	coord := requests.New(requests.Config{})
//
//	release, err := requests.Do(ctx, coord, "release", requests.Params{"id": id},
//		func(ctx context.Context) (discogs.Release, error) {
//			return client.Release(ctx, id)
//		}, requests.DefaultOptions())
//	if requests.IsAborted(err) {
//		return // the screen was left
//	}
//
// Execute is the untyped form. Do asserts the cached value back to T and
// reports a mismatch as an error rather than panicking.
//
// # Configuration
//
// Config fields left at zero take defaults:
//
//   - MaxEntries: 50
//   - DefaultTTL: 5 minutes
//   - Now: time.Now (tests inject a fake clock)
//
// Per-call behavior is chosen through Options. The zero Options disables the
// cache, so callers use one of the constructors:
//
//   - DefaultOptions(): read and write the cache with the default TTL
//   - Refresh(): skip the cache read, overwrite the entry on success
//   - NoCache(): deduplicate only
//
// Options.TTL overrides the default for one call.
//
// # Request keys
//
// Key renders the endpoint followed by the parameters with their keys sorted,
// so {"q": "x", "page": 1} and {"page": 1, "q": "x"} produce the same key.
// Values keep their JSON type: page 1 and page "1" are different requests.
//
// # Execute flow
//
//	Execute(ctx, endpoint, params, fetch, opts)
//	  ├─ cache hit (UseCache && !ForceRefresh, age <= TTL) ─> return cached data
//	  ├─ expired entry ─────────────────────────────────────> delete, continue
//	  ├─ key in flight ─────────────────────────────────────> wait for that call
//	  └─ otherwise register call, run fetch in a goroutine
//	       ├─ success && UseCache ─> store entry (evicting the oldest when full)
//	       └─ always ──────────────> release the in-flight key
//
// # Cancellation
//
// The fetch receives a context that is detached from the caller's
// cancellation but keeps its values. Cancel and CancelAll cancel that context;
// a fetch that ignores it runs to completion. A fetch that fails after being
// cancelled is reported as ErrAborted, and so is a caller whose own ctx ends
// while waiting. Screens test for it with IsAborted and drop the result
// silently. Every other error is returned unchanged.
//
// Cancel releases the key at once. A request for the same key issued right
// after a cancel starts a new fetch instead of joining the dying one; the old
// fetch's cleanup leaves the new registration alone.
//
// # Eviction
//
// The cache evicts in insertion order. Before a new key is stored into a full
// cache, the earliest-inserted entry is removed, whether or not it has
// expired. Overwriting an existing key (Refresh) updates the data and
// timestamp in place and keeps its position in the order.
//
// # Inspection
//
// Several calls read the cache without fetching:
//
//   - Cached(endpoint, params): reports a live entry
//   - Peek(endpoint, params): returns a live entry's value without counting a
//     hit or deleting an expired entry
//   - Invalidate(endpoint, params): drops one entry
//   - Clear(): drops every entry
//   - Stats(): entries, in-flight keys, and hit/join/fetch counters
//
// # Maintenance
//
// Expired entries are dropped lazily on read. Sweep removes them all at once
// and is driven by the app package's sweeper goroutine.
//
// # Thread safety
//
// All state sits behind one mutex. Cache lookup, joining, and registration
// happen under the same lock, so two concurrent callers can never both start
// a fetch for one key. Fetches themselves run outside the lock.
package requests
