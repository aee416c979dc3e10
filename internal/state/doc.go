// Package state tracks the health of the Discogs API as seen by LuckyFind.
//
// # Overview
//
// Every request issued through the catalog service reports its outcome here,
// and the HTTP client reports rate limit headers as they arrive. The UI reads
// a Snapshot on each tick to render the header badges.
//
//	Producers:                     Consumer (UI):
//	┌──────────────────────┐      ┌──────────────────┐
//	│ catalog: Update()    │      │                  │
//	│ discogs: OnRateLimit │─────→│ store.Snapshot() │
//	│   → ObserveRateLimit │(mutex)│      ↓           │
//	└──────────────────────┘      │  render header   │
//	                              └──────────────────┘
//
// # Health
//
// A Snapshot is offline after two consecutive failed requests and throttled
// when the last response reported zero remaining requests. A successful
// request resets the failure count. Aborted requests are not outcomes and
// callers must not report them.
//
// # Concurrency
//
// Store uses a sync.RWMutex. Update and ObserveRateLimit take the write lock;
// Snapshot takes the read lock and returns a copy. The zero value is ready to
// use.
package state
