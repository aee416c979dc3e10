// Package app is the composition root for LuckyFind.
//
// # Overview
//
// Run wires configuration, the Discogs client, the request coordinator, the
// navigation guard, and the UI together, then blocks until the UI exits.
//
//  1. Load config.toml and apply LUCKYFIND_* environment overrides
//  2. Route log output to the debug log, or discard it
//  3. Load prefs.toml (theme, last query)
//  4. Build the Discogs client, reporting rate limits into state.Store
//  5. Build the coordinator and catalog.Service on top of it
//  6. Start the cache sweeper
//  7. Run the TUI
//
// # Components
//
//   - app.go: Run and logging setup
//   - sweeper.go: background goroutine that drops expired cache entries
//
// # Shutdown
//
// Cancelling ctx (SIGINT/SIGTERM in cmd/luckyfind) stops the UI and the
// sweeper. On the way out every in-flight Discogs request is cancelled;
// cached results die with the process.
//
// # Error Handling
//
// Run returns errors for an invalid config file or environment, an
// unopenable debug log, and a malformed base URL. Fetch failures at runtime
// never end the program: they surface in the UI and the header's health
// indicator.
package app
