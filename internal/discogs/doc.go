// Package discogs provides an HTTP client for the Discogs database API.
//
// # Overview
//
// The client covers the read-only endpoints LuckyFind needs:
//
//   - GET /database/search          Search
//   - GET /releases/{id}            Release
//   - GET /labels/{id}              Label
//   - GET /labels/{id}/releases     LabelReleases
//
// Types in types.go mirror the subset of each payload the UI renders; unknown
// fields are ignored on decode.
//
// # Authentication
//
// Discogs accepts a personal access token or a consumer key/secret pair in the
// Authorization header. Database search requires one of them. OAuth request
// signing is not implemented.
//
//	client, err := discogs.NewClient(discogs.Options{
//		Credentials: discogs.Credentials{Token: os.Getenv("DISCOGS_TOKEN")},
//	})
//
// # Rate limiting
//
// Every response carries X-Discogs-Ratelimit headers; the client reports them
// through Options.OnRateLimit. Responses with 429 or a gateway status are
// retried with exponential backoff up to Options.MaxTries attempts (3 by
// default). A Retry-After header stretches the next wait, capped at 30s. Any
// other error, including context cancellation, is returned immediately.
//
// # Errors
//
// Non-2xx responses become *APIError. A 404 also matches ErrNotFound:
//
//	if errors.Is(err, discogs.ErrNotFound) { ... }
package discogs
