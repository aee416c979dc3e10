// Package catalog binds the Discogs client to the request coordinator.
//
// # Overview
//
// Screens never call the Discogs client directly. They go through a Service,
// which turns each lookup into a coordinator request keyed by a stable
// endpoint name plus flat params. Repeated lookups are served from cache,
// identical concurrent lookups share one API call, and every lookup a screen
// starts can be cancelled when the user leaves that screen.
//
// # Construction
//
//	svc, err := catalog.New(catalog.Options{
//		Fetcher:     client,                            // *discogs.Client
//		Coordinator: requests.New(requests.Config{}),
//		Health:      store,                             // optional *state.Store
//		PerPage:     cfg.PerPage,
//	})
//
// Fetcher and Coordinator are required. PerPage is applied to searches that
// do not set their own page size and to every label listing.
//
// # Endpoints and keys
//
// Each lookup uses one of four endpoint names:
//
//   - "search"          Search(ctx, query, force)
//   - "release"         Release(ctx, id, force)
//   - "label"           Label(ctx, id, force)
//   - "label-releases"  LabelReleases(ctx, labelID, page, force)
//
// Search params come from SearchQuery.Params after normalization, so a query
// typed with stray whitespace or an unset page maps to the same key as its
// clean form. Release and label lookups are keyed by {"id": id}; label
// listings by {"id", "page", "per_page"}.
//
// Passing force skips the cache read. The fresh result still replaces the
// cached entry, so the refreshed data is what the next plain lookup sees.
//
// # Record detail
//
// RecordDetail is the composite lookup behind the record screen:
//
//	RecordDetail(ctx, id, force)
//	  ├─ Release(id)                            fails the call on error
//	  └─ primary label known?
//	       ├─ Label(labelID)          ┐ parallel (errgroup), best-effort
//	       └─ LabelReleases(labelID, 1)┘
//
// Label and LabelReleaseCount stay empty (nil and -1) when their lookup
// fails. Only an aborted label lookup fails the call, since that means the
// user left the screen. The first label page is cached by this prefetch, so
// following the label link opens instantly.
//
// # Cancellation
//
// Each screen has a matching cancel call:
//
//   - CancelSearch(query)
//   - CancelRelease(id)
//   - CancelRecordDetail(id, labelID)
//   - CancelLabelReleases(labelID, page)
//   - CancelAll()
//
// CancelRecordDetail accepts a zero labelID. The label lookups only start
// after the release has been cached, so the label is resolved from the cached
// release without counting a cache hit. CancelAll keeps cached entries.
//
// Cancelled lookups return an error matching requests.IsAborted. Screens drop
// those results silently.
//
// # Health reporting
//
// Every real API call reports its outcome to the health store:
//
//   - success records a healthy call and resets the failure count
//   - 404 also counts as healthy, because the API answered
//   - calls cut short by cancellation are not reported
//   - any other error is recorded and logged with log.Printf
//
// Cache hits and joined calls make no API call and report nothing.
//
// # Cache state
//
// SearchCached reports whether a query's page is cached, for the results
// title marker. Stats exposes the coordinator counters for the header.
package catalog
