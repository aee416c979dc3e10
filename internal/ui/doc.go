// Package ui provides the LuckyFind terminal interface.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds all state and every screen is
// rendered from it; data arrives as tea.Msg values produced by commands that
// call catalog.Service. The search screen is always at the bottom and detail
// screens (release, label catalog) stack on top of it.
//
// # Package Structure
//
//   - app.go: Model, Options, Update/View dispatch, and Run
//   - search.go: search box with debounce, results list, paging
//   - filters.go: genre/style/country/year/format filter modal
//   - stack.go: detail screen stack, load commands, cancellation on pop
//   - record.go: release detail screen with tracklist and videos
//   - label.go: label catalog screen
//   - header.go: health/rate-limit header, command bar, status line
//   - theme.go, style_helpers.go: themes and box rendering
//
// # Request Flow
//
//  1. Typing restarts a debounce timer; Enter bypasses it.
//  2. The query goes to catalog.Service, which deduplicates identical
//     in-flight requests and serves repeats from its cache.
//  3. Results for a query the user has since replaced are dropped, and
//     aborted requests never surface as errors.
//  4. Leaving a screen that is still loading cancels its request.
//
// # Cross-reference Links
//
// A release links to its label and a label lists its releases. Following
// those links goes through navigation.Guard, so bouncing record → label →
// same record is refused and the link renders inert. Use esc to go back.
//
// # Key Bindings
//
//   - /: Edit search (tab moves to results)
//   - f or ctrl+f: Search filters
//   - enter: Open the selected row
//   - [ and ]: Previous/next page
//   - l: Label of the open release
//   - n/N, y, o: Select, copy, or open a release video
//   - r: Refresh, bypassing the cache
//   - esc: Back
//   - T: Cycle theme
//   - q or ctrl+c: Exit
package ui
