package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show secondary columns.
	LayoutWideWidth = 140
)

// Timing constants.
const (
	// SearchDebounce is how long typing must pause before a search is sent.
	SearchDebounce = 350 * time.Millisecond

	// StatusMessageTTL is how long a status line message stays visible.
	StatusMessageTTL = 4 * time.Second

	// DefaultUIInterval is the default header refresh interval.
	DefaultUIInterval = time.Second
)
