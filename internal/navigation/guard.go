// Package navigation keeps the record and label screens from sending the user
// around in circles.
package navigation

import (
	"strings"
	"sync"
	"time"
)

// Screen names a kind of screen in the navigation stack.
type Screen string

const (
	ScreenSearch        Screen = "Search"
	ScreenRecordDetail  Screen = "RecordDetail"
	ScreenLabelReleases Screen = "LabelReleases"
)

const (
	defaultHistoryLimit = 10
	defaultRecentWindow = 3
)

// Metadata is caller-owned context attached to a visit.
type Metadata map[string]any

// Visit records one screen the user has been on.
type Visit struct {
	Screen    Screen
	ItemID    string
	Timestamp time.Time
	Metadata  Metadata
}

func (v Visit) matches(screen Screen, itemID string) bool {
	return v.Screen == screen && v.ItemID == itemID
}

// Config configures a Guard.
type Config struct {
	HistoryLimit int // visits kept, oldest dropped first
	RecentWindow int // trailing visits checked by WouldLoop
	Now          func() time.Time
}

// Guard tracks the current screen plus a short visit history and refuses
// navigation that would revisit something the user is on or just left.
type Guard struct {
	mu           sync.Mutex
	historyLimit int
	recentWindow int
	now          func() time.Time

	current    Visit
	hasCurrent bool
	history    []Visit
}

// New builds a Guard, filling unset config with defaults.
func New(cfg Config) *Guard {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = defaultRecentWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Guard{
		historyLimit: cfg.HistoryLimit,
		recentWindow: cfg.RecentWindow,
		now:          cfg.Now,
	}
}

// SetCurrentScreen records that screen/itemID is now shown. Repeating the
// current pair updates it in place without adding a history entry.
func (g *Guard) SetCurrentScreen(screen Screen, itemID string, metadata Metadata) {
	g.mu.Lock()
	defer g.mu.Unlock()

	itemID = strings.TrimSpace(itemID)
	visit := Visit{
		Screen:    screen,
		ItemID:    itemID,
		Timestamp: g.now(),
		Metadata:  metadata,
	}
	repeat := g.hasCurrent && g.current.matches(screen, itemID)
	g.current = visit
	g.hasCurrent = true
	if repeat {
		return
	}

	g.history = append(g.history, visit)
	if overflow := len(g.history) - g.historyLimit; overflow > 0 {
		g.history = append([]Visit(nil), g.history[overflow:]...)
	}
}

// WouldLoop reports whether showing screen/itemID would re-enter the current
// screen or one of the most recent visits.
func (g *Guard) WouldLoop(screen Screen, itemID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.wouldLoopLocked(screen, strings.TrimSpace(itemID))
}

func (g *Guard) wouldLoopLocked(screen Screen, itemID string) bool {
	if g.hasCurrent && g.current.matches(screen, itemID) {
		return true
	}
	start := max(len(g.history)-g.recentWindow, 0)
	for _, visit := range g.history[start:] {
		if visit.matches(screen, itemID) {
			return true
		}
	}
	return false
}

// NavigateIfAllowed runs perform and records the new screen unless the move
// would loop or itemID is empty. It reports whether navigation happened.
func (g *Guard) NavigateIfAllowed(screen Screen, itemID string, perform func(), metadata Metadata) bool {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || g.WouldLoop(screen, itemID) {
		return false
	}
	if perform != nil {
		perform()
	}
	g.SetCurrentScreen(screen, itemID, metadata)
	return true
}

// IsLabelClickable reports whether a link to labelID should be interactive.
func (g *Guard) IsLabelClickable(labelID string) bool {
	return g.clickable(ScreenLabelReleases, labelID)
}

// IsRecordClickable reports whether a link to recordID should be interactive.
func (g *Guard) IsRecordClickable(recordID string) bool {
	return g.clickable(ScreenRecordDetail, recordID)
}

func (g *Guard) clickable(screen Screen, itemID string) bool {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return !(g.hasCurrent && g.current.matches(screen, itemID))
}

// Current returns the most recent screen, if any.
func (g *Guard) Current() (Visit, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current, g.hasCurrent
}

// History returns a copy of the visit history, oldest first.
func (g *Guard) History() []Visit {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Visit(nil), g.history...)
}

// Reset forgets the current screen and all history.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = Visit{}
	g.hasCurrent = false
	g.history = nil
}
