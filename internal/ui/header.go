package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/luckyfind/internal/navigation"
)

// renderHeader renders the status bar: API health, rate limit, and cache.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	var parts []string
	parts = append(parts, bg.Render("luckyfind", styles.Logo))
	parts = append(parts, m.formatHealth(styles, bg))

	if !m.authenticated {
		parts = append(parts, bg.Render("NO TOKEN", styles.WarningText.Bold(true)))
	}

	if m.snapshot.HasRateLimit {
		rl := m.snapshot.RateLimit
		rateStyle := styles.Text
		if rl.Limit > 0 && rl.Remaining*5 <= rl.Limit {
			rateStyle = styles.WarningText
		}
		parts = append(parts,
			bg.Render("Rate:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d/%d", rl.Remaining, rl.Limit), rateStyle))
	}

	cache := bg.Render("Cache:", styles.MutedText) + bg.Space() +
		bg.Render(fmt.Sprintf("%d", m.stats.Entries), styles.Text)
	if !compact {
		cache += bg.Space() + bg.Render(fmt.Sprintf("(%s hits)", humanize.Comma(int64(m.stats.Hits))), styles.FaintText)
	}
	parts = append(parts, cache)

	if m.stats.InFlight > 0 {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d loading", m.stats.InFlight), styles.InfoText))
	}

	if !compact && !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render(humanize.Time(m.snapshot.LastUpdated), styles.MutedText))
	}

	if m.snapshot.LastError != nil {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(describeError(m.snapshot.LastError), maxErr), styles.DangerText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		MaxWidth(m.width).
		Render(bg.Join(parts, "  "))
}

func (m Model) formatHealth(styles Styles, bg BgStyle) string {
	switch {
	case m.snapshot.IsOffline():
		return bg.Render("● OFFLINE", styles.DangerText)
	case m.snapshot.IsThrottled():
		return bg.Render("● THROTTLED", styles.WarningText)
	case m.snapshot.LastUpdated.IsZero():
		return bg.Render("● IDLE", styles.MutedText)
	}
	return bg.Render("● OK", styles.SuccessText)
}

// renderCommandBar renders the key hints for the active screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	screen := navigation.ScreenSearch
	if f := m.top(); f != nil {
		screen = f.screen
	}
	switch screen {
	case navigation.ScreenRecordDetail:
		commands = []cmd{
			{"esc", "Back"},
			{"l", "Label"},
			{"n/N", "Video"},
			{"y", "Copy"},
			{"o", "Open"},
			{"r", "Refresh"},
			{"?", "More"},
		}
	case navigation.ScreenLabelReleases:
		commands = []cmd{
			{"esc", "Back"},
			{"enter", "Open"},
			{"[/]", "Page"},
			{"r", "Refresh"},
			{"?", "More"},
		}
	default:
		if m.search.inputFocused {
			commands = []cmd{
				{"enter", "Search"},
				{"tab", "Results"},
				{"ctrl+f", "Filters"},
				{"esc", "Clear"},
			}
		} else {
			commands = []cmd{
				{"/", "Edit"},
				{"enter", "Open"},
				{"f", "Filters"},
				{"[/]", "Page"},
				{"r", "Refresh"},
				{"?", "More"},
			}
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderStatusLine shows the transient status message, or the key help.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	line := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface)).Width(m.width).MaxWidth(m.width)

	if m.status != "" {
		style := styles.InfoText
		if m.statusError {
			style = styles.DangerText
		}
		return line.Render(style.Render(truncate(m.status, m.width)))
	}
	return line.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}
