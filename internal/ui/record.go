package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/luckyfind/internal/discogs"
	"github.com/five82/luckyfind/internal/navigation"
)

// sizeViewport fits a record frame's viewport inside its titled box.
func (m *Model) sizeViewport(f *frame) {
	if f.screen != navigation.ScreenRecordDetail {
		return
	}
	f.viewport.Width = max(m.width-4, 10)
	f.viewport.Height = max(m.contentHeight()-2, 1)
}

// refreshRecordViewport re-renders the visible record frame's content.
func (m *Model) refreshRecordViewport() {
	f := m.top()
	if f == nil || f.screen != navigation.ScreenRecordDetail {
		return
	}
	f.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	f.viewport.SetContent(m.renderRecordContent(f, f.viewport.Width))
}

func (m Model) handleRecordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.top()

	switch {
	case key.Matches(msg, m.keys.Back):
		m.pop()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.catalog == nil || f.loading {
			return m, nil
		}
		f.loading = true
		f.err = nil
		m.refreshRecordViewport()
		return m, loadRecordCmd(m.ctx, m.catalog, f.id, true)

	case key.Matches(msg, m.keys.OpenLabel):
		return m, m.openLabel()

	case key.Matches(msg, m.keys.NextVideo):
		if f.detail != nil && f.video < len(f.detail.Release.Videos)-1 {
			f.video++
			m.refreshRecordViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevVideo):
		if f.video > 0 {
			f.video--
			m.refreshRecordViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyVideo):
		v, ok := selectedVideo(f)
		if !ok {
			return m, m.setStatus("No video selected", false)
		}
		if err := m.copyURL(v.URI); err != nil {
			return m, m.setStatus("Copy failed: "+err.Error(), true)
		}
		return m, m.setStatus("Copied "+truncate(v.URI, 60), false)

	case key.Matches(msg, m.keys.OpenVideo):
		v, ok := selectedVideo(f)
		if !ok {
			return m, m.setStatus("No video selected", false)
		}
		if err := m.openURL(v.URI); err != nil {
			return m, m.setStatus("Open failed: "+err.Error(), true)
		}
		return m, m.setStatus("Opened "+truncate(v.URI, 60), false)

	case key.Matches(msg, m.keys.Down):
		f.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		f.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		f.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		f.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		f.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		f.viewport.GotoBottom()
	}
	return m, nil
}

// openLabel follows the record's label link unless the guard says it would
// loop back to a screen the user just left.
func (m *Model) openLabel() tea.Cmd {
	f := m.top()
	if f == nil || f.detail == nil {
		return nil
	}
	ref, ok := f.detail.Release.PrimaryLabel()
	if !ok {
		return m.setStatus("This release has no label to browse", false)
	}
	fromRelease := f.id

	var cmd tea.Cmd
	allowed := m.guard.NavigateIfAllowed(navigation.ScreenLabelReleases, ref.IDString(), func() {
		cmd = m.pushLabel(ref.ID, ref.Name)
	}, navigation.Metadata{"name": ref.Name, "from_release": fromRelease})
	if !allowed {
		return m.setStatus(fmt.Sprintf("Already browsing %s (esc to go back)", ref.Name), false)
	}
	return cmd
}

// labelLinkState reports whether a label link is live and, when it is not,
// the note rendered next to it.
func (m Model) labelLinkState(ref discogs.LabelRef) (bool, string) {
	id := ref.IDString()
	switch {
	case id == "":
		return false, ""
	case !m.guard.IsLabelClickable(id):
		return false, "(current label)"
	case m.guard.WouldLoop(navigation.ScreenLabelReleases, id):
		return false, "(current label, esc to return)"
	}
	return true, ""
}

func selectedVideo(f *frame) (discogs.Video, bool) {
	if f == nil || f.detail == nil || len(f.detail.Release.Videos) == 0 {
		return discogs.Video{}, false
	}
	v := f.detail.Release.Videos[clampIndex(f.video, len(f.detail.Release.Videos))]
	if strings.TrimSpace(v.URI) == "" {
		return discogs.Video{}, false
	}
	return v, true
}

func (m Model) renderRecord(f *frame) string {
	title := f.title
	if f.detail != nil {
		if artist := f.detail.Release.ArtistDisplay(); artist != "" {
			title = artist + " – " + f.detail.Release.Title
		}
	}
	if title == "" {
		title = "Release #" + idString(f.id)
	}
	return m.renderTitledBox(title, f.viewport.View(), m.width, m.contentHeight(), true)
}

// renderRecordContent builds the scrollable body of the record screen.
func (m Model) renderRecordContent(f *frame, width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if f.detail == nil {
		switch {
		case f.err != nil:
			return styles.DangerText.Render(truncate(describeError(f.err), width))
		case f.loading:
			return styles.MutedText.Render("Loading release...")
		}
		return ""
	}

	r := f.detail.Release
	var b strings.Builder
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(bg.Render(padRight(label, 10), styles.MutedText))
		b.WriteString(bg.Render(truncate(value, max(width-10, 0)), styles.Text))
		b.WriteString("\n")
	}
	section := func(title string) {
		b.WriteString("\n")
		b.WriteString(bg.Render(title, styles.AccentText.Bold(true)))
		b.WriteString("\n")
	}

	if f.loading {
		b.WriteString(bg.Render("Refreshing "+m.spinner.View(), styles.MutedText))
		b.WriteString("\n")
	}
	if f.err != nil {
		b.WriteString(bg.Render(truncate(describeError(f.err), width), styles.DangerText))
		b.WriteString("\n")
	}

	b.WriteString(bg.Render(truncate(r.Title, width), styles.Text.Bold(true)))
	b.WriteString("\n")
	field("Artist", r.ArtistDisplay())
	if r.Year > 0 {
		field("Year", fmt.Sprintf("%d", r.Year))
	}
	field("Released", r.Released)
	field("Country", r.Country)
	field("Format", r.FormatSummary())
	field("Genre", strings.Join(r.Genres, ", "))
	field("Style", strings.Join(r.Styles, ", "))
	b.WriteString(m.renderLabelLine(f, styles, bg, width))

	c := r.Community
	if c.Have > 0 || c.Want > 0 {
		field("Community", fmt.Sprintf("%s have · %s want", formatThousands(c.Have), formatThousands(c.Want)))
	}
	if c.Rating.Count > 0 {
		field("Rating", formatRating(c.Rating.Average, c.Rating.Count))
	}
	if f.detail.Label != nil && strings.TrimSpace(f.detail.Label.Profile) != "" {
		field("About", firstLine(f.detail.Label.Profile))
	}

	if len(r.Tracklist) > 0 {
		section("Tracklist")
		for _, t := range r.Tracklist {
			b.WriteString(m.formatTrack(t, styles, bg, width))
			b.WriteString("\n")
		}
	}

	if len(r.Videos) > 0 {
		section(fmt.Sprintf("Videos (%d)  n/N select · y copy · o open", len(r.Videos)))
		for i, v := range r.Videos {
			marker, style := "  ", styles.Text
			if i == f.video {
				marker, style = "▸ ", styles.AccentText.Bold(true)
			}
			line := marker + v.Title
			if d := formatSeconds(v.Duration); d != "" {
				line += " (" + d + ")"
			}
			b.WriteString(bg.Render(truncate(line, width), style))
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderLabelLine renders the label cross-reference, inert when following it
// would loop.
func (m Model) renderLabelLine(f *frame, styles Styles, bg BgStyle, width int) string {
	ref, ok := f.detail.Release.PrimaryLabel()
	if !ok {
		return ""
	}
	name := ref.Name
	if ref.Catno != "" {
		name += " – " + ref.Catno
	}

	line := bg.Render(padRight("Label", 10), styles.MutedText)
	active, note := m.labelLinkState(ref)
	if active {
		line += bg.Render(truncate(name, max(width-30, 10)), styles.LinkText)
		hint := "  l: releases"
		if n := f.detail.LabelReleaseCount; n >= 0 {
			hint = "  l: " + formatCount(m.printer, n, "release", "releases")
		}
		line += bg.Render(hint, styles.FaintText)
	} else {
		line += bg.Render(truncate(name, max(width-30, 10)), styles.InertText)
		if note != "" {
			line += bg.Space() + bg.Render(note, styles.FaintText)
		}
	}
	return line + "\n"
}

func (m Model) formatTrack(t discogs.Track, styles Styles, bg BgStyle, width int) string {
	if t.Type == "heading" {
		return bg.Render(truncate(t.Title, width), styles.InfoText)
	}
	pos := padRight(t.Position, 5)
	dur := t.Duration
	titleWidth := max(width-runewidth.StringWidth(pos)-runewidth.StringWidth(dur)-2, 5)
	return bg.Render(pos, styles.MutedText) +
		bg.Render(padRight(truncate(t.Title, titleWidth), titleWidth), styles.Text) +
		bg.Spaces(2) + bg.Render(dur, styles.FaintText)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
