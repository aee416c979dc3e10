package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/luckyfind/internal/discogs"
	"github.com/five82/luckyfind/internal/navigation"
)

func (m Model) handleLabelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.top()
	var releases []discogs.LabelRelease
	if f.list != nil {
		releases = f.list.Releases
	}

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
		return m, loadLabelCmd(m.ctx, m.catalog, f.id, f.page, true)

	case key.Matches(msg, m.keys.Down):
		if f.selected < len(releases)-1 {
			f.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if f.selected > 0 {
			f.selected--
		}
	case key.Matches(msg, m.keys.Top):
		f.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		f.selected = max(len(releases)-1, 0)

	case key.Matches(msg, m.keys.NextPage):
		if f.list != nil && f.list.Pagination.HasNext() {
			return m, m.turnLabelPage(f.page + 1)
		}
	case key.Matches(msg, m.keys.PrevPage):
		if f.page > 1 {
			return m, m.turnLabelPage(f.page - 1)
		}

	case key.Matches(msg, m.keys.Open):
		if f.selected < len(releases) {
			return m, m.openLabelRelease(releases[f.selected])
		}
	}
	return m, nil
}

// turnLabelPage abandons the page being loaded, if any, and fetches page.
func (m *Model) turnLabelPage(page int) tea.Cmd {
	f := m.top()
	if f.loading && m.catalog != nil {
		m.catalog.CancelLabelReleases(f.id, f.page)
	}
	f.page = page
	f.selected = 0
	f.loading = true
	f.err = nil
	if m.catalog == nil {
		return nil
	}
	return loadLabelCmd(m.ctx, m.catalog, f.id, page, false)
}

// openLabelRelease follows a release row unless it leads back to the record
// the user came from.
func (m *Model) openLabelRelease(r discogs.LabelRelease) tea.Cmd {
	if r.ID <= 0 {
		return nil
	}
	fromLabel := m.top().id

	var cmd tea.Cmd
	allowed := m.guard.NavigateIfAllowed(navigation.ScreenRecordDetail, r.IDString(), func() {
		cmd = m.pushRecord(r.ID, r.Title)
	}, navigation.Metadata{"title": r.Title, "from_label": fromLabel})
	if !allowed {
		return m.setStatus(fmt.Sprintf("%s is the record you came from (esc to go back)", truncate(r.Title, 40)), false)
	}
	return cmd
}

// releaseLinkActive reports whether a label row can be followed.
func (m Model) releaseLinkActive(r discogs.LabelRelease) bool {
	id := r.IDString()
	if id == "" {
		return false
	}
	return m.guard.IsRecordClickable(id) && !m.guard.WouldLoop(navigation.ScreenRecordDetail, id)
}

func (m Model) labelTitle(f *frame) string {
	name := f.title
	if name == "" {
		name = "Label #" + idString(f.id)
	}
	if f.list == nil {
		return name
	}
	p := f.list.Pagination
	title := name + " · " + formatCount(m.printer, p.Items, "release", "releases")
	if p.Pages > 1 {
		title += m.printer.Sprintf(" · page %d/%d", f.page, p.Pages)
	}
	return title
}

func (m Model) renderLabel(f *frame) string {
	height := m.contentHeight()
	return m.renderTitledBox(m.labelTitle(f), m.renderLabelReleases(f, m.width-2, height-2), m.width, height, true)
}

// renderLabelReleases renders the visible window of a label's catalog.
func (m Model) renderLabelReleases(f *frame, width, height int) string {
	styles := m.theme.Styles()

	switch {
	case f.err != nil:
		return styles.DangerText.Render(truncate(describeError(f.err), width))
	case f.list == nil && f.loading:
		return styles.MutedText.Render("Loading releases " + m.spinner.View())
	case f.list == nil:
		return ""
	case len(f.list.Releases) == 0:
		return styles.MutedText.Render("No releases on this page.")
	}

	releases := f.list.Releases
	start, end := listWindow(f.selected, len(releases), height)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected := i == f.selected
		rowBg := m.theme.FocusBg
		if selected {
			rowBg = m.theme.SelectionBg
		}
		row := m.formatLabelRow(releases[i], width, rowBg, selected)
		lines = append(lines, lipgloss.NewStyle().Background(lipgloss.Color(rowBg)).Width(width).Render(row))
	}
	if f.loading && len(lines) > 0 {
		lines[0] = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg)).Width(width).
			Render(styles.MutedText.Render("Loading page " + m.spinner.View()))
	}
	return strings.Join(lines, "\n")
}

// formatLabelRow formats "Year  Artist - Title  Catno · Format". Rows that
// would loop back are dimmed and marked.
func (m Model) formatLabelRow(r discogs.LabelRelease, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	yearStyle, titleStyle, metaStyle := styles.MutedText, styles.Text, styles.FaintText
	active := m.releaseLinkActive(r)
	if !active {
		titleStyle = styles.InertText
	}
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		yearStyle, titleStyle, metaStyle = sel, sel.Bold(active), sel
	}

	year := "----"
	if r.Year > 0 {
		year = fmt.Sprintf("%d", r.Year)
	}
	title := r.Title
	if r.Artist != "" {
		title = r.Artist + " - " + r.Title
	}
	if !active {
		title += " (just visited)"
	}

	var meta []string
	if r.Catno != "" {
		meta = append(meta, r.Catno)
	}
	if r.Format != "" {
		meta = append(meta, r.Format)
	}
	metaStr := strings.Join(meta, " · ")

	titleWidth := width - 6
	if metaStr != "" && width >= LayoutCompactWidth {
		titleWidth = width * 60 / 100
	}
	out := bg.Render(padRight(year, 4), yearStyle) + bg.Spaces(2) +
		bg.Render(padRight(truncate(title, titleWidth), titleWidth), titleStyle)
	if metaStr != "" && width >= LayoutCompactWidth {
		out += bg.Spaces(2) + bg.Render(truncate(metaStr, max(width-titleWidth-8, 0)), metaStyle)
	}
	return out
}
