package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/luckyfind/internal/catalog"
	"github.com/five82/luckyfind/internal/discogs"
	"github.com/five82/luckyfind/internal/navigation"
	"github.com/five82/luckyfind/internal/requests"
)

// searchState holds the search screen: the query box, the active filters,
// and the results last shown.
type searchState struct {
	input        textinput.Model
	inputFocused bool

	filters discogs.SearchQuery // filter fields only; Query and Page live elsewhere
	page    int

	debounceSeq int

	issued    discogs.SearchQuery // last query sent
	hasIssued bool
	loading   bool

	results  *discogs.SearchPage
	shown    discogs.SearchQuery // query that produced results
	selected int
	err      error
}

func newSearchState(initial string) searchState {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "Search releases (artist, title, catalog number)..."
	ti.CharLimit = 200
	ti.SetValue(strings.TrimSpace(initial))
	ti.Focus()
	return searchState{input: ti, inputFocused: true, page: 1}
}

type debounceMsg struct{ seq int }

type searchResultMsg struct {
	query discogs.SearchQuery
	page  discogs.SearchPage
	err   error
}

func searchCmd(ctx context.Context, svc *catalog.Service, q discogs.SearchQuery, force bool) tea.Cmd {
	return func() tea.Msg {
		page, err := svc.Search(ctx, q, force)
		return searchResultMsg{query: q, page: page, err: err}
	}
}

// currentQuery builds the query the search box and filters describe.
func (m Model) currentQuery() discogs.SearchQuery {
	q := m.search.filters
	q.Query = strings.TrimSpace(m.search.input.Value())
	q.Page = max(m.search.page, 1)
	return q
}

// issueSearch sends the current query. Any other search still in flight is
// cancelled first. An empty query clears the results instead.
func (m *Model) issueSearch(force bool) tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	q := m.currentQuery()
	if m.search.hasIssued && m.search.loading && m.search.issued != q {
		m.catalog.CancelSearch(m.search.issued)
	}
	if q.IsEmpty() {
		m.search.hasIssued = false
		m.search.loading = false
		m.search.results = nil
		m.search.err = nil
		m.search.selected = 0
		return nil
	}
	m.search.issued = q
	m.search.hasIssued = true
	m.search.loading = true
	m.search.err = nil
	return searchCmd(m.ctx, m.catalog, q, force)
}

// scheduleDebounce restarts the debounce timer for the search box.
func (m *Model) scheduleDebounce() tea.Cmd {
	m.search.debounceSeq++
	seq := m.search.debounceSeq
	return tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

func (m *Model) handleDebounce(msg debounceMsg) tea.Cmd {
	if msg.seq != m.search.debounceSeq {
		return nil
	}
	if m.search.hasIssued && m.currentQuery() == m.search.issued {
		return nil
	}
	return m.issueSearch(false)
}

func (m *Model) handleSearchResult(msg searchResultMsg) {
	if !m.search.hasIssued || msg.query != m.search.issued {
		return
	}
	m.search.loading = false
	if msg.err != nil {
		if requests.IsAborted(msg.err) {
			return
		}
		m.search.err = msg.err
		return
	}
	page := msg.page
	if m.search.results == nil || msg.query != m.search.shown {
		m.search.selected = 0
	}
	m.search.results = &page
	m.search.shown = msg.query
	m.search.err = nil
	m.search.selected = clampIndex(m.search.selected, len(page.Results))
}

// handleSearchInputKey handles keys while the search box has focus.
func (m Model) handleSearchInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		// Enter bypasses the debounce. Repeats are deduplicated downstream.
		m.search.debounceSeq++
		m.search.page = 1
		return m, m.issueSearch(false)

	case key.Matches(msg, m.keys.FocusResults):
		if m.search.results != nil && len(m.search.results.Results) > 0 {
			m.search.inputFocused = false
			m.search.input.Blur()
		}
		return m, nil

	case msg.Type == tea.KeyEsc:
		if m.search.input.Value() != "" {
			m.search.input.SetValue("")
			m.search.page = 1
			return m, m.scheduleDebounce()
		}
		return m, nil

	case msg.Type == tea.KeyCtrlF:
		m.openFilters()
		return m, nil
	}

	before := m.search.input.Value()
	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	if m.search.input.Value() == before {
		return m, cmd
	}
	m.search.page = 1
	return m, tea.Batch(cmd, m.scheduleDebounce())
}

// handleResultsKey handles keys while the results list has focus.
func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var results []discogs.SearchResult
	if m.search.results != nil {
		results = m.search.results.Results
	}

	switch {
	case key.Matches(msg, m.keys.FocusInput), msg.Type == tea.KeyTab, msg.Type == tea.KeyShiftTab:
		m.search.inputFocused = true
		return m, m.search.input.Focus()

	case key.Matches(msg, m.keys.Back):
		m.search.inputFocused = true
		return m, m.search.input.Focus()

	case key.Matches(msg, m.keys.Filters):
		m.openFilters()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.issueSearch(true)

	case key.Matches(msg, m.keys.Down):
		if m.search.selected < len(results)-1 {
			m.search.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.search.selected > 0 {
			m.search.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.search.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.search.selected = max(len(results)-1, 0)

	case key.Matches(msg, m.keys.NextPage):
		if m.search.results != nil && m.search.results.Pagination.HasNext() {
			m.search.page = m.search.shown.Page + 1
			m.search.selected = 0
			return m, m.issueSearch(false)
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.search.results != nil && m.search.results.Pagination.HasPrev() {
			m.search.page = m.search.shown.Page - 1
			m.search.selected = 0
			return m, m.issueSearch(false)
		}

	case key.Matches(msg, m.keys.Open):
		if m.search.selected < len(results) {
			r := results[m.search.selected]
			return m, m.openSearchResult(r)
		}
	}
	return m, nil
}

// openSearchResult pushes the record or label screen for a search hit.
// Results are not cross-references, so this is plain navigation rather than a
// guarded one.
func (m *Model) openSearchResult(r discogs.SearchResult) tea.Cmd {
	if r.ID <= 0 {
		return nil
	}
	switch r.Type {
	case "", "release":
		m.guard.SetCurrentScreen(navigation.ScreenRecordDetail, idString(r.ID), navigation.Metadata{"title": r.Title})
		return m.pushRecord(r.ID, r.Title)
	case "label":
		m.guard.SetCurrentScreen(navigation.ScreenLabelReleases, idString(r.ID), navigation.Metadata{"name": r.Title})
		return m.pushLabel(r.ID, r.Title)
	default:
		return m.setStatus(fmt.Sprintf("%s results cannot be opened", titleCase(r.Type)), false)
	}
}

// renderSearch renders the search box and the results list.
func (m Model) renderSearch() string {
	height := m.contentHeight()
	inputBox := m.renderTitledBox(m.searchBoxTitle(), m.renderSearchInput(), m.width, 3, m.search.inputFocused)
	listHeight := max(height-3, 3)
	listBox := m.renderTitledBox(m.resultsTitle(), m.renderResults(m.width-2, listHeight-2), m.width, listHeight, !m.search.inputFocused)
	return inputBox + "\n" + listBox
}

func (m Model) searchBoxTitle() string {
	if summary := filterSummary(m.search.filters); summary != "" {
		return "Search · " + summary
	}
	return "Search"
}

func (m Model) renderSearchInput() string {
	line := m.search.input.View()
	if m.search.loading {
		line += " " + m.spinner.View()
	}
	return line
}

func (m Model) resultsTitle() string {
	if m.search.results == nil {
		return "Results"
	}
	p := m.search.results.Pagination
	title := "Results · " + formatCount(m.printer, p.Items, "release", "releases")
	if p.Pages > 1 {
		title += m.printer.Sprintf(" · page %d/%d", p.Page, p.Pages)
	}
	if !m.search.loading && m.catalog != nil && m.catalog.SearchCached(m.search.shown) {
		title += " · cached"
	}
	return title
}

// renderResults renders the visible window of the results list.
func (m Model) renderResults(width, height int) string {
	styles := m.theme.Styles()
	bgColor := m.theme.SurfaceAlt
	if !m.search.inputFocused {
		bgColor = m.theme.FocusBg
	}

	switch {
	case m.search.err != nil:
		return styles.DangerText.Render(truncate(describeError(m.search.err), width))
	case m.search.results == nil && m.search.loading:
		return styles.MutedText.Render("Searching...")
	case m.search.results == nil:
		if !m.authenticated {
			return styles.WarningText.Render("No Discogs token configured. Set LUCKYFIND_DISCOGS_TOKEN to search.")
		}
		return styles.MutedText.Render("Type to search Discogs.")
	case len(m.search.results.Results) == 0:
		return styles.MutedText.Render("No releases found.")
	}

	results := m.search.results.Results
	start, end := listWindow(m.search.selected, len(results), height)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected := i == m.search.selected && !m.search.inputFocused
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		row := m.formatResultRow(results[i], width, rowBg, selected)
		lines = append(lines, lipgloss.NewStyle().Background(lipgloss.Color(rowBg)).Width(width).Render(row))
	}
	return strings.Join(lines, "\n")
}

// formatResultRow formats a search hit: "Year  Artist - Title · Country · Format · Label".
func (m Model) formatResultRow(r discogs.SearchResult, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	yearStyle, titleStyle, metaStyle := styles.MutedText, styles.Text, styles.FaintText
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		yearStyle, titleStyle, metaStyle = sel, sel.Bold(true), sel
	}

	year := r.Year
	if year == "" {
		year = "----"
	}
	var meta []string
	if r.Country != "" {
		meta = append(meta, r.Country)
	}
	if len(r.Format) > 0 {
		meta = append(meta, strings.Join(r.Format, ", "))
	}
	if len(r.Label) > 0 {
		meta = append(meta, r.Label[0])
	}
	metaStr := strings.Join(meta, " · ")

	titleWidth := width - 6
	if metaStr != "" && width >= LayoutCompactWidth {
		titleWidth = width * 55 / 100
	}
	out := bg.Render(padRight(year, 4), yearStyle) + bg.Spaces(2) +
		bg.Render(padRight(truncate(r.Title, titleWidth), titleWidth), titleStyle)
	if metaStr != "" && width >= LayoutCompactWidth {
		out += bg.Spaces(2) + bg.Render(truncate(metaStr, max(width-titleWidth-8, 0)), metaStyle)
	}
	return out
}

// listWindow returns the [start, end) slice of a list of n rows that keeps
// selected visible in height rows.
func listWindow(selected, n, height int) (int, int) {
	if height <= 0 || n == 0 {
		return 0, 0
	}
	if n <= height {
		return 0, n
	}
	start := selected - height/2
	start = max(start, 0)
	start = min(start, n-height)
	return start, start + height
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
