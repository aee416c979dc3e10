package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/luckyfind/internal/discogs"
)

// Filter fields, in modal order.
const (
	filterGenre = iota
	filterStyle
	filterCountry
	filterYear
	filterFormat
	filterFieldCount
)

var filterLabels = [filterFieldCount]string{
	filterGenre:   "Genre",
	filterStyle:   "Style",
	filterCountry: "Country",
	filterYear:    "Year",
	filterFormat:  "Format",
}

var filterPlaceholders = [filterFieldCount]string{
	filterGenre:   "Electronic",
	filterStyle:   "Deep House",
	filterCountry: "UK",
	filterYear:    "1994 or 1990-1999",
	filterFormat:  "Vinyl",
}

func (m *Model) initFilterInputs() {
	for i := range m.filterInputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = filterPlaceholders[i]
		ti.CharLimit = 64
		ti.Width = 30
		m.filterInputs[i] = ti
	}
}

// openFilters shows the filter modal seeded with the active filters.
func (m *Model) openFilters() {
	values := filterValues(m.search.filters)
	for i := range m.filterInputs {
		m.filterInputs[i].SetValue(values[i])
		m.filterInputs[i].Blur()
	}
	m.filterFocusIdx = 0
	m.filterInputs[0].Focus()
	m.search.input.Blur()
	m.showFilters = true
}

func (m *Model) closeFilters() {
	m.showFilters = false
	for i := range m.filterInputs {
		m.filterInputs[i].Blur()
	}
	if m.search.inputFocused {
		m.search.input.Focus()
	}
}

func (m Model) handleFiltersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc, key.Matches(msg, m.keys.ForceQuit):
		m.closeFilters()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.search.filters = m.filtersFromInputs()
		m.search.page = 1
		m.closeFilters()
		return m, m.issueSearch(false)

	case key.Matches(msg, m.keys.NextField):
		m.focusFilter((m.filterFocusIdx + 1) % filterFieldCount)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.focusFilter((m.filterFocusIdx + filterFieldCount - 1) % filterFieldCount)
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		for i := range m.filterInputs {
			m.filterInputs[i].SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInputs[m.filterFocusIdx], cmd = m.filterInputs[m.filterFocusIdx].Update(msg)
	return m, cmd
}

func (m *Model) focusFilter(idx int) {
	m.filterInputs[m.filterFocusIdx].Blur()
	m.filterFocusIdx = idx
	m.filterInputs[idx].Focus()
}

// filtersFromInputs reads the modal into a query holding only filter fields.
func (m Model) filtersFromInputs() discogs.SearchQuery {
	value := func(i int) string { return strings.TrimSpace(m.filterInputs[i].Value()) }
	return discogs.SearchQuery{
		Genre:   value(filterGenre),
		Style:   value(filterStyle),
		Country: value(filterCountry),
		Year:    value(filterYear),
		Format:  value(filterFormat),
	}
}

func filterValues(q discogs.SearchQuery) [filterFieldCount]string {
	return [filterFieldCount]string{
		filterGenre:   q.Genre,
		filterStyle:   q.Style,
		filterCountry: q.Country,
		filterYear:    q.Year,
		filterFormat:  q.Format,
	}
}

// filterSummary renders active filters as "Genre: Jazz, Year: 1959", or "".
func filterSummary(q discogs.SearchQuery) string {
	values := filterValues(q)
	var parts []string
	for i, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, filterLabels[i]+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}

func (m Model) renderFilters() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Search filters"))
	b.WriteString("\n\n")
	for i := range m.filterInputs {
		labelStyle := styles.MutedText
		if i == m.filterFocusIdx {
			labelStyle = styles.AccentText
		}
		b.WriteString(labelStyle.Render(padRight(filterLabels[i], 9)))
		b.WriteString(m.filterInputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter apply · tab next · ctrl+x clear · esc cancel"))
	return m.renderModal(b.String(), min(max(m.width-10, 30), 56))
}
