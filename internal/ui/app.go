package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/five82/luckyfind/internal/catalog"
	"github.com/five82/luckyfind/internal/navigation"
	"github.com/five82/luckyfind/internal/prefs"
	"github.com/five82/luckyfind/internal/requests"
	"github.com/five82/luckyfind/internal/state"
)

// Options configures the UI.
type Options struct {
	Context       context.Context
	Catalog       *catalog.Service
	Guard         *navigation.Guard
	Health        *state.Store
	UITick        time.Duration // header refresh cadence; zero uses one second
	ThemeName     string
	PrefsPath     string
	InitialQuery  string
	Authenticated bool

	// CopyToClipboard and OpenURL default to the system clipboard and the
	// platform URL opener.
	CopyToClipboard func(string) error
	OpenURL         func(string) error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx           context.Context
	catalog       *catalog.Service
	guard         *navigation.Guard
	health        *state.Store
	prefsPath     string
	uiTick        time.Duration
	authenticated bool
	copyURL       func(string) error
	openURL       func(string) error

	// Components
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	printer *message.Printer

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool

	// Header data
	snapshot state.Snapshot
	stats    requests.Stats

	// Screens: search is always at the bottom, detail screens stack on top.
	search searchState
	stack  []frame

	// Help overlay
	showHelp bool

	// Search filters modal
	showFilters    bool
	filterInputs   [filterFieldCount]textinput.Model
	filterFocusIdx int

	// Transient status line message
	status      string
	statusError bool
	statusSeq   int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	uiTick := opts.UITick
	if uiTick <= 0 {
		uiTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	guard := opts.Guard
	if guard == nil {
		guard = navigation.New(navigation.Config{})
	}

	copyURL := opts.CopyToClipboard
	if copyURL == nil {
		copyURL = copyToClipboard
	}
	openURL := opts.OpenURL
	if openURL == nil {
		openURL = openInBrowser
	}

	m := Model{
		ctx:           ctx,
		catalog:       opts.Catalog,
		guard:         guard,
		health:        opts.Health,
		prefsPath:     prefsPath,
		uiTick:        uiTick,
		authenticated: opts.Authenticated,
		copyURL:       copyURL,
		openURL:       openURL,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		printer:       message.NewPrinter(language.English),
		theme:         GetTheme(themeName),
		search:        newSearchState(opts.InitialQuery),
	}
	m.initFilterInputs()
	m.applyThemeToComponents()
	guard.SetCurrentScreen(navigation.ScreenSearch, "", nil)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.uiTick),
		m.spinner.Tick,
		textinput.Blink,
	}
	if m.health != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.health, m.catalog))
	}
	if !m.currentQuery().IsEmpty() {
		cmds = append(cmds, func() tea.Msg { return debounceMsg{seq: 0} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.health != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.health, m.catalog))
		}
		cmds = append(cmds, tickCmd(m.uiTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.stats = msg.stats
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case debounceMsg:
		return m, m.handleDebounce(msg)

	case searchResultMsg:
		m.handleSearchResult(msg)
		return m, nil

	case recordLoadedMsg:
		m.handleRecordLoaded(msg)
		return m, nil

	case labelLoadedMsg:
		m.handleLabelLoaded(msg)
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusError = false
		}
		return m, nil
	}

	// Forward anything else (cursor blink) to the focused input.
	if m.showFilters {
		var cmd tea.Cmd
		m.filterInputs[m.filterFocusIdx], cmd = m.filterInputs[m.filterFocusIdx].Update(msg)
		return m, cmd
	}
	if len(m.stack) == 0 && m.search.inputFocused {
		var cmd tea.Cmd
		m.search.input, cmd = m.search.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showFilters {
		return m.renderFilters()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) && !m.showFilters {
		return m, m.quit()
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.showFilters {
		return m.handleFiltersKey(msg)
	}

	// The search box swallows printable keys while it has focus.
	if len(m.stack) == 0 && m.search.inputFocused {
		return m.handleSearchInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyThemeToComponents()
		m.refreshRecordViewport()
		m.savePrefs()
		return m, nil
	}

	top := m.top()
	if top == nil {
		return m.handleResultsKey(msg)
	}
	switch top.screen {
	case navigation.ScreenRecordDetail:
		return m.handleRecordKey(msg)
	case navigation.ScreenLabelReleases:
		return m.handleLabelKey(msg)
	}
	return m, nil
}

// quit aborts every in-flight request and persists preferences.
func (m *Model) quit() tea.Cmd {
	if m.catalog != nil {
		m.catalog.CancelAll()
	}
	m.savePrefs()
	return tea.Quit
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, LastQuery: strings.TrimSpace(m.search.input.Value())}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		log.Printf("save prefs: %v", err)
	}
}

// applyThemeToComponents restyles the bubbles components after a theme change.
func (m *Model) applyThemeToComponents() {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.spinner.Style = styles.AccentText
	m.search.input.PromptStyle = m.theme.Styles().AccentText
	m.search.input.TextStyle = m.theme.Styles().Text
	m.search.input.PlaceholderStyle = m.theme.Styles().FaintText
}

// resize propagates the terminal size to sized components.
func (m *Model) resize() {
	m.search.input.Width = max(m.width-12, 10)
	m.help.Width = m.width
	for i := range m.stack {
		m.sizeViewport(&m.stack[i])
	}
	m.refreshRecordViewport()
}

// setStatus shows a transient message on the status line.
func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusError = isError
	seq := m.statusSeq
	return tea.Tick(StatusMessageTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	return b.String()
}

// contentHeight is the space left under the header, command bar, and status line.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

// renderContent renders the active screen.
func (m Model) renderContent() string {
	top := m.top()
	if top == nil {
		return m.renderSearch()
	}
	switch top.screen {
	case navigation.ScreenRecordDetail:
		return m.renderRecord(top)
	case navigation.ScreenLabelReleases:
		return m.renderLabel(top)
	}
	return ""
}

func idString(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot state.Snapshot
	stats    requests.Stats
}

type clearStatusMsg struct{ seq int }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store, svc *catalog.Service) tea.Cmd {
	return func() tea.Msg {
		msg := snapshotMsg{snapshot: store.Snapshot()}
		if svc != nil {
			msg.stats = svc.Stats()
		}
		return msg
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	if opts.Catalog == nil {
		return fmt.Errorf("ui: catalog is nil")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
