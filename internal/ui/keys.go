package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	ForceQuit  key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Back       key.Binding
	Refresh    key.Binding

	// Search screen
	FocusInput   key.Binding
	FocusResults key.Binding
	Filters      key.Binding
	Submit       key.Binding

	// Lists
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Open     key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	// Record screen
	OpenLabel    key.Binding
	NextVideo    key.Binding
	PrevVideo    key.Binding
	CopyVideo    key.Binding
	OpenVideo    key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Modal fields
	NextField key.Binding
	PrevField key.Binding
	Clear     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "Quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "Back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "Refresh (skip cache)"),
		),

		FocusInput: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Edit search"),
		),
		FocusResults: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Results"),
		),
		Filters: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Filters"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Search now"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next page"),
		),

		OpenLabel: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Label releases"),
		),
		NextVideo: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next video"),
		),
		PrevVideo: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous video"),
		),
		CopyVideo: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy video URL"),
		),
		OpenVideo: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Open video"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Clear"),
		),
	}
}

// ShortHelp returns key bindings for the status line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusInput, k.Submit, k.FocusResults, k.Filters},
		{k.Up, k.Down, k.Top, k.Bottom, k.Open, k.PrevPage, k.NextPage},
		{k.OpenLabel, k.NextVideo, k.PrevVideo, k.CopyVideo, k.OpenVideo, k.HalfPageDown, k.HalfPageUp},
		{k.Refresh, k.Back, k.CycleTheme, k.Help, k.Quit},
	}
}
