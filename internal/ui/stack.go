package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/luckyfind/internal/catalog"
	"github.com/five82/luckyfind/internal/discogs"
	"github.com/five82/luckyfind/internal/navigation"
	"github.com/five82/luckyfind/internal/requests"
)

// frame is one detail screen on the navigation stack.
type frame struct {
	screen  navigation.Screen
	id      int64 // release ID or label ID
	title   string
	loading bool
	err     error

	// ScreenRecordDetail
	detail   *catalog.Detail
	video    int
	viewport viewport.Model

	// ScreenLabelReleases
	page     int
	list     *discogs.LabelReleasesPage
	selected int
}

// labelID returns the primary label of a loaded record frame, or 0.
func (f *frame) labelID() int64 {
	if f.detail == nil {
		return 0
	}
	ref, ok := f.detail.Release.PrimaryLabel()
	if !ok {
		return 0
	}
	return ref.ID
}

type recordLoadedMsg struct {
	id     int64
	detail catalog.Detail
	err    error
}

type labelLoadedMsg struct {
	id   int64
	page int
	list discogs.LabelReleasesPage
	err  error
}

func loadRecordCmd(ctx context.Context, svc *catalog.Service, id int64, force bool) tea.Cmd {
	return func() tea.Msg {
		detail, err := svc.RecordDetail(ctx, id, force)
		return recordLoadedMsg{id: id, detail: detail, err: err}
	}
}

func loadLabelCmd(ctx context.Context, svc *catalog.Service, id int64, page int, force bool) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.LabelReleases(ctx, id, page, force)
		return labelLoadedMsg{id: id, page: page, list: list, err: err}
	}
}

// top returns the visible detail frame, or nil on the search screen.
func (m *Model) top() *frame {
	if len(m.stack) == 0 {
		return nil
	}
	return &m.stack[len(m.stack)-1]
}

func (m *Model) pushRecord(id int64, title string) tea.Cmd {
	f := frame{
		screen:   navigation.ScreenRecordDetail,
		id:       id,
		title:    title,
		loading:  true,
		viewport: viewport.New(0, 0),
	}
	m.sizeViewport(&f)
	m.stack = append(m.stack, f)
	m.refreshRecordViewport()
	if m.catalog == nil {
		return nil
	}
	return loadRecordCmd(m.ctx, m.catalog, id, false)
}

func (m *Model) pushLabel(id int64, name string) tea.Cmd {
	m.stack = append(m.stack, frame{
		screen:  navigation.ScreenLabelReleases,
		id:      id,
		title:   name,
		loading: true,
		page:    1,
	})
	if m.catalog == nil {
		return nil
	}
	return loadLabelCmd(m.ctx, m.catalog, id, 1, false)
}

// pop leaves the visible detail screen and cancels whatever it was loading.
// Returning to the search screen starts a fresh navigation history.
func (m *Model) pop() {
	f := m.top()
	if f == nil {
		return
	}
	if f.loading && m.catalog != nil {
		switch f.screen {
		case navigation.ScreenRecordDetail:
			m.catalog.CancelRecordDetail(f.id, f.labelID())
		case navigation.ScreenLabelReleases:
			m.catalog.CancelLabelReleases(f.id, f.page)
		}
	}
	m.stack = m.stack[:len(m.stack)-1]

	next := m.top()
	if next == nil {
		m.guard.Reset()
		m.guard.SetCurrentScreen(navigation.ScreenSearch, "", nil)
		return
	}
	m.guard.SetCurrentScreen(next.screen, idString(next.id), nil)
	m.refreshRecordViewport()
}

// findFrame returns the frame waiting on a response, or nil when the user
// has already left it.
func (m *Model) findFrame(screen navigation.Screen, id int64) *frame {
	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].screen == screen && m.stack[i].id == id {
			return &m.stack[i]
		}
	}
	return nil
}

func (m *Model) handleRecordLoaded(msg recordLoadedMsg) {
	f := m.findFrame(navigation.ScreenRecordDetail, msg.id)
	if f == nil || !f.loading {
		return
	}
	f.loading = false
	if msg.err != nil {
		if !requests.IsAborted(msg.err) {
			f.err = msg.err
		}
		m.refreshRecordViewport()
		return
	}
	detail := msg.detail
	f.detail = &detail
	f.err = nil
	if detail.Release.Title != "" {
		f.title = detail.Release.Title
	}
	f.video = clampIndex(f.video, len(detail.Release.Videos))
	m.refreshRecordViewport()
}

func (m *Model) handleLabelLoaded(msg labelLoadedMsg) {
	f := m.findFrame(navigation.ScreenLabelReleases, msg.id)
	if f == nil || !f.loading || f.page != msg.page {
		return
	}
	f.loading = false
	if msg.err != nil {
		if !requests.IsAborted(msg.err) {
			f.err = msg.err
		}
		return
	}
	list := msg.list
	f.list = &list
	f.err = nil
	f.selected = clampIndex(f.selected, len(list.Releases))
}
