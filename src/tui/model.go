package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	"stocknews-client/src/dashboard"
	"stocknews-client/src/helpers"
	"stocknews-client/src/interfaces"
	"stocknews-client/src/models"

	tea "github.com/charmbracelet/bubbletea"
)

const refreshTimeout = 30 * time.Second

// -----------------------------------------------------------------------------
// Messages
// -----------------------------------------------------------------------------

type dashboardMsg models.MDashboardState
type sessionMsg models.MSessionState
type refreshDoneMsg struct{ err error }

// latest is a one-slot mailbox where a newer value replaces an unread one.
type latest[T any] struct {
	mu sync.Mutex
	ch chan T
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{ch: make(chan T, 1)}
}

func (l *latest[T]) put(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// -----------------------------------------------------------------------------
// Model
// -----------------------------------------------------------------------------

// Model renders the landing dashboard and the session line. Controller and
// session notifications arrive as messages; keys call back into them.
type Model struct {
	Dashboard interfaces.IDashboard
	Session   interfaces.ISession

	dash   models.MDashboardState
	sess   models.MSessionState
	status string
	width  int
	height int

	dashUpdates *latest[models.MDashboardState]
	sessUpdates *latest[models.MSessionState]
	unsubs      []func()
}

// -----------------------------------------------------------------------------

func New(dash interfaces.IDashboard, sess interfaces.ISession) *Model {
	m := &Model{
		Dashboard:   dash,
		Session:     sess,
		dash:        dash.State(),
		sess:        sess.State(),
		dashUpdates: newLatest[models.MDashboardState](),
		sessUpdates: newLatest[models.MSessionState](),
	}
	m.unsubs = append(m.unsubs,
		dash.Subscribe(m.dashUpdates.put),
		sess.Subscribe(m.sessUpdates.put),
	)
	return m
}

// Close detaches from the dashboard and session.
func (m *Model) Close() {
	for _, unsubscribe := range m.unsubs {
		unsubscribe()
	}
	m.unsubs = nil
}

// -----------------------------------------------------------------------------

func (m *Model) waitDashboard() tea.Cmd {
	return func() tea.Msg {
		return dashboardMsg(<-m.dashUpdates.ch)
	}
}

func (m *Model) waitSession() tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(<-m.sessUpdates.ch)
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		return refreshDoneMsg{err: m.Dashboard.FetchData(ctx)}
	}
}

// -----------------------------------------------------------------------------
// tea.Model
// -----------------------------------------------------------------------------

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitDashboard(), m.waitSession())
}

// -----------------------------------------------------------------------------

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case dashboardMsg:
		m.dash = models.MDashboardState(msg)
		return m, m.waitDashboard()

	case sessionMsg:
		m.sess = models.MSessionState(msg)
		return m, m.waitSession()

	case refreshDoneMsg:
		switch {
		case msg.err == nil, errors.Is(msg.err, dashboard.ErrSuperseded):
			m.status = ""
		case errors.Is(msg.err, dashboard.ErrStopped):
			m.status = "Dashboard stopped"
		default:
			m.status = helpers.UserMessage(msg.err, dashboard.FetchFailedMessage)
		}
		m.dash = m.Dashboard.State()
	}

	return m, nil
}

// -----------------------------------------------------------------------------

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "1", "2", "3":
		m.selectView(models.Views[msg.String()[0]-'1'])

	case "tab":
		m.selectView(m.dash.Rotation.CurrentView.Next())

	case "r":
		m.status = "Refreshing..."
		return m, m.refresh()
	}
	return m, nil
}

func (m *Model) selectView(view models.MView) {
	if err := m.Dashboard.SelectView(view); err != nil {
		m.status = helpers.UserMessage(err, "Could not switch view")
		return
	}
	m.status = ""
	m.dash = m.Dashboard.State()
}
