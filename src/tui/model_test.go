package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stocknews-client/src/dashboard"
	"stocknews-client/src/helpers"
	"stocknews-client/src/models"
	"stocknews-client/src/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeDashboard struct {
	mu        sync.Mutex
	state     models.MDashboardState
	fetchErr  error
	fetches   int
	observers utils.Observers[models.MDashboardState]
}

func (d *fakeDashboard) State() models.MDashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *fakeDashboard) SelectView(view models.MView) error {
	if !view.Valid() {
		return helpers.NewValidationError("unknown view")
	}
	d.mu.Lock()
	d.state.Rotation = models.MRotationState{CurrentView: view, SecondsRemaining: 20}
	state := d.state
	d.mu.Unlock()
	d.observers.Notify(state)
	return nil
}

func (d *fakeDashboard) FetchData(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	return d.fetchErr
}

func (d *fakeDashboard) Subscribe(fn func(models.MDashboardState)) func() {
	return d.observers.Subscribe(fn)
}

type fakeSession struct {
	state     models.MSessionState
	observers utils.Observers[models.MSessionState]
}

func (s *fakeSession) State() models.MSessionState { return s.state }
func (s *fakeSession) Logout() {}

func (s *fakeSession) Login(ctx context.Context, username, password string) models.MLoginResult {
	return models.MLoginResult{}
}

func (s *fakeSession) Register(ctx context.Context, email, username, password string) models.MLoginResult {
	return models.MLoginResult{}
}

func (s *fakeSession) Subscribe(fn func(models.MSessionState)) func() {
	return s.observers.Subscribe(fn)
}

// --- helpers ---

func newModel(t *testing.T) (*Model, *fakeDashboard, *fakeSession) {
	t.Helper()
	dash := &fakeDashboard{}
	dash.state.Rotation = models.MRotationState{CurrentView: models.ViewStocks, SecondsRemaining: 20}
	dash.state.Snapshot = models.MPerformanceSnapshot{
		Stocks: []models.MPerformanceItem{{
			Symbol:        "AAPL",
			Name:          "Apple Inc.",
			Price:         decimal.RequireFromString("189.84"),
			ChangePercent: decimal.RequireFromString("1.25"),
		}},
		MutualFunds: dashboard.MutualFunds(),
		ETFs:        dashboard.ETFs(),
	}
	sess := &fakeSession{state: models.MSessionState{Status: models.SessionUnauthenticated}}

	m := New(dash, sess)
	t.Cleanup(m.Close)
	return m, dash, sess
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// --- keys ---

func TestNumberKeysSelectView(t *testing.T) {
	m, dash, _ := newModel(t)

	m.Update(runes("2"))
	assert.Equal(t, models.ViewMutualFunds, dash.State().Rotation.CurrentView)
	assert.Equal(t, models.ViewMutualFunds, m.dash.Rotation.CurrentView)

	m.Update(runes("3"))
	assert.Equal(t, models.ViewETFs, dash.State().Rotation.CurrentView)

	m.Update(runes("1"))
	assert.Equal(t, models.ViewStocks, dash.State().Rotation.CurrentView)
}

func TestTabCyclesViews(t *testing.T) {
	m, dash, _ := newModel(t)

	for _, want := range []models.MView{models.ViewMutualFunds, models.ViewETFs, models.ViewStocks} {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		assert.Equal(t, want, dash.State().Rotation.CurrentView)
	}
}

func TestQuitKeys(t *testing.T) {
	m, _, _ := newModel(t)

	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok)
	}
}

func TestRefreshKey(t *testing.T) {
	m, dash, _ := newModel(t)

	_, cmd := m.Update(runes("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, "Refreshing...", m.status)

	m.Update(cmd())
	assert.Equal(t, 1, dash.fetches)
	assert.Empty(t, m.status)

	dash.fetchErr = errors.New("quote AAPL: boom")
	_, cmd = m.Update(runes("r"))
	m.Update(cmd())
	assert.Equal(t, dashboard.FetchFailedMessage, m.status)

	dash.fetchErr = dashboard.ErrSuperseded
	_, cmd = m.Update(runes("r"))
	m.Update(cmd())
	assert.Empty(t, m.status)
}

// --- notifications ---

func TestNotificationsArriveAsMessages(t *testing.T) {
	m, dash, sess := newModel(t)

	require.NoError(t, dash.SelectView(models.ViewETFs))
	msg := m.waitDashboard()()
	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Equal(t, models.ViewETFs, m.dash.Rotation.CurrentView)

	sess.observers.Notify(models.MSessionState{
		Status: models.SessionAuthenticated,
		User:   &models.MUser{Username: "alice"},
	})
	m.Update(m.waitSession()())
	assert.Contains(t, m.View(), "Signed in as alice")
}

func TestLatestReplacesUnread(t *testing.T) {
	l := newLatest[int]()
	l.put(1)
	l.put(2)
	assert.Equal(t, 2, <-l.ch)
}

// --- view ---

func TestViewRendersSidebarAndNews(t *testing.T) {
	m, _, _ := newModel(t)
	m.dash.News = []models.MHeadline{{Headline: "Markets rally", Source: "Reuters"}}

	out := m.View()
	assert.Contains(t, out, "Stock Performance")
	assert.Contains(t, out, "Next view in 20s")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "189.84")
	assert.Contains(t, out, "+1.25%")
	assert.Contains(t, out, "Markets rally")
	assert.Contains(t, out, "Not signed in")
	assert.NotContains(t, out, dashboard.FetchFailedMessage)
}

func TestViewShowsErrorBanner(t *testing.T) {
	m, _, _ := newModel(t)
	m.dash.HasError = true
	m.dash.Error = dashboard.FetchFailedMessage

	assert.Contains(t, m.View(), dashboard.FetchFailedMessage)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Vanguard...", truncate("Vanguard Total Stock", 11))
}
