package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stocknews-client/src/dashboard"
	"stocknews-client/src/helpers"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
	"stocknews-client/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
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
		return helpers.NewValidationError("unknown view \"" + string(view) + "\"")
	}
	d.mu.Lock()
	d.state.Rotation.CurrentView = view
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
	mu        sync.Mutex
	state     models.MSessionState
	observers utils.Observers[models.MSessionState]
}

func (s *fakeSession) State() models.MSessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *fakeSession) Login(ctx context.Context, username, password string) models.MLoginResult {
	if password != "secret" {
		return models.MLoginResult{Success: false, Message: "Incorrect username or password"}
	}
	s.mu.Lock()
	s.state = models.MSessionState{Status: models.SessionAuthenticated, User: &models.MUser{Username: username}}
	state := s.state
	s.mu.Unlock()
	s.observers.Notify(state)
	return models.MLoginResult{Success: true}
}

func (s *fakeSession) Register(ctx context.Context, email, username, password string) models.MLoginResult {
	if email == "" {
		return models.MLoginResult{Success: false, Message: "Email is required"}
	}
	return s.Login(ctx, username, password)
}

func (s *fakeSession) Logout() {
	s.mu.Lock()
	s.state = models.MSessionState{Status: models.SessionUnauthenticated}
	state := s.state
	s.mu.Unlock()
	s.observers.Notify(state)
}

func (s *fakeSession) Subscribe(fn func(models.MSessionState)) func() {
	return s.observers.Subscribe(fn)
}

// --- helpers ---

func newTestServer(t *testing.T) (*FeedServer, *fakeDashboard, *fakeSession) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &models.MConfig{
		Host: "127.0.0.1",
		Port: 8090,
		Dashboard: models.MDashboardConfig{
			Symbols:                []string{"AAPL", "MSFT"},
			RotationSeconds:        20,
			RefreshIntervalSeconds: 60,
		},
	}
	dash := &fakeDashboard{}
	dash.state.Rotation = models.MRotationState{CurrentView: models.ViewStocks, SecondsRemaining: 20}
	sess := &fakeSession{state: models.MSessionState{Status: models.SessionUnauthenticated}}

	s := NewFeedServer(cfg, dash, sess, logger.NewLogger(nil, "server-test"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s, dash, sess
}

func do(s *FeedServer, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

// --- REST ---

func TestHealthReportsDegradedDashboard(t *testing.T) {
	s, dash, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	dash.mu.Lock()
	dash.state.HasError = true
	dash.mu.Unlock()

	w = do(s, http.MethodGet, "/api/health", "")
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestConfigListsSymbolsAndViews(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Symbols []string       `json:"symbols"`
		Views   []models.MView `json:"views"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"AAPL", "MSFT"}, body.Symbols)
	assert.Equal(t, models.Views, body.Views)
}

func TestSelectView(t *testing.T) {
	s, dash, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/api/dashboard/view", `{"view":"etfs"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ViewETFs, dash.State().Rotation.CurrentView)

	w = do(s, http.MethodPost, "/api/dashboard/view", `{"view":"bonds"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown view")

	w = do(s, http.MethodPost, "/api/dashboard/view", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshMapsControllerErrors(t *testing.T) {
	s, dash, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/api/dashboard/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)

	dash.fetchErr = dashboard.ErrStopped
	w = do(s, http.MethodPost, "/api/dashboard/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	dash.fetchErr = dashboard.ErrSuperseded
	w = do(s, http.MethodPost, "/api/dashboard/refresh", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, 3, dash.fetches)
}

func TestLoginAndLogout(t *testing.T) {
	s, _, sess := newTestServer(t)

	w := do(s, http.MethodPost, "/api/session/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect username or password")
	assert.Equal(t, models.SessionUnauthenticated, sess.State().Status)

	w = do(s, http.MethodPost, "/api/session/login", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.NotContains(t, w.Body.String(), "token")

	w = do(s, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SessionUnauthenticated, sess.State().Status)
}

func TestRegisterFailure(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/api/session/register", `{"username":"bob","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email is required")
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://127.0.0.1:5173")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://127.0.0.1:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

// --- websocket feed ---

func readFeed(t *testing.T, conn *websocket.Conn) models.MFeedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg models.MFeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketReplaysStateAndPushesChanges(t *testing.T) {
	s, dash, sess := newTestServer(t)
	s.StartHub()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, models.FeedTypeDashboard, readFeed(t, conn).Type)
	assert.Equal(t, models.FeedTypeSession, readFeed(t, conn).Type)

	require.NoError(t, dash.SelectView(models.ViewMutualFunds))
	msg := readFeed(t, conn)
	assert.Equal(t, models.FeedTypeDashboard, msg.Type)
	payload, _ := json.Marshal(msg.Payload)
	assert.Contains(t, string(payload), `"current_view":"mutualFunds"`)

	sess.Login(context.Background(), "alice", "secret")
	msg = readFeed(t, conn)
	assert.Equal(t, models.FeedTypeSession, msg.Type)
	payload, _ = json.Marshal(msg.Payload)
	assert.Contains(t, string(payload), `"authenticated"`)
}

func TestWebSocketSelectViewCommand(t *testing.T) {
	s, dash, _ := newTestServer(t)
	s.StartHub()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	readFeed(t, conn)
	readFeed(t, conn)

	require.NoError(t, conn.WriteJSON(models.MFeedCommand{Command: models.FeedCommandSelectView, View: models.ViewETFs}))
	msg := readFeed(t, conn)
	assert.Equal(t, models.FeedTypeDashboard, msg.Type)
	assert.Equal(t, models.ViewETFs, dash.State().Rotation.CurrentView)
}

func dialFeed(t *testing.T, s *FeedServer) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	readFeed(t, conn)
	readFeed(t, conn)
	return conn
}

func errorPayload(t *testing.T, msg models.MFeedMessage) models.MFeedError {
	t.Helper()
	require.Equal(t, models.FeedTypeError, msg.Type)
	raw, err := json.Marshal(msg.Payload)
	require.NoError(t, err)
	var out models.MFeedError
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestWebSocketRejectsUnknownCommand(t *testing.T) {
	s, dash, _ := newTestServer(t)
	s.StartHub()
	conn := dialFeed(t, s)

	require.NoError(t, conn.WriteJSON(models.MFeedCommand{Command: "subscribe_all"}))
	reply := errorPayload(t, readFeed(t, conn))
	assert.Equal(t, "subscribe_all", reply.Command)
	assert.Contains(t, reply.Error, `unknown command "subscribe_all"`)

	// connection is still usable
	require.NoError(t, conn.WriteJSON(models.MFeedCommand{Command: models.FeedCommandSelectView, View: models.ViewETFs}))
	assert.Equal(t, models.FeedTypeDashboard, readFeed(t, conn).Type)
	assert.Equal(t, models.ViewETFs, dash.State().Rotation.CurrentView)
}

func TestWebSocketRejectsUnknownView(t *testing.T) {
	s, dash, _ := newTestServer(t)
	s.StartHub()
	conn := dialFeed(t, s)

	require.NoError(t, conn.WriteJSON(models.MFeedCommand{Command: models.FeedCommandSelectView, View: "bonds"}))
	reply := errorPayload(t, readFeed(t, conn))
	assert.Equal(t, models.FeedCommandSelectView, reply.Command)
	assert.Contains(t, reply.Error, "unknown view")
	assert.Equal(t, models.ViewStocks, dash.State().Rotation.CurrentView)
}

func TestWebSocketRejectsMalformedFrames(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.StartHub()
	conn := dialFeed(t, s)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Contains(t, errorPayload(t, readFeed(t, conn)).Error, "not valid JSON")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"view":"etfs"}`)))
	assert.Contains(t, errorPayload(t, readFeed(t, conn)).Error, "command is required")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(`{"command":"refresh"}`)))
	assert.Contains(t, errorPayload(t, readFeed(t, conn)).Error, "text frames")
}

func TestWebSocketClosesOnOversizedFrame(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.StartHub()
	conn := dialFeed(t, s)

	big := `{"command":"select_view","view":"` + strings.Repeat("x", maxCommandSize) + `"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should close, not idle")
	}

	assert.Eventually(t, func() bool {
		s.stateMutex.RLock()
		defer s.stateMutex.RUnlock()
		return s.connections == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopDetachesObservers(t *testing.T) {
	s, dash, sess := newTestServer(t)
	s.StartHub()
	assert.Equal(t, 1, dash.observers.Len())
	assert.Equal(t, 1, sess.observers.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	assert.Equal(t, 0, dash.observers.Len())
	assert.Equal(t, 0, sess.observers.Len())

	// Broadcast after Stop must not block
	s.Broadcast(feedMessage(models.FeedTypeDashboard, dash.State()))
}
