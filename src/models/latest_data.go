package models

import "time"

// -----------------------------------------------------------------------------
// Dashboard state as seen by observers
// -----------------------------------------------------------------------------

// MRotationState is the sidebar selector state.
type MRotationState struct {
	CurrentView      MView `json:"current_view"`
	SecondsRemaining int   `json:"seconds_remaining"`
}

// MDashboardState is the full observable state of the landing dashboard.
type MDashboardState struct {
	Rotation  MRotationState       `json:"rotation"`
	Snapshot  MPerformanceSnapshot `json:"snapshot"`
	News      []MHeadline          `json:"news"`
	Loading   bool                 `json:"loading"`
	HasError  bool                 `json:"has_error"`
	Error     string               `json:"error,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CurrentItems returns the rows for the selected category.
func (s MDashboardState) CurrentItems() []MPerformanceItem {
	return s.Snapshot.Items(s.Rotation.CurrentView)
}

// -----------------------------------------------------------------------------
// Session state as seen by observers
// -----------------------------------------------------------------------------

type MSessionStatus string

const (
	SessionUnauthenticated MSessionStatus = "unauthenticated"
	SessionLoading         MSessionStatus = "loading"
	SessionAuthenticated   MSessionStatus = "authenticated"
)

// MSessionState never carries the token itself.
type MSessionState struct {
	Status  MSessionStatus `json:"status"`
	User    *MUser         `json:"user,omitempty"`
	Loading bool           `json:"loading"`
}

// MLoginResult is returned by login and register.
type MLoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// -----------------------------------------------------------------------------
// Feed messages pushed to websocket clients
// -----------------------------------------------------------------------------

const (
	FeedTypeDashboard = "dashboard"
	FeedTypeSession   = "session"
	FeedTypeError     = "error"
)

type MFeedMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// MFeedCommand is sent by websocket clients.
type MFeedCommand struct {
	Command string `json:"command"` // select_view, refresh
	View    MView  `json:"view,omitempty"`
}

const (
	FeedCommandSelectView = "select_view"
	FeedCommandRefresh    = "refresh"
)

// MFeedError answers a command the server could not apply.
type MFeedError struct {
	Command string `json:"command,omitempty"`
	Error   string `json:"error"`
}
