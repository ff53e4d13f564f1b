package interfaces

import (
	"context"

	"stocknews-client/src/models"
)

// -----------------------------------------------------------------------------
// IDataExchanger pushes state to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// Broadcast pushes a message to every connected listener.
	Broadcast(msg *models.MFeedMessage)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// IDashboard is the rotation controller as seen by views.
// -----------------------------------------------------------------------------

type IDashboard interface {
	State() models.MDashboardState
	SelectView(view models.MView) error
	FetchData(ctx context.Context) error
	Subscribe(fn func(models.MDashboardState)) (unsubscribe func())
}

// -----------------------------------------------------------------------------
// ISession is the session manager as seen by views.
// -----------------------------------------------------------------------------

type ISession interface {
	State() models.MSessionState
	Login(ctx context.Context, username, password string) models.MLoginResult
	Register(ctx context.Context, email, username, password string) models.MLoginResult
	Logout()
	Subscribe(fn func(models.MSessionState)) (unsubscribe func())
}
