package app

import (
	"fmt"

	"stocknews-client/src/api"
	"stocknews-client/src/config"
	"stocknews-client/src/dashboard"
	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/network"
	"stocknews-client/src/session"
	"stocknews-client/src/storage"
	"stocknews-client/src/utils"
)

// App holds the components every binary shares: the backend client, the
// token store and the session manager. The dashboard is opt-in.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Network interfaces.INetworkManager
	API     *api.Client
	Tokens  storage.TokenStore
	Session *session.Manager

	Archive   interfaces.ISnapshotStore
	Scheduler *utils.MarketScheduler
	Dashboard *dashboard.Controller
}

// -----------------------------------------------------------------------------

// Setup builds the client, the token store and the session manager, and
// gives the client the session as its token provider.
func Setup(cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger.NewLogger(cfg.MConfig, cfg.Name),
	}

	a.Network = network.NewAsyncNetworkManager(cfg.MConfig, logger.NewLogger(cfg.MConfig, "NetworkManager"))
	a.API = api.NewClient(cfg.APIBaseURL(), a.Network, logger.NewLogger(cfg.MConfig, "APIClient"))

	tokens, err := storage.NewTokenStore(cfg.MConfig, logger.NewLogger(cfg.MConfig, "TokenStore"))
	if err != nil {
		a.Logger.Error("Failed to open token store: %v", err)
		return nil, fmt.Errorf("token store: %w", err)
	}
	a.Tokens = tokens

	a.Session = session.NewManager(a.API, a.Tokens, logger.NewLogger(cfg.MConfig, "Session"))
	a.API.SetTokenProvider(a.Session)

	return a, nil
}

// -----------------------------------------------------------------------------

// SetupDashboard builds the rotation controller with its archive and market
// clock. It does not start it.
func (a *App) SetupDashboard() {
	archive, err := storage.NewSnapshotStore(a.Config.MConfig, logger.NewLogger(a.Config.MConfig, "SnapshotArchive"))
	if err != nil {
		// The dashboard still works from live data
		a.Logger.Warning("Snapshot archive disabled: %v", err)
	}
	a.Archive = archive

	a.Scheduler = utils.NewMarketScheduler(a.Config.Dashboard.Symbols, logger.NewLogger(a.Config.MConfig, "MarketScheduler"))
	a.Dashboard = dashboard.NewController(a.Config.MConfig, a.API, a.Archive, a.Scheduler, logger.NewLogger(a.Config.MConfig, "Dashboard"))
}

// -----------------------------------------------------------------------------

// Close stops the dashboard and session and releases storage, in that order.
func (a *App) Close() {
	if a.Dashboard != nil {
		a.Dashboard.Stop()
	}
	if a.Session != nil {
		a.Session.Close()
	}
	if a.Archive != nil {
		if err := a.Archive.Close(); err != nil {
			a.Logger.Warning("Failed to close snapshot archive: %v", err)
		}
	}
	if a.Tokens != nil {
		if err := a.Tokens.Close(); err != nil {
			a.Logger.Warning("Failed to close token store: %v", err)
		}
	}
}
