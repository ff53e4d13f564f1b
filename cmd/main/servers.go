package main

import (
	"context"

	"stocknews-client/src/app"
	"stocknews-client/src/grpc_control"
	"stocknews-client/src/logger"
	"stocknews-client/src/server"
)

// runningServers are the daemon's network surfaces.
type runningServers struct {
	feed   *server.FeedServer
	health *grpc_control.HealthReporter
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

// startServers starts the feed server and the gRPC health service. Both
// subscribe before the dashboard starts so no update is missed.
func startServers(a *app.App) *runningServers {
	cfg := a.Config.MConfig

	// 1. Feed server (REST + websocket)
	feed := server.NewFeedServer(cfg, a.Dashboard, a.Session, logger.NewLogger(cfg, "FeedServer"))
	feed.StartHub()
	go func() {
		if err := feed.Start(); err != nil {
			a.Logger.Error("Feed server failed: %v", err)
		}
	}()

	// 2. gRPC health
	health := grpc_control.NewHealthReporter(cfg, logger.NewLogger(cfg, "Health"))
	health.Watch(a.Dashboard)
	go func() {
		if err := health.Start(); err != nil {
			a.Logger.Error("gRPC health server failed: %v", err)
		}
	}()

	return &runningServers{feed: feed, health: health, logger: a.Logger}
}

// -----------------------------------------------------------------------------

func (s *runningServers) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.feed.Stop(ctx); err != nil {
		s.logger.Warning("Feed server shutdown: %v", err)
	}
	s.health.Stop()
}
