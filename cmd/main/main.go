package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocknews-client/src/app"
	"stocknews-client/src/config"
	"stocknews-client/src/logger"
)

const (
	shutdownTimeout     = 5 * time.Second
	maintenanceInterval = time.Hour
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if conf.LogFile != "" {
		f, err := logger.OpenLogFile(conf.LogFile)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	// 3. Setup Components
	a, err := app.Setup(conf)
	if err != nil {
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 4. Restore the persisted session before anything renders it
	state := a.Session.Restore(ctx)
	if state.User != nil {
		a.Logger.Info("Session restored for %s", state.User.Username)
	} else {
		a.Logger.Info("No active session")
	}

	// 5. Dashboard and servers
	a.SetupDashboard()
	servers := startServers(a)

	if err := a.Dashboard.Start(ctx); err != nil {
		a.Logger.Error("Failed to start dashboard: %v", err)
		servers.stop()
		return
	}

	// 6. Run until signalled
	a.Logger.Info("Running. Press Ctrl+C to stop.")
	runMaintenance(ctx, a)

	a.Logger.Info("Shutting down...")
	servers.stop()
	a.Logger.Info("Shutdown complete.")
}

// -----------------------------------------------------------------------------

// runMaintenance revalidates the session and prunes the snapshot archive
// until ctx is done.
func runMaintenance(ctx context.Context, a *app.App) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.Session.State().User != nil {
				if err := a.Session.Refresh(ctx); err != nil {
					a.Logger.Warning("Session refresh failed: %v", err)
				}
			}
			if a.Archive != nil {
				if err := a.Archive.CleanupOldData(ctx); err != nil {
					a.Logger.Warning("Snapshot cleanup failed: %v", err)
				}
			}
		}
	}
}
