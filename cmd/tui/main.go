package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"stocknews-client/src/app"
	"stocknews-client/src/config"
	"stocknews-client/src/logger"
	"stocknews-client/src/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Log lines would tear the alt screen
	if conf.LogFile != "" {
		f, err := logger.OpenLogFile(conf.LogFile)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		logger.SetOutput(io.Discard)
	}

	a, err := app.Setup(conf)
	if err != nil {
		fmt.Printf("Error starting: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.SetupDashboard()
	model := tui.New(a.Dashboard, a.Session)
	defer model.Close()

	go a.Session.Restore(ctx)
	if err := a.Dashboard.Start(ctx); err != nil {
		fmt.Printf("Error starting dashboard: %v\n", err)
		return
	}

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
	}
}
