package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"stocknews-client/src/app"
	"stocknews-client/src/config"
	"stocknews-client/src/helpers"
	"stocknews-client/src/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// -----------------------------------------------------------------------------

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stocknews", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config/default.yaml", "path to config file")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Keep stdout clean for command output
	if conf.LogFile != "" {
		f, err := logger.OpenLogFile(conf.LogFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
	} else if logger.ParseLevel(conf.LogLevel) > logger.LevelDebug {
		logger.SetOutput(io.Discard)
	} else {
		logger.SetOutput(stderr)
	}

	a, err := app.Setup(conf)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cmd.restore {
		a.Session.Restore(ctx)
	}

	if err := cmd.run(ctx, a, stdout, fs.Args()[1:]); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", helpers.UserMessage(err, err.Error()))
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: stocknews [-config path] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].usage)
	}

	fmt.Fprintln(w)
	fs.PrintDefaults()
}

// requireUser fails unless a session was restored or just created.
func requireUser(a *app.App) error {
	if a.Session.State().User == nil {
		return helpers.NewValidationError("login required")
	}
	return nil
}
