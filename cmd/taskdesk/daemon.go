package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskdesk/taskdesk/internal/apppath"
	"github.com/taskdesk/taskdesk/internal/config"
	"github.com/taskdesk/taskdesk/internal/daemon"
	"github.com/taskdesk/taskdesk/internal/sched"
	"github.com/taskdesk/taskdesk/internal/x11"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/taskdesk/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the taskdesk daemon in the foreground.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	statePath := cfg.StateFile
	if statePath == "" {
		statePath, err = apppath.StateFilePath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	socketPath, err := apppath.SocketPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	conn, err := x11.NewConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to display: %v\n", err)
		return 1
	}
	defer conn.Close()

	topology, err := conn.WatchTopology(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to watch display topology: %v\n", err)
		return 1
	}

	// Translate raw window IDs into role names here so the daemon
	// package stays free of X types.
	roles := make([]string, 0, len(cfg.WindowRoles))
	for role := range cfg.WindowRoles {
		roles = append(roles, role)
	}
	roleEvents := make(chan string, 16)
	go func() {
		defer close(roleEvents)
		for id := range topology.WindowEvents() {
			if role := conn.RoleOf(id, roles); role != "" {
				roleEvents <- role
			}
		}
	}()

	var app *daemon.App
	app, err = daemon.New(daemon.Options{
		Config:       cfg,
		ConfigPath:   path,
		StatePath:    statePath,
		SocketPath:   socketPath,
		Displays:     conn,
		Topology:     topology,
		Windows:      conn.Resolver(),
		WindowEvents: roleEvents,
		Factories:    componentFactories(logger, func() *daemon.App { return app }),
		Scheduler:    sched.New(),
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				logger.Info("received SIGHUP, reloading config")
				if err := app.Reload(); err != nil {
					logger.Error("config reload failed", "error", err)
				}
			case syscall.SIGUSR1:
				// Support bundle: state + diagnostics snapshot.
				go exportSnapshot(ctx, app, logger)
			case os.Interrupt, syscall.SIGTERM:
				logger.Info("shutting down", "signal", sig.String())
				cancel()
				return
			}
		}
	}()

	logger.Info("taskdesk daemon starting", "config", path, "socket", socketPath)
	if err := app.Run(ctx); err != nil {
		logger.Error("daemon exited with error", "error", err)
		return 1
	}
	return 0
}

// exportSnapshot loads the export component on demand and writes a
// support bundle, announcing the path through the notifier when that
// component is already up.
func exportSnapshot(ctx context.Context, app *daemon.App, logger *slog.Logger) {
	v, err := app.Components.Load(ctx, "export")
	if err != nil {
		logger.Error("export component failed to load", "error", err)
		return
	}
	exp, ok := v.(*exporter)
	if !ok {
		logger.Error("export component has unexpected type")
		return
	}
	path, err := exp.Export()
	if err != nil {
		logger.Error("state export failed", "error", err)
		return
	}
	if n, ok := app.Components.GetSync("notifications").(*notifier); ok {
		n.Notify("State exported", path)
	}
}

// componentFactories builds the non-core runtime services managed by
// the lazy registry. appRef defers App access until load time; the App
// does not exist yet when the factories are registered.
func componentFactories(logger *slog.Logger, appRef func() *daemon.App) daemon.ComponentFactories {
	return daemon.ComponentFactories{
		"window-state": func(ctx context.Context) (any, error) {
			// The store is constructed eagerly with the App; loading
			// the critical component verifies the state file parsed.
			app := appRef()
			if app == nil || app.Store == nil {
				return nil, fmt.Errorf("window-state store unavailable")
			}
			return app.Store, nil
		},
		"tray": func(ctx context.Context) (any, error) {
			return newTrayBridge(logger), nil
		},
		"notifications": func(ctx context.Context) (any, error) {
			return newNotifier(logger), nil
		},
		"export": func(ctx context.Context) (any, error) {
			app := appRef()
			if app == nil {
				return nil, fmt.Errorf("daemon not ready")
			}
			return newExporter(logger, app), nil
		},
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
