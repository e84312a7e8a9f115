// Package daemon assembles the taskdesk runtime: the window-state
// store, the reliability wrapper, the lazy component registry, and the
// IPC surface. The App value is constructed once at startup and passed
// explicitly to everything that needs it; there are no package-level
// singletons.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taskdesk/taskdesk/internal/config"
	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/ipc"
	"github.com/taskdesk/taskdesk/internal/registry"
	"github.com/taskdesk/taskdesk/internal/reliability"
	"github.com/taskdesk/taskdesk/internal/sched"
	"github.com/taskdesk/taskdesk/internal/winstate"
)

// TopologyWatcher delivers display-topology change events. The X11
// implementation lives in internal/x11; tests supply a channel-backed
// fake.
type TopologyWatcher interface {
	Events() <-chan display.Event
	Close() error
}

// ComponentFactories maps component names to constructors. The daemon
// registers these with the lazy registry; which of them load eagerly is
// decided by the configured priority classes.
type ComponentFactories map[string]registry.Factory

// Options carries everything the App needs. Displays and Topology are
// injected so the daemon logic stays testable without an X server.
type Options struct {
	Config     *config.Config
	ConfigPath string
	StatePath  string
	SocketPath string
	Displays   display.Provider
	Topology   TopologyWatcher
	Windows    ipc.WindowResolver
	// WindowEvents delivers role names whose live window geometry
	// changed; each one triggers a debounced state capture.
	WindowEvents <-chan string
	Factories    ComponentFactories
	Scheduler    sched.Scheduler
	Logger       *slog.Logger
}

// App owns the daemon's subsystems and tears them down in reverse
// construction order.
type App struct {
	cfg        *config.Config
	configPath string
	log        *slog.Logger

	Store      *winstate.Store
	Wrapper    *reliability.Wrapper
	Components *registry.Registry

	server      *ipc.Server
	topology    TopologyWatcher
	windows     ipc.WindowResolver
	winEvents   <-chan string
	confWatcher *fsnotify.Watcher

	cancel context.CancelFunc
	done   chan struct{}
}

// New wires the subsystems together. Critical components are
// constructed synchronously; everything else is handed to the
// background loader when Run starts.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("daemon: config is required")
	}
	if opts.Displays == nil {
		return nil, fmt.Errorf("daemon: display provider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		cfg:        opts.Config,
		configPath: opts.ConfigPath,
		log:        logger,
		topology:   opts.Topology,
		windows:    opts.Windows,
		winEvents:  opts.WindowEvents,
		done:       make(chan struct{}),
	}

	app.Store = winstate.New(winstate.Options{
		Path:      opts.StatePath,
		Displays:  opts.Displays,
		Roles:     opts.Config.RolePolicies(),
		Scheduler: opts.Scheduler,
		Debounce:  opts.Config.Debounce(),
		Logger:    logger,
	})

	app.Wrapper = reliability.New(reliability.Options{
		Policy:    opts.Config.RetryPolicy(),
		Scheduler: opts.Scheduler,
		Logger:    logger,
	})

	app.Components = registry.New(registry.Options{
		Scheduler:       opts.Scheduler,
		Logger:          logger,
		BackgroundDelay: opts.Config.BackgroundLoadDelay(),
	})
	priorities := opts.Config.ComponentPriorities()
	for name, factory := range opts.Factories {
		prio, ok := priorities[name]
		if !ok {
			prio = registry.PriorityLow
		}
		app.Components.Register(name, prio, factory)
	}

	server, err := ipc.NewServer(ipc.Options{
		SocketPath: opts.SocketPath,
		Store:      app.Store,
		Displays:   opts.Displays,
		Wrapper:    app.Wrapper,
		Components: app.Components,
		Windows:    opts.Windows,
		Reload:     app.Reload,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	app.server = server

	return app, nil
}

// Run starts the daemon and blocks until ctx is cancelled. Critical
// components load before the IPC socket opens; the rest load in the
// background so startup latency stays flat.
func (a *App) Run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	defer close(a.done)

	start := time.Now()
	for _, name := range a.Components.CriticalNames() {
		if _, err := a.Components.Load(ctx, name); err != nil {
			return fmt.Errorf("critical component %s failed to load: %w", name, err)
		}
	}
	a.log.Info("critical components loaded",
		"count", len(a.Components.CriticalNames()),
		"duration", time.Since(start))

	if err := a.server.Start(); err != nil {
		return err
	}

	a.Components.LoadInBackground(ctx, a.Components.BackgroundNames())

	if a.topology != nil {
		go a.watchTopology(ctx)
	}
	if a.winEvents != nil {
		go a.watchWindows(ctx)
	}
	if a.configPath != "" {
		if err := a.watchConfig(ctx); err != nil {
			a.log.Warn("config hot reload unavailable", "error", err)
		}
	}

	a.log.Info("taskdesk daemon started")
	<-ctx.Done()
	return a.shutdown()
}

// Stop cancels a running App and waits for shutdown to finish.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}
}

func (a *App) watchTopology(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.topology.Events():
			if !ok {
				return
			}
			a.log.Info("display topology change",
				"kind", ev.Kind.String(),
				"display", ev.Display.ID)
			a.Store.HandleTopologyChange()
		}
	}
}

// watchWindows captures live geometry for roles whose windows moved or
// resized. Writes coalesce through the store's debounce.
func (a *App) watchWindows(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case role, ok := <-a.winEvents:
			if !ok {
				return
			}
			if a.windows == nil {
				continue
			}
			h := a.windows(role)
			if h == nil {
				continue
			}
			if err := a.Store.UpdateFromLiveDebounced(role, h); err != nil {
				a.log.Warn("live state capture failed", "role", role, "error", err)
			}
		}
	}
}

// watchConfig re-validates and applies the config file on change.
// Editors replace files via rename, so the watch is on the directory.
func (a *App) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(a.configPath)); err != nil {
		watcher.Close()
		return err
	}
	a.confWatcher = watcher

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != a.configPath {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if err := a.Reload(); err != nil {
					a.log.Warn("config reload rejected", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				a.log.Warn("config watch error", "error", err)
			}
		}
	}()

	a.log.Info("watching config for changes", "path", a.configPath)
	return nil
}

// Reload re-reads the config file and applies the new window-role
// bounds. A file that fails validation leaves the running config
// untouched.
func (a *App) Reload() error {
	if a.configPath == "" {
		return fmt.Errorf("no config path to reload from")
	}
	cfg, err := config.LoadFromPath(a.configPath)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.Store.UpdateRoles(cfg.RolePolicies())
	a.log.Info("config reloaded", "roles", len(cfg.WindowRoles))
	return nil
}

func (a *App) shutdown() error {
	a.log.Info("shutting down")

	// Reverse construction order: outer surfaces first, state last.
	if a.confWatcher != nil {
		a.confWatcher.Close()
	}
	if a.topology != nil {
		a.topology.Close()
	}
	a.server.Stop()
	if err := a.Components.Close(); err != nil {
		a.log.Warn("component disposal reported errors", "error", err)
	}
	if err := a.Store.Close(); err != nil {
		a.log.Warn("state flush failed", "error", err)
	}

	a.log.Info("shutdown complete")
	return nil
}
