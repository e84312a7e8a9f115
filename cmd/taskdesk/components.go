package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/taskdesk/taskdesk/internal/apppath"
	"github.com/taskdesk/taskdesk/internal/daemon"
)

// trayBridge relays daemon state to the host's tray integration. The
// native indicator itself lives in the desktop shell process; this end
// only tracks whether the bridge is up.
type trayBridge struct {
	log     *slog.Logger
	started time.Time
}

func newTrayBridge(logger *slog.Logger) *trayBridge {
	b := &trayBridge{log: logger, started: time.Now()}
	b.log.Debug("tray bridge ready")
	return b
}

func (b *trayBridge) Dispose() error {
	b.log.Debug("tray bridge closed", "uptime", time.Since(b.started))
	return nil
}

// notifier forwards operator-facing events to the host notification
// service. Until a window role misbehaves it has nothing to do, which
// is why it loads lazily.
type notifier struct {
	log *slog.Logger
}

func newNotifier(logger *slog.Logger) *notifier {
	return &notifier{log: logger}
}

func (n *notifier) Notify(title, body string) {
	n.log.Info("notification", "title", title, "body", body)
}

func (n *notifier) Dispose() error { return nil }

// exporter writes point-in-time snapshots of the daemon's window state
// and reliability counters for support bundles.
type exporter struct {
	log *slog.Logger
	app *daemon.App
}

func newExporter(logger *slog.Logger, app *daemon.App) *exporter {
	return &exporter{log: logger, app: app}
}

// Export writes a JSON snapshot next to the state file and returns its path.
func (e *exporter) Export() (string, error) {
	dir, err := apppath.ConfigDir()
	if err != nil {
		return "", err
	}

	snapshot := map[string]any{
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"roles":       e.app.Store.Roles(),
		"stats":       e.app.Wrapper.Stats(),
		"components":  e.app.Components.Status(),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("taskdesk-export-%d.json", time.Now().Unix()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	e.log.Info("state exported", "path", path)
	return path, nil
}

func (e *exporter) Dispose() error { return nil }
