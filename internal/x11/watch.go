package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/taskdesk/taskdesk/internal/display"
)

// TopologyWatcher owns the X event loop. It turns raw RandR
// notifications into per-display added/removed/metrics-changed events
// by re-querying the display set and diffing it against the last known
// one, and surfaces ConfigureNotify for top-level windows so live
// geometry changes can be persisted.
type TopologyWatcher struct {
	conn      *Connection
	logger    *slog.Logger
	events    chan display.Event
	winEvents chan xproto.Window
	done      chan struct{}
}

// WatchTopology subscribes to RandR change notifications plus root
// substructure events and starts the event translation loop. Close the
// watcher to stop it.
func (c *Connection) WatchTopology(logger *slog.Logger) (*TopologyWatcher, error) {
	mask := randr.NotifyMaskScreenChange |
		randr.NotifyMaskCrtcChange |
		randr.NotifyMaskOutputChange
	if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, uint16(mask)).Check(); err != nil {
		return nil, fmt.Errorf("failed to select randr input: %w", err)
	}

	// ConfigureNotify for top-level windows arrives on the root with
	// the substructure mask.
	if err := xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(), c.Root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskSubstructureNotify},
	).Check(); err != nil {
		return nil, fmt.Errorf("failed to select substructure events: %w", err)
	}

	w := &TopologyWatcher{
		conn:      c,
		logger:    logger,
		events:    make(chan display.Event, 16),
		winEvents: make(chan xproto.Window, 64),
		done:      make(chan struct{}),
	}

	known, err := c.AllDisplays()
	if err != nil {
		return nil, err
	}

	go w.loop(known)
	return w, nil
}

// Events delivers topology changes. The channel closes when the watcher
// stops.
func (w *TopologyWatcher) Events() <-chan display.Event {
	return w.events
}

// WindowEvents delivers the IDs of windows whose geometry changed.
// Bursts beyond the channel buffer are dropped; the store debounces
// and re-reads live bounds anyway, so dropped intermediates are
// harmless.
func (w *TopologyWatcher) WindowEvents() <-chan xproto.Window {
	return w.winEvents
}

// Close stops the watcher. The underlying X connection is shared and is
// not closed here.
func (w *TopologyWatcher) Close() error {
	close(w.done)
	return nil
}

func (w *TopologyWatcher) loop(known []display.Descriptor) {
	defer close(w.events)
	defer close(w.winEvents)

	for {
		ev, err := w.conn.XUtil.Conn().WaitForEvent()
		if ev == nil && err == nil {
			// Connection closed.
			return
		}
		select {
		case <-w.done:
			return
		default:
		}
		if err != nil {
			w.logger.Warn("x11 event error", "error", err)
			continue
		}

		switch ev := ev.(type) {
		case xproto.ConfigureNotifyEvent:
			select {
			case w.winEvents <- ev.Window:
			default:
			}
			continue
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
		default:
			continue
		}

		current, qerr := w.conn.AllDisplays()
		if qerr != nil {
			w.logger.Warn("failed to re-query displays after topology change", "error", qerr)
			continue
		}

		for _, event := range display.DiffTopology(known, current) {
			w.logger.Info("display topology change",
				"kind", event.Kind.String(),
				"display", event.Display.ID,
				"name", event.Display.Name)
			select {
			case w.events <- event:
			case <-w.done:
				return
			}
		}
		known = current
	}
}
