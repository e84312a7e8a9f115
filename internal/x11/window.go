package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/taskdesk/taskdesk/internal/geometry"
)

// Window adapts an X11 window to the window.Handle interface.
type Window struct {
	conn *Connection
	id   xproto.Window
}

// NewWindow wraps an X11 window id as a handle.
func (c *Connection) NewWindow(id xproto.Window) *Window {
	return &Window{conn: c, id: id}
}

// ID returns the raw X11 window id.
func (w *Window) ID() xproto.Window { return w.id }

// Bounds returns the window's rectangle in root coordinates.
func (w *Window) Bounds() (geometry.Rect, error) {
	geom, err := xproto.GetGeometry(w.conn.XUtil.Conn(), xproto.Drawable(w.id)).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("failed to get geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(
		w.conn.XUtil.Conn(),
		w.id,
		w.conn.Root,
		0, 0,
	).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}

	return geometry.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// SetBounds moves and resizes the window. A maximized window is
// unmaximized first; window managers ignore move-resize requests for
// maximized windows.
func (w *Window) SetBounds(r geometry.Rect) error {
	if maximized, err := w.IsMaximized(); err == nil && maximized {
		if err := w.Unmaximize(); err != nil {
			return err
		}
	}

	// Use EWMH MoveResize for better WM compatibility
	err := ewmh.MoveresizeWindow(w.conn.XUtil, w.id, r.X, r.Y, r.Width, r.Height)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(w.conn.XUtil, w.id).MoveResize(r.X, r.Y, r.Width, r.Height)
	}
	return nil
}

func (w *Window) hasState(name string) (bool, error) {
	states, err := ewmh.WmStateGet(w.conn.XUtil, w.id)
	if err != nil {
		return false, fmt.Errorf("failed to get window state: %w", err)
	}
	for _, state := range states {
		if state == name {
			return true, nil
		}
	}
	return false, nil
}

const (
	stateRemove = 0
	stateAdd    = 1
)

func (w *Window) IsMaximized() (bool, error) {
	h, err := w.hasState("_NET_WM_STATE_MAXIMIZED_HORZ")
	if err != nil {
		return false, err
	}
	v, err := w.hasState("_NET_WM_STATE_MAXIMIZED_VERT")
	if err != nil {
		return false, err
	}
	return h && v, nil
}

func (w *Window) Maximize() error {
	if err := ewmh.WmStateReq(w.conn.XUtil, w.id, stateAdd, "_NET_WM_STATE_MAXIMIZED_HORZ"); err != nil {
		return err
	}
	return ewmh.WmStateReq(w.conn.XUtil, w.id, stateAdd, "_NET_WM_STATE_MAXIMIZED_VERT")
}

func (w *Window) Unmaximize() error {
	if err := ewmh.WmStateReq(w.conn.XUtil, w.id, stateRemove, "_NET_WM_STATE_MAXIMIZED_HORZ"); err != nil {
		return err
	}
	return ewmh.WmStateReq(w.conn.XUtil, w.id, stateRemove, "_NET_WM_STATE_MAXIMIZED_VERT")
}

func (w *Window) IsMinimized() (bool, error) {
	return w.hasState("_NET_WM_STATE_HIDDEN")
}

func (w *Window) Minimize() error {
	return ewmh.ClientEvent(w.conn.XUtil, w.id, "WM_CHANGE_STATE", icccm.StateIconic)
}

func (w *Window) Restore() error {
	xwindow.New(w.conn.XUtil, w.id).Map()
	return ewmh.ActiveWindowReq(w.conn.XUtil, w.id)
}

func (w *Window) IsFullScreen() (bool, error) {
	return w.hasState("_NET_WM_STATE_FULLSCREEN")
}

func (w *Window) SetFullScreen(on bool) error {
	action := stateRemove
	if on {
		action = stateAdd
	}
	return ewmh.WmStateReq(w.conn.XUtil, w.id, action, "_NET_WM_STATE_FULLSCREEN")
}

func (w *Window) IsVisible() (bool, error) {
	attrs, err := xproto.GetWindowAttributes(w.conn.XUtil.Conn(), w.id).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to get window attributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

func (w *Window) Show() error {
	xwindow.New(w.conn.XUtil, w.id).Map()
	return nil
}

func (w *Window) Hide() error {
	xwindow.New(w.conn.XUtil, w.id).Unmap()
	return nil
}

func (w *Window) IsAlwaysOnTop() (bool, error) {
	return w.hasState("_NET_WM_STATE_ABOVE")
}

func (w *Window) SetAlwaysOnTop(on bool) error {
	action := stateRemove
	if on {
		action = stateAdd
	}
	return ewmh.WmStateReq(w.conn.XUtil, w.id, action, "_NET_WM_STATE_ABOVE")
}

// IsDestroyed reports whether the window no longer exists on the server.
func (w *Window) IsDestroyed() bool {
	_, err := xproto.GetGeometry(w.conn.XUtil.Conn(), xproto.Drawable(w.id)).Reply()
	return err != nil
}
