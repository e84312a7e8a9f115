package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/taskdesk/taskdesk/internal/window"
)

// FindWindowByRole scans the window manager's client list for a window
// whose WM_CLASS instance matches the given role name. Returns nil when
// no window matches; a missing window is not an error because roles can
// be tracked before their windows are first mapped.
func (c *Connection) FindWindowByRole(role string) (*Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("client list query failed: %w", err)
	}

	for _, id := range clients {
		class, err := icccm.WmClassGet(c.XUtil, id)
		if err != nil {
			continue
		}
		if strings.EqualFold(class.Instance, role) {
			return c.NewWindow(id), nil
		}
	}
	return nil, nil
}

// RoleOf reports which of the given roles a window belongs to, by
// WM_CLASS instance. Empty string when the window matches none.
func (c *Connection) RoleOf(id xproto.Window, roles []string) string {
	class, err := icccm.WmClassGet(c.XUtil, id)
	if err != nil {
		return ""
	}
	for _, role := range roles {
		if strings.EqualFold(class.Instance, role) {
			return role
		}
	}
	return ""
}

// Resolver adapts FindWindowByRole to the IPC server's window lookup.
// Lookup failures resolve to no window so state updates still persist.
func (c *Connection) Resolver() func(role string) window.Handle {
	return func(role string) window.Handle {
		w, err := c.FindWindowByRole(role)
		if err != nil || w == nil {
			// Typed nil inside a non-nil interface would defeat the
			// handle == nil checks downstream.
			return nil
		}
		return w
	}
}
