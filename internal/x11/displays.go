package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/geometry"
)

// AllDisplays retrieves all active displays using XRandR. Work areas are
// reduced by dock struts (panels, taskbars) that overlap each display.
func (c *Connection) AllDisplays() ([]display.Descriptor, error) {
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	primaryOutput := c.primaryOutput()
	struts := c.dockStruts()
	rootW, rootH := c.rootSize()

	var displays []display.Descriptor

	// Query each CRTC for active displays
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Display%d", i)
		primary := false
		for _, out := range crtcInfo.Outputs {
			if out == primaryOutput {
				primary = true
			}
		}
		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outputInfo.Name)
		}

		bounds := geometry.Rect{
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}

		displays = append(displays, display.Descriptor{
			ID:     i,
			Name:   name,
			Bounds: bounds,
			// X11 reports logical pixels; scaling is handled by the server.
			ScaleFactor: 1.0,
			WorkArea:    applyStruts(bounds, rootW, rootH, struts),
			Primary:     primary,
		})
	}

	if len(displays) == 0 {
		return nil, fmt.Errorf("no displays found")
	}

	// No primary output reported: fall back to the display at the origin,
	// then to the first one.
	hasPrimary := false
	for _, d := range displays {
		if d.Primary {
			hasPrimary = true
		}
	}
	if !hasPrimary {
		idx := 0
		for i, d := range displays {
			if d.Bounds.X == 0 && d.Bounds.Y == 0 {
				idx = i
				break
			}
		}
		displays[idx].Primary = true
	}

	return displays, nil
}

// PrimaryDisplay returns the primary display.
func (c *Connection) PrimaryDisplay() (display.Descriptor, error) {
	displays, err := c.AllDisplays()
	if err != nil {
		return display.Descriptor{}, err
	}
	for _, d := range displays {
		if d.Primary {
			return d, nil
		}
	}
	return displays[0], nil
}

func (c *Connection) primaryOutput() randr.Output {
	reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0
	}
	return reply.Output
}

func (c *Connection) rootSize() (int, int) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return 0, 0
	}
	return int(geom.Width), int(geom.Height)
}

// dockStruts collects _NET_WM_STRUT_PARTIAL (falling back to
// _NET_WM_STRUT) from every dock-type client window.
func (c *Connection) dockStruts() []*ewmh.WmStrutPartial {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil
	}
	rootW, rootH := c.rootSize()

	var struts []*ewmh.WmStrutPartial
	for _, windowID := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
		if err != nil {
			continue
		}

		isDock := false
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DOCK" {
				isDock = true
				break
			}
		}
		if !isDock {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			struts = append(struts, sp)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			struts = append(struts, &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootH - 1),
				RightStartY:  0,
				RightEndY:    uint(rootH - 1),
				TopStartX:    0,
				TopEndX:      uint(rootW - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootW - 1),
			})
		}
	}
	return struts
}

// applyStruts shrinks a display's bounds by the dock struts that overlap
// it, yielding the usable work area.
func applyStruts(bounds geometry.Rect, rootW, rootH int, struts []*ewmh.WmStrutPartial) geometry.Rect {
	var left, right, top, bottom int

	for _, sp := range struts {
		// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
		if sp.Top > 0 {
			r := geometry.Rect{
				X:      int(sp.TopStartX),
				Y:      0,
				Width:  int(sp.TopEndX) - int(sp.TopStartX) + 1,
				Height: int(sp.Top),
			}
			if in := bounds.Intersection(r); !in.Empty() {
				top = max(top, in.Height)
			}
		}

		// Bottom strut: y=[rootH-Bottom,rootH), x=[BottomStartX,BottomEndX]
		if sp.Bottom > 0 {
			r := geometry.Rect{
				X:      int(sp.BottomStartX),
				Y:      rootH - int(sp.Bottom),
				Width:  int(sp.BottomEndX) - int(sp.BottomStartX) + 1,
				Height: int(sp.Bottom),
			}
			if in := bounds.Intersection(r); !in.Empty() {
				bottom = max(bottom, in.Height)
			}
		}

		// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
		if sp.Left > 0 {
			r := geometry.Rect{
				X:      0,
				Y:      int(sp.LeftStartY),
				Width:  int(sp.Left),
				Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1,
			}
			if in := bounds.Intersection(r); !in.Empty() {
				left = max(left, in.Width)
			}
		}

		// Right strut: x=[rootW-Right,rootW), y=[RightStartY,RightEndY]
		if sp.Right > 0 {
			r := geometry.Rect{
				X:      rootW - int(sp.Right),
				Y:      int(sp.RightStartY),
				Width:  int(sp.Right),
				Height: int(sp.RightEndY) - int(sp.RightStartY) + 1,
			}
			if in := bounds.Intersection(r); !in.Empty() {
				right = max(right, in.Width)
			}
		}
	}

	work := geometry.Rect{
		X:      bounds.X + left,
		Y:      bounds.Y + top,
		Width:  bounds.Width - left - right,
		Height: bounds.Height - top - bottom,
	}
	if work.Width < 1 {
		work.Width = 1
	}
	if work.Height < 1 {
		work.Height = 1
	}
	return work
}
