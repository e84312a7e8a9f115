// Package window defines the window-handle collaborator consumed by the
// window-state store. The X11 implementation lives in internal/x11.
package window

import "github.com/taskdesk/taskdesk/internal/geometry"

// Handle is an opaque live window supplied by the host environment.
// All operations may fail once the underlying window is gone; callers
// should check IsDestroyed before batches of operations and tolerate
// errors in between.
type Handle interface {
	Bounds() (geometry.Rect, error)
	SetBounds(geometry.Rect) error

	IsMaximized() (bool, error)
	Maximize() error
	Unmaximize() error

	IsMinimized() (bool, error)
	Minimize() error
	Restore() error

	IsFullScreen() (bool, error)
	SetFullScreen(on bool) error

	IsVisible() (bool, error)
	Show() error
	Hide() error

	IsAlwaysOnTop() (bool, error)
	SetAlwaysOnTop(on bool) error

	IsDestroyed() bool
}
