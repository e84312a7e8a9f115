package window

import (
	"fmt"
	"sync"

	"github.com/taskdesk/taskdesk/internal/geometry"
)

// Fake is an in-memory Handle for tests and dry runs.
type Fake struct {
	mu          sync.Mutex
	bounds      geometry.Rect
	maximized   bool
	minimized   bool
	fullScreen  bool
	visible     bool
	alwaysOnTop bool
	destroyed   bool

	// SetBoundsCalls counts SetBounds invocations, for debounce tests.
	SetBoundsCalls int
}

// NewFake returns a visible fake window with the given bounds.
func NewFake(bounds geometry.Rect) *Fake {
	return &Fake{bounds: bounds, visible: true}
}

func (f *Fake) guard() error {
	if f.destroyed {
		return fmt.Errorf("window destroyed")
	}
	return nil
}

func (f *Fake) Bounds() (geometry.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return geometry.Rect{}, err
	}
	return f.bounds, nil
}

func (f *Fake) SetBounds(r geometry.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.bounds = r
	f.SetBoundsCalls++
	return nil
}

func (f *Fake) IsMaximized() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maximized, f.guard()
}

func (f *Fake) Maximize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.maximized = true
	return nil
}

func (f *Fake) Unmaximize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.maximized = false
	return nil
}

func (f *Fake) IsMinimized() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minimized, f.guard()
}

func (f *Fake) Minimize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.minimized = true
	return nil
}

func (f *Fake) Restore() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.minimized = false
	return nil
}

func (f *Fake) IsFullScreen() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullScreen, f.guard()
}

func (f *Fake) SetFullScreen(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.fullScreen = on
	return nil
}

func (f *Fake) IsVisible() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible, f.guard()
}

func (f *Fake) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.visible = true
	return nil
}

func (f *Fake) Hide() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.visible = false
	return nil
}

func (f *Fake) IsAlwaysOnTop() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alwaysOnTop, f.guard()
}

func (f *Fake) SetAlwaysOnTop(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return err
	}
	f.alwaysOnTop = on
	return nil
}

func (f *Fake) IsDestroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

// Destroy marks the window destroyed; all further operations fail.
func (f *Fake) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
}
