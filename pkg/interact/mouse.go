package interact

import (
	"image"

	"github.com/matzehuels/forcegraph/pkg/physics"
	"github.com/matzehuels/forcegraph/pkg/vec"
)

// DefaultZoomFactor is the scale change per wheel step.
const DefaultZoomFactor = 1.2

// Mouse is the primary-button state machine: press on a node to drag it,
// press on empty space to pan.
type Mouse struct {
	View       *Viewport
	Picker     *Picker
	ZoomFactor float64 // scale change per wheel step, > 1

	down bool
	grab vec.Vec // world point under the cursor when a pan started
}

// NewMouse binds a mouse to a viewport and the engine behind picker.
func NewMouse(view *Viewport, picker *Picker) *Mouse {
	return &Mouse{View: view, Picker: picker, ZoomFactor: DefaultZoomFactor}
}

// Hover returns the node under the screen point, if any.
func (m *Mouse) Hover(screen image.Point) (physics.Handle, bool) {
	return m.Picker.FindNodeAt(m.View.Unproject(screen))
}

// Press starts a drag or a pan. It returns the grabbed node, if any.
// Presses while the button is already down are ignored.
func (m *Mouse) Press(screen image.Point) (physics.Handle, bool, error) {
	if m.down {
		return 0, false, nil
	}
	world := m.View.Unproject(screen)
	m.down = true
	m.grab = world

	h, ok := m.Picker.FindNodeAt(world)
	if !ok {
		return 0, false, nil
	}
	if err := m.Picker.BeginDrag(h); err != nil {
		return 0, false, err
	}
	return h, true, nil
}

// Move drags the held node to the cursor or pans the viewport so the grab
// point stays under it.
func (m *Mouse) Move(screen image.Point) error {
	if !m.down {
		return nil
	}
	if h, ok := m.Picker.Dragging(); ok {
		return m.Picker.UpdateDrag(h, m.View.Unproject(screen))
	}
	m.View.PanTo(m.grab, screen)
	return nil
}

// Release ends the current drag or pan.
func (m *Mouse) Release() error {
	if !m.down {
		return nil
	}
	m.down = false
	if h, ok := m.Picker.Dragging(); ok {
		return m.Picker.EndDrag(h)
	}
	return nil
}

// Down reports whether the primary button is held.
func (m *Mouse) Down() bool { return m.down }

// Wheel zooms around the cursor. Scrolling up grows the scale by
// ZoomFactor, showing more of the world.
func (m *Mouse) Wheel(up bool, screen image.Point) {
	k := m.ZoomFactor
	if k <= 1 {
		k = DefaultZoomFactor
	}
	if !up {
		k = 1 / k
	}
	m.View.Zoom(k, screen)
}
