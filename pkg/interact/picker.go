package interact

import (
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/physics"
	"github.com/matzehuels/forcegraph/pkg/vec"
)

// Picker finds nodes under a world point and drags them. A dragged node is
// pinned (Static) so the integrator leaves it alone, yet it keeps pushing
// and pulling every other node from wherever the pointer puts it.
type Picker struct {
	engine *physics.Engine
	view   *Viewport

	dragging  physics.Handle
	wasStatic bool
}

// NewPicker returns a picker over engine. The viewport scale converts node
// radii, which are in pixels, to world units for hit testing.
func NewPicker(engine *physics.Engine, view *Viewport) *Picker {
	return &Picker{engine: engine, view: view}
}

// FindNodeAt returns the first node whose rendered disc contains world.
func (p *Picker) FindNodeAt(world vec.Vec) (physics.Handle, bool) {
	var (
		hit   physics.Handle
		found bool
	)
	scale := p.view.Scale
	p.engine.View(func(tx *physics.Tx) {
		for n := range tx.Nodes() {
			if n.Pos.Dist(world) <= n.Style.Value.Radius*scale {
				hit, found = n.Handle(), true
				return
			}
		}
	})
	return hit, found
}

// Dragging returns the node currently being dragged.
func (p *Picker) Dragging() (physics.Handle, bool) {
	return p.dragging, p.dragging != 0
}

// BeginDrag pins h and remembers whether it was already static.
func (p *Picker) BeginDrag(h physics.Handle) error {
	if p.dragging != 0 {
		return errors.New(errors.ErrCodeInvalidInput, "already dragging node %d", p.dragging)
	}
	err := p.engine.Update(func(tx *physics.Tx) error {
		n, err := tx.Node(h)
		if err != nil {
			return err
		}
		p.wasStatic = n.Static
		n.Static = true
		return nil
	})
	if err != nil {
		return err
	}
	p.dragging = h
	return nil
}

// UpdateDrag moves the dragged node to world, bypassing the integrator.
func (p *Picker) UpdateDrag(h physics.Handle, world vec.Vec) error {
	if err := p.checkDragging(h); err != nil {
		return err
	}
	return p.engine.Update(func(tx *physics.Tx) error {
		n, err := tx.Node(h)
		if err != nil {
			return err
		}
		n.Pos = world
		return nil
	})
}

// EndDrag restores the static flag h had before BeginDrag.
func (p *Picker) EndDrag(h physics.Handle) error {
	if err := p.checkDragging(h); err != nil {
		return err
	}
	p.dragging = 0
	return p.engine.Update(func(tx *physics.Tx) error {
		n, err := tx.Node(h)
		if err != nil {
			return err
		}
		n.Static = p.wasStatic
		return nil
	})
}

func (p *Picker) checkDragging(h physics.Handle) error {
	if p.dragging != h || h == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "node %d is not being dragged", h)
	}
	return nil
}
