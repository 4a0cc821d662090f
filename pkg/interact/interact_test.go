package interact

import (
	"image"
	"math"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/physics"
	"github.com/matzehuels/forcegraph/pkg/vec"
)

func near(a, b vec.Vec) bool {
	return a.Dist(b) < 1e-9
}

func TestViewportRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		view Viewport
	}{
		{"Identity", Viewport{Scale: 1}},
		{"Scaled", Viewport{Origin: vec.New(-50, -50), Scale: 0.5}},
		{"Coarse", Viewport{Origin: vec.New(300, -20), Scale: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range []image.Point{{0, 0}, {10, 20}, {-7, 499}} {
				w := tt.view.Unproject(p)
				if got := tt.view.Project(w); got != p {
					t.Errorf("Project(Unproject(%v)) = %v", p, got)
				}
			}
		})
	}
}

func TestCentered(t *testing.T) {
	v := Centered(image.Pt(1000, 1000), 0.1)
	if got := v.Project(vec.Zero); got != image.Pt(500, 500) {
		t.Errorf("world origin projects to %v, want (500,500)", got)
	}
}

func TestZoomKeepsAnchorFixed(t *testing.T) {
	for _, k := range []float64{DefaultZoomFactor, 1 / DefaultZoomFactor, 3} {
		v := Viewport{Origin: vec.New(-40, 12), Scale: 0.25}
		anchor := image.Pt(123, 77)
		before := v.Unproject(anchor)
		v.Zoom(k, anchor)
		if after := v.Unproject(anchor); !near(before, after) {
			t.Errorf("k=%v: anchor moved from %v to %v", k, before, after)
		}
		if math.Abs(v.Scale-0.25*k) > 1e-12 {
			t.Errorf("k=%v: scale = %v", k, v.Scale)
		}
	}
}

func TestVisible(t *testing.T) {
	v := Viewport{Scale: 1}
	size := image.Pt(100, 100)
	if !v.Visible(vec.New(50, 50), 5, size) {
		t.Error("centre should be visible")
	}
	if !v.Visible(vec.New(-3, 50), 5, size) {
		t.Error("disc overlapping the edge should be visible")
	}
	if v.Visible(vec.New(-30, 50), 5, size) {
		t.Error("disc far outside should not be visible")
	}
}

func newScene(t *testing.T) (*physics.Engine, physics.Handle, physics.Handle) {
	t.Helper()
	e, err := physics.New()
	if err != nil {
		t.Fatal(err)
	}
	a, err := e.CreateNode(physics.NodeSpec{Pos: vec.New(0, 0), Style: physics.Style{Radius: 10}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.CreateNode(physics.NodeSpec{Pos: vec.New(100, 0), Static: true, Style: physics.Style{Radius: 10}})
	if err != nil {
		t.Fatal(err)
	}
	return e, a, b
}

func staticOf(t *testing.T, e *physics.Engine, h physics.Handle) (bool, vec.Vec) {
	t.Helper()
	var (
		static bool
		pos    vec.Vec
	)
	e.View(func(tx *physics.Tx) {
		n, err := tx.Node(h)
		if err != nil {
			t.Fatal(err)
		}
		static, pos = n.Static, n.Pos
	})
	return static, pos
}

func TestFindNodeAt(t *testing.T) {
	e, a, b := newScene(t)
	p := NewPicker(e, &Viewport{Scale: 0.5})

	tests := []struct {
		name  string
		world vec.Vec
		want  physics.Handle
		found bool
	}{
		{"Centre", vec.New(0, 0), a, true},
		{"InsideScaledRadius", vec.New(4.9, 0), a, true},
		{"OnBoundary", vec.New(100, 5), b, true},
		{"OutsideScaledRadius", vec.New(6, 0), 0, false},
		{"Empty", vec.New(50, 50), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := p.FindNodeAt(tt.world)
			if ok != tt.found || h != tt.want {
				t.Errorf("FindNodeAt(%v) = %d, %v; want %d, %v", tt.world, h, ok, tt.want, tt.found)
			}
		})
	}
}

func TestDragLifecycle(t *testing.T) {
	e, a, b := newScene(t)
	p := NewPicker(e, &Viewport{Scale: 1})

	t.Run("RestoresDynamic", func(t *testing.T) {
		if err := p.BeginDrag(a); err != nil {
			t.Fatal(err)
		}
		if s, _ := staticOf(t, e, a); !s {
			t.Error("dragged node should be static")
		}
		if err := p.BeginDrag(b); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("second BeginDrag: %v", err)
		}

		target := vec.New(-30, 40)
		if err := p.UpdateDrag(a, target); err != nil {
			t.Fatal(err)
		}
		e.Tick(0.02)
		if _, pos := staticOf(t, e, a); pos != target {
			t.Errorf("dragged node moved by integrator to %v", pos)
		}

		if err := p.EndDrag(a); err != nil {
			t.Fatal(err)
		}
		if s, _ := staticOf(t, e, a); s {
			t.Error("static flag not restored")
		}
	})

	t.Run("RestoresStatic", func(t *testing.T) {
		if err := p.BeginDrag(b); err != nil {
			t.Fatal(err)
		}
		if err := p.EndDrag(b); err != nil {
			t.Fatal(err)
		}
		if s, _ := staticOf(t, e, b); !s {
			t.Error("originally static node lost its pin")
		}
	})

	t.Run("NotDragging", func(t *testing.T) {
		if err := p.UpdateDrag(a, vec.Zero); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("UpdateDrag without BeginDrag: %v", err)
		}
	})

	t.Run("StaleHandle", func(t *testing.T) {
		if err := p.BeginDrag(999); !errors.Is(err, errors.ErrCodeStaleHandle) {
			t.Errorf("BeginDrag(999): %v", err)
		}
		if _, ok := p.Dragging(); ok {
			t.Error("failed BeginDrag must not start a drag")
		}
	})
}

func TestMouseDragAndPan(t *testing.T) {
	e, a, _ := newScene(t)
	view := &Viewport{Origin: vec.New(-50, -50), Scale: 1}
	m := NewMouse(view, NewPicker(e, view))

	t.Run("DragNode", func(t *testing.T) {
		h, ok, err := m.Press(view.Project(vec.Zero))
		if err != nil || !ok || h != a {
			t.Fatalf("Press = %d, %v, %v", h, ok, err)
		}
		if err := m.Move(image.Pt(80, 90)); err != nil {
			t.Fatal(err)
		}
		if _, pos := staticOf(t, e, a); pos != vec.New(30, 40) {
			t.Errorf("node at %v, want (30,40)", pos)
		}
		if err := m.Release(); err != nil {
			t.Fatal(err)
		}
		if s, _ := staticOf(t, e, a); s {
			t.Error("node still pinned after release")
		}
	})

	t.Run("Pan", func(t *testing.T) {
		start := image.Pt(10, 10)
		grabbed := view.Unproject(start)
		if _, ok, _ := m.Press(start); ok {
			t.Fatal("press on empty space grabbed a node")
		}
		if err := m.Move(image.Pt(60, 30)); err != nil {
			t.Fatal(err)
		}
		if got := view.Unproject(image.Pt(60, 30)); !near(got, grabbed) {
			t.Errorf("grab point %v not under cursor, got %v", grabbed, got)
		}
		_ = m.Release()
		if m.Down() {
			t.Error("button still down")
		}
	})

	t.Run("Wheel", func(t *testing.T) {
		before := view.Scale
		m.Wheel(true, image.Pt(5, 5))
		if math.Abs(view.Scale-before*DefaultZoomFactor) > 1e-12 {
			t.Errorf("scale = %v", view.Scale)
		}
		m.Wheel(false, image.Pt(5, 5))
		if math.Abs(view.Scale-before) > 1e-12 {
			t.Errorf("scale = %v, want %v", view.Scale, before)
		}
	})
}
