// Package interact maps between screen and world coordinates and turns
// pointer input into engine operations: picking, dragging, panning and
// zooming.
//
// Screen coordinates are integer pixels with the origin at the top-left
// corner. A [Viewport] maps them to world coordinates:
//
//	screen = (world - Origin) / Scale
//	world  = screen * Scale + Origin
//
// Scale is therefore world units per pixel; a larger scale shows more of
// the graph.
//
// Viewport and [Mouse] are owned by the input goroutine and are not safe
// for concurrent use. [Picker] touches nodes only through the engine lock.
package interact

import (
	"image"

	"github.com/matzehuels/forcegraph/pkg/vec"
)

// Viewport is the affine world/screen mapping.
type Viewport struct {
	Origin vec.Vec // world position of screen pixel (0, 0)
	Scale  float64 // world units per pixel
}

// Centered returns a viewport of the given pixel size whose centre is the
// world origin.
func Centered(size image.Point, scale float64) *Viewport {
	return &Viewport{
		Origin: vec.FromPoint(size).Scale(-0.5 * scale),
		Scale:  scale,
	}
}

// Project converts a world position to screen pixels.
func (v *Viewport) Project(world vec.Vec) image.Point {
	return world.Sub(v.Origin).Scale(1 / v.Scale).Round()
}

// ProjectVec is Project without rounding.
func (v *Viewport) ProjectVec(world vec.Vec) vec.Vec {
	return world.Sub(v.Origin).Scale(1 / v.Scale)
}

// Unproject converts screen pixels to a world position.
func (v *Viewport) Unproject(screen image.Point) vec.Vec {
	return vec.FromPoint(screen).Scale(v.Scale).Add(v.Origin)
}

// Zoom multiplies the scale by k while keeping the world point under the
// screen anchor fixed.
func (v *Viewport) Zoom(k float64, anchor image.Point) {
	delta := vec.FromPoint(anchor).Scale(v.Scale)
	v.Origin = v.Origin.Add(delta.Scale(1 - k))
	v.Scale *= k
}

// PanTo moves the viewport so that world lies under the screen point.
func (v *Viewport) PanTo(world vec.Vec, screen image.Point) {
	v.Origin = world.Sub(vec.FromPoint(screen).Scale(v.Scale))
}

// Visible reports whether a disc of the given pixel radius at world
// intersects a screen of the given size.
func (v *Viewport) Visible(world vec.Vec, radius float64, size image.Point) bool {
	r := radius * v.Scale
	lo := v.Origin
	hi := v.Origin.Add(vec.FromPoint(size).Scale(v.Scale))
	return lo.X <= world.X+r && hi.X >= world.X-r &&
		lo.Y <= world.Y+r && hi.Y >= world.Y-r
}
