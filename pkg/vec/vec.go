// Package vec provides the 2D vector arithmetic used by the physics engine
// and the viewport transform.
//
// [Vec] is a small value type; every operation returns a new vector and
// nothing is ever mutated in place, so vectors can be copied freely between
// goroutines once read under the engine lock.
package vec

import (
	"image"
	"math"
)

// Vec is a 2D vector of reals.
type Vec struct {
	X, Y float64
}

// Zero is the zero vector.
var Zero = Vec{}

// New returns the vector (x, y).
func New(x, y float64) Vec { return Vec{X: x, Y: y} }

// Add returns v + w.
func (v Vec) Add(w Vec) Vec { return Vec{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec { return Vec{v.X - w.X, v.Y - w.Y} }

// Scale returns v * c.
func (v Vec) Scale(c float64) Vec { return Vec{v.X * c, v.Y * c} }

// Neg returns -v.
func (v Vec) Neg() Vec { return Vec{-v.X, -v.Y} }

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between v and w.
func (v Vec) Dist(w Vec) float64 { return v.Sub(w).Norm() }

// Rotate returns v rotated counter-clockwise by angle radians.
func (v Vec) Rotate(angle float64) Vec {
	sin, cos := math.Sincos(angle)
	return Vec{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Round converts v to integer coordinates, truncating toward zero.
// Used for world-to-screen conversion only.
func (v Vec) Round() image.Point {
	return image.Point{X: int(v.X), Y: int(v.Y)}
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Unit returns the unit vector pointing at angle radians.
func Unit(angle float64) Vec {
	return Vec{X: 1}.Rotate(angle)
}

// FromPoint converts integer screen coordinates to a vector.
func FromPoint(p image.Point) Vec {
	return Vec{X: float64(p.X), Y: float64(p.Y)}
}
