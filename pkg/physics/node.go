package physics

import (
	"image/color"
	"iter"

	"github.com/matzehuels/forcegraph/pkg/vec"
)

// Handle identifies a node for the lifetime of its engine. Handles start at
// 1, increase monotonically and are never reused. The zero Handle refers to
// no node.
type Handle uint64

// Display defaults for nodes and edges.
const (
	DefaultRadius        = 9.0
	DefaultEdgeThickness = 0.1
)

var (
	DefaultNodeColor = color.RGBA{R: 50, G: 0, B: 200, A: 255}
	DefaultFontColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	DefaultEdgeColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Style is the display-affecting record attached to a node. The engine never
// reads it apart from Radius, which the pick adapter uses for hit testing.
type Style struct {
	Name      string
	Color     color.RGBA
	Radius    float64
	FontColor color.RGBA
}

// DefaultStyle returns the style new nodes get when none is given.
func DefaultStyle() Style {
	return Style{
		Color:     DefaultNodeColor,
		Radius:    DefaultRadius,
		FontColor: DefaultFontColor,
	}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.Radius <= 0 {
		s.Radius = d.Radius
	}
	if s.Color == (color.RGBA{}) {
		s.Color = d.Color
	}
	if s.FontColor == (color.RGBA{}) {
		s.FontColor = d.FontColor
	}
	return s
}

// EdgeStyle is the optional display payload of an adjacency entry.
type EdgeStyle struct {
	Thickness float64
	Color     color.RGBA
}

// DefaultEdgeStyle is what an edge without a payload resolves to.
func DefaultEdgeStyle() EdgeStyle {
	return EdgeStyle{Thickness: DefaultEdgeThickness, Color: DefaultEdgeColor}
}

// Node is a point mass in the simulation.
//
// Every field is guarded by the engine lock. A *Node is only handed out
// inside [Engine.Update] and [Engine.View] callbacks and must not be
// retained past them; hold the [Handle] instead.
type Node struct {
	Pos   vec.Vec
	Vel   vec.Vec
	Force vec.Vec // last computed net force, overwritten every tick

	Mass   float64
	Static bool

	// Style carries the display record and the renderer's cached artifact
	// derived from it (a pre-styled label). Whoever changes Style.Value must
	// invalidate it.
	Style Cached[Style, string]

	handle Handle
	adj    map[*Node]*EdgeStyle
}

// Handle returns the node's stable identity.
func (n *Node) Handle() Handle { return n.handle }

// Edges yields every outgoing adjacency entry with its resolved display
// payload. Order is unspecified.
func (n *Node) Edges() iter.Seq2[*Node, EdgeStyle] {
	return func(yield func(*Node, EdgeStyle) bool) {
		for m, s := range n.adj {
			es := DefaultEdgeStyle()
			if s != nil {
				es = *s
			}
			if !yield(m, es) {
				return
			}
		}
	}
}

// Degree returns the number of outgoing adjacency entries.
func (n *Node) Degree() int { return len(n.adj) }

// HasEdge reports whether n has an outgoing entry to m.
func (n *Node) HasEdge(m *Node) bool {
	_, ok := n.adj[m]
	return ok
}

// KineticEnergy returns ½mv².
func (n *Node) KineticEnergy() float64 {
	v := n.Vel.Norm()
	return 0.5 * n.Mass * v * v
}

// NodeSpec describes a node to create.
type NodeSpec struct {
	Pos vec.Vec
	Vel vec.Vec
	// Mass defaults to 1 when zero. Negative or non-finite masses are rejected.
	Mass   float64
	Static bool
	// Style fields left at their zero value take the defaults from
	// [DefaultStyle].
	Style Style
}
