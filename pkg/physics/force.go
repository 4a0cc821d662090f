package physics

import (
	"math"

	"github.com/matzehuels/forcegraph/pkg/vec"
)

// computeForce returns the net force on n from the current positions of all
// nodes. Kicks between n and any coincident node with a higher handle are
// applied straight to both velocities, which phase 1 never reads.
func (e *Engine) computeForce(n *Node) vec.Vec {
	p := &e.params
	var f vec.Vec

	for m := range n.adj {
		if m == n {
			continue
		}
		f = f.Sub(n.Pos.Sub(m.Pos).Scale(p.Attraction))
	}

	for _, m := range e.nodes {
		if m == n {
			continue
		}
		delta := n.Pos.Sub(m.Pos)
		dist := delta.Norm()
		if dist <= p.KickDist && n.handle < m.handle {
			e.kick(n, m)
		}
		d := math.Max(dist, p.MinCloseness)
		f = f.Add(delta.Scale(p.Repulsion / (d * d * d)))
	}
	return f
}

// kick pushes n and m apart along a random direction with equal and
// opposite impulses.
func (e *Engine) kick(n, m *Node) {
	k := vec.Unit(e.rng.Float64() * 2 * math.Pi).Scale(e.params.KickSize)
	n.Vel = n.Vel.Add(k)
	m.Vel = m.Vel.Sub(k)
}
