package physics

import (
	"math"

	"github.com/matzehuels/forcegraph/pkg/vec"
)

// integrate advances n by dt from its stored force. damping is
// Friction^dt, computed once per tick.
func integrate(n *Node, dt, damping float64) {
	if n.Static {
		n.Vel = vec.Zero
		return
	}
	n.Vel = n.Vel.Add(n.Force.Scale(dt / n.Mass)).Scale(damping)
	n.Pos = n.Pos.Add(n.Vel.Scale(dt))
}

func validDelta(dt float64) bool {
	return dt > 0 && !math.IsInf(dt, 0)
}
