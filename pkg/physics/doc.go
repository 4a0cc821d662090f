// Package physics implements the force-directed layout engine.
//
// An [Engine] owns a growing set of [Node] values and the single mutex that
// guards them. Every tick advances the whole graph by a caller-supplied time
// delta in two strict phases:
//
//  1. compute and store the net force on every node from the current,
//     unmutated positions of all nodes;
//  2. integrate every node's velocity and position from its stored force.
//
// Keeping the phases separate makes the result independent of node
// iteration order.
//
// # Force Model
//
// Three terms act on each node:
//
//   - Attraction: every outgoing adjacency entry behaves as a zero-rest-length
//     linear spring, F -= Attraction * (p_n - p_m).
//   - Repulsion: every other node pushes with magnitude Repulsion / d²,
//     where d is clamped below at MinCloseness so coincident nodes never
//     produce infinite forces.
//   - Kick: two nodes closer than KickDist receive equal and opposite random
//     velocity impulses. Each unordered pair is kicked once per tick, using
//     node handles as the total order.
//
// Integration is semi-implicit Euler with exponential damping
// (velocity *= Friction^dt). Static nodes are pinned: their velocity is
// zeroed every tick but they still attract and repel everything else.
//
// # Concurrency
//
// All access to nodes goes through the engine lock:
//
//	err := engine.Update(func(tx *physics.Tx) error {
//	    a, err := tx.CreateNode(physics.NodeSpec{Style: physics.Style{Name: "a"}})
//	    if err != nil {
//	        return err
//	    }
//	    return tx.ConnectMutual(a, root, nil)
//	})
//
// The lock is not re-entrant. Calling [Engine.Update], [Engine.View] or
// [Engine.Tick] from inside an Update or View callback deadlocks. A [Tx]
// and the *Node pointers obtained from it must not be used after the
// callback returns; reading or writing node fields outside the lock is a
// data race.
//
// Edges are directed. A spring that should pull both endpoints needs both
// directions; [Tx.ConnectMutual] inserts them together.
package physics
