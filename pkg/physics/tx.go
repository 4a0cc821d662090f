package physics

import (
	"iter"
	"math"
	"sync/atomic"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

// Tx is the engine's mutation and read API. It exists only for the
// duration of an [Engine.Update] or [Engine.View] callback, during which
// the caller holds the engine lock.
type Tx struct {
	e        *Engine
	readOnly bool
	closed   atomic.Bool
}

func (tx *Tx) check(write bool) error {
	if tx.closed.Load() {
		return errors.New(errors.ErrCodeTxClosed, "transaction used after its callback returned")
	}
	if write && tx.readOnly {
		return errors.New(errors.ErrCodeInvalidInput, "mutation in read-only transaction")
	}
	return nil
}

// CreateNode inserts a node and returns its handle.
func (tx *Tx) CreateNode(spec NodeSpec) (Handle, error) {
	if err := tx.check(true); err != nil {
		return 0, err
	}
	mass := spec.Mass
	if mass == 0 {
		mass = 1
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return 0, errors.New(errors.ErrCodeInvalidMass, "mass must be positive and finite, got %v", spec.Mass)
	}
	if !spec.Pos.IsFinite() || !spec.Vel.IsFinite() {
		return 0, errors.New(errors.ErrCodeInvalidInput, "initial position and velocity must be finite")
	}

	e := tx.e
	e.next++
	n := &Node{
		Pos:    spec.Pos,
		Vel:    spec.Vel,
		Mass:   mass,
		Static: spec.Static,
		Style:  NewCached[Style, string](spec.Style.withDefaults()),
		handle: e.next,
		adj:    make(map[*Node]*EdgeStyle),
	}
	e.nodes = append(e.nodes, n)
	e.index[n.handle] = n
	return n.handle, nil
}

// Connect adds or replaces the directed edge from → to. A nil style resolves
// to [DefaultEdgeStyle] when read.
func (tx *Tx) Connect(from, to Handle, style *EdgeStyle) error {
	if err := tx.check(true); err != nil {
		return err
	}
	a, err := tx.lookup(from)
	if err != nil {
		return err
	}
	b, err := tx.lookup(to)
	if err != nil {
		return err
	}
	if style != nil {
		s := *style
		style = &s
	}
	a.adj[b] = style
	return nil
}

// ConnectMutual adds both directions between a and b with the same payload.
func (tx *Tx) ConnectMutual(a, b Handle, style *EdgeStyle) error {
	if err := tx.Connect(a, b, style); err != nil {
		return err
	}
	return tx.Connect(b, a, style)
}

// Node resolves a handle. The pointer is only valid inside the callback.
func (tx *Tx) Node(h Handle) (*Node, error) {
	if err := tx.check(false); err != nil {
		return nil, err
	}
	return tx.lookup(h)
}

func (tx *Tx) lookup(h Handle) (*Node, error) {
	n, ok := tx.e.index[h]
	if !ok {
		return nil, errors.New(errors.ErrCodeStaleHandle, "no node with handle %d", h)
	}
	return n, nil
}

// Nodes yields every node. It yields nothing once the transaction is closed.
func (tx *Tx) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if tx.check(false) != nil {
			return
		}
		for _, n := range tx.e.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// Len returns the number of nodes, or 0 once the transaction is closed.
func (tx *Tx) Len() int {
	if tx.check(false) != nil {
		return 0
	}
	return len(tx.e.nodes)
}

// Params returns the engine's force constants.
func (tx *Tx) Params() Params {
	return tx.e.params
}
