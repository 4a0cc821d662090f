package physics

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/matzehuels/forcegraph/pkg/observability"
)

// Engine owns the node collection and the single lock guarding it.
type Engine struct {
	mu     sync.Mutex
	params Params
	rng    *rand.Rand
	nodes  []*Node
	index  map[Handle]*Node
	next   Handle
}

// Option configures an Engine.
type Option func(*Engine)

// WithParams replaces the default force constants.
func WithParams(p Params) Option {
	return func(e *Engine) { e.params = p }
}

// WithRand sets the random source used for kicks. Tests use a seeded
// source to make coincident-node scenarios repeatable.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// New returns an empty engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		params: DefaultParams(),
		index:  make(map[Handle]*Node),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e, nil
}

// TickStats summarises one tick.
type TickStats struct {
	Nodes         int
	KineticEnergy float64
	MaxSpeed      float64
	Duration      time.Duration
}

// Tick advances the simulation by dt seconds. Non-positive or non-finite
// deltas do nothing. The engine does not clamp large deltas; the frame
// driver must.
func (e *Engine) Tick(dt float64) TickStats {
	if !validDelta(dt) {
		return TickStats{}
	}
	start := time.Now()

	e.mu.Lock()
	for _, n := range e.nodes {
		n.Force = e.computeForce(n)
	}
	damping := math.Pow(e.params.Friction, dt)
	stats := TickStats{Nodes: len(e.nodes)}
	for _, n := range e.nodes {
		integrate(n, dt, damping)
		stats.KineticEnergy += n.KineticEnergy()
		stats.MaxSpeed = math.Max(stats.MaxSpeed, n.Vel.Norm())
	}
	e.mu.Unlock()

	stats.Duration = time.Since(start)
	observability.Simulation().OnTick(stats.Nodes, dt, stats.KineticEnergy, stats.Duration)
	return stats
}

// Settled reports whether every node moves slower than threshold.
func (e *Engine) Settled(threshold float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.nodes {
		if n.Vel.Norm() >= threshold {
			return false
		}
	}
	return true
}

// Update runs fn with exclusive read-write access to the graph. The
// transaction is invalid once fn returns. fn must not call back into the
// engine.
func (e *Engine) Update(fn func(tx *Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx := &Tx{e: e}
	defer tx.closed.Store(true)
	return fn(tx)
}

// View runs fn under the engine lock with a read-only transaction.
func (e *Engine) View(fn func(tx *Tx)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx := &Tx{e: e, readOnly: true}
	defer tx.closed.Store(true)
	fn(tx)
}

// CreateNode adds a single node under the lock.
func (e *Engine) CreateNode(spec NodeSpec) (Handle, error) {
	var h Handle
	err := e.Update(func(tx *Tx) error {
		var err error
		h, err = tx.CreateNode(spec)
		return err
	})
	return h, err
}

// Connect adds a single directed edge under the lock.
func (e *Engine) Connect(from, to Handle, style *EdgeStyle) error {
	return e.Update(func(tx *Tx) error {
		return tx.Connect(from, to, style)
	})
}

// Len returns the number of nodes.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// Params returns the force constants the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}
