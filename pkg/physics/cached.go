package physics

// Cached pairs a value with a lazily derived artifact and a validity bit.
//
// The producer of V flips the bit with [Cached.Set] or [Cached.Invalidate]
// whenever the value changes; the consumer of A recomputes it only when
// the bit is clear. Cached is not synchronized. For node styles it is
// guarded by the engine lock like every other node field.
type Cached[V, A any] struct {
	Value V

	artifact A
	valid    bool
}

// NewCached returns an invalid cache holding v.
func NewCached[V, A any](v V) Cached[V, A] {
	return Cached[V, A]{Value: v}
}

// Set replaces the value and invalidates the artifact.
func (c *Cached[V, A]) Set(v V) {
	c.Value = v
	c.valid = false
}

// Invalidate marks the artifact stale. Call it after mutating Value in place.
func (c *Cached[V, A]) Invalidate() { c.valid = false }

// Validate marks the current artifact as up to date.
func (c *Cached[V, A]) Validate() { c.valid = true }

// Valid reports whether the artifact reflects the current value.
func (c *Cached[V, A]) Valid() bool { return c.valid }

// Artifact returns the stored artifact and whether it is valid.
func (c *Cached[V, A]) Artifact() (A, bool) { return c.artifact, c.valid }

// Store records a freshly derived artifact and marks it valid.
func (c *Cached[V, A]) Store(a A) {
	c.artifact = a
	c.valid = true
}

// Get returns the artifact, recomputing it with derive when stale.
func (c *Cached[V, A]) Get(derive func(V) A) A {
	if !c.valid {
		c.Store(derive(c.Value))
	}
	return c.artifact
}
