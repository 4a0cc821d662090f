package physics

import (
	"math"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

// Default force constants.
const (
	DefaultAttraction   = 75.0
	DefaultRepulsion    = 10000.0
	DefaultMinCloseness = 2.0
	DefaultFriction     = 0.00001
	DefaultKickDist     = 0.01
	DefaultKickSize     = 1.0
)

// Params holds the force model constants. The zero value is not valid; start
// from [DefaultParams].
type Params struct {
	// Attraction is the spring constant of every edge.
	Attraction float64 `toml:"attraction" json:"attraction"`
	// Repulsion scales the inverse-square push between every pair of nodes.
	Repulsion float64 `toml:"repulsion" json:"repulsion"`
	// MinCloseness is the distance floor used by the repulsion term.
	MinCloseness float64 `toml:"min_closeness" json:"min_closeness"`
	// Friction is the fraction of velocity retained after one second.
	Friction float64 `toml:"friction" json:"friction"`
	// KickDist is the separation at or below which a pair is kicked apart.
	KickDist float64 `toml:"kick_dist" json:"kick_dist"`
	// KickSize is the magnitude of the velocity impulse.
	KickSize float64 `toml:"kick_size" json:"kick_size"`
}

// DefaultParams returns the standard force constants.
func DefaultParams() Params {
	return Params{
		Attraction:   DefaultAttraction,
		Repulsion:    DefaultRepulsion,
		MinCloseness: DefaultMinCloseness,
		Friction:     DefaultFriction,
		KickDist:     DefaultKickDist,
		KickSize:     DefaultKickSize,
	}
}

// Validate checks that every constant is finite and in range.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"attraction", p.Attraction},
		{"repulsion", p.Repulsion},
		{"min_closeness", p.MinCloseness},
		{"kick_dist", p.KickDist},
		{"kick_size", p.KickSize},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be a finite non-negative number, got %v", f.name, f.value)
		}
	}
	if p.MinCloseness == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_closeness must be positive")
	}
	if !(p.Friction > 0 && p.Friction < 1) {
		return errors.New(errors.ErrCodeInvalidConfig, "friction must be in (0, 1), got %v", p.Friction)
	}
	return nil
}
