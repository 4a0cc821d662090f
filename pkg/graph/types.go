package graph

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/vec"
)

// Graph is the node-link serialization of a force-directed graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one point mass. Zero-valued fields take the engine defaults.
type Node struct {
	ID        string         `json:"id"`
	Label     string         `json:"label,omitempty"` // Display label (defaults to ID)
	Handle    uint64         `json:"handle,omitempty"` // Engine handle, set by Capture
	Pos       *Point         `json:"pos,omitempty"`
	Mass      float64        `json:"mass,omitempty"`
	Static    bool           `json:"static,omitempty"`
	Radius    float64        `json:"radius,omitempty"` // pixels
	Color     string         `json:"color,omitempty"`  // "#rrggbb" or "#rrggbbaa"
	FontColor string         `json:"font_color,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Point is a world position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a spring between two nodes.
type Edge struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	OneWay    bool    `json:"one_way,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// Validate checks that IDs are unique and non-empty, masses and positions
// are ones the engine accepts, every edge endpoint exists and every colour
// parses.
func (g Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "node %d has no id", i)
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		if n.Mass < 0 || math.IsNaN(n.Mass) || math.IsInf(n.Mass, 0) {
			return errors.New(errors.ErrCodeInvalidMass, "node %q: mass must be positive and finite, got %v", n.ID, n.Mass)
		}
		if n.Pos != nil && !vec.New(n.Pos.X, n.Pos.Y).IsFinite() {
			return errors.New(errors.ErrCodeInvalidInput, "node %q: position must be finite", n.ID)
		}
		for _, c := range []string{n.Color, n.FontColor} {
			if _, err := ParseColor(c); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "node %q", n.ID)
			}
		}
	}
	for _, e := range g.Edges {
		if !seen[e.From] {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s→%s: unknown node %q", e.From, e.To, e.From)
		}
		if !seen[e.To] {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s→%s: unknown node %q", e.From, e.To, e.To)
		}
		if e.From == e.To {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s→%s: self loop", e.From, e.To)
		}
		if _, err := ParseColor(e.Color); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s→%s", e.From, e.To)
		}
	}
	return nil
}

// ParseColor reads "#rrggbb" or "#rrggbbaa". The empty string yields the
// zero colour, which the engine replaces with its default.
func ParseColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor writes c as "#rrggbb", or "#rrggbbaa" when it is not opaque.
func FormatColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
