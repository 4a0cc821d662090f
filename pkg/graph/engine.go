package graph

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/physics"
	"github.com/matzehuels/forcegraph/pkg/vec"
)

// LoadOptions controls how a Graph is placed into an engine.
type LoadOptions struct {
	// Spread is the radius of the disc unpositioned nodes are scattered in.
	// Zero means 10·√n world units.
	Spread float64
	Rand   *rand.Rand
}

// Load creates every node and edge of g inside one engine transaction and
// returns the handle assigned to each node ID. g is validated before
// anything is created.
func Load(e *physics.Engine, g Graph, opts LoadOptions) (map[string]physics.Handle, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	spread := opts.Spread
	if spread <= 0 {
		spread = 10 * math.Sqrt(float64(max(len(g.Nodes), 1)))
	}

	handles := make(map[string]physics.Handle, len(g.Nodes))
	err := e.Update(func(tx *physics.Tx) error {
		for _, n := range g.Nodes {
			spec, err := nodeSpec(n, rng, spread)
			if err != nil {
				return err
			}
			h, err := tx.CreateNode(spec)
			if err != nil {
				return fmt.Errorf("node %q: %w", n.ID, err)
			}
			handles[n.ID] = h
		}
		for _, ed := range g.Edges {
			style, err := edgeStyle(ed)
			if err != nil {
				return err
			}
			from, to := handles[ed.From], handles[ed.To]
			if ed.OneWay {
				err = tx.Connect(from, to, style)
			} else {
				err = tx.ConnectMutual(from, to, style)
			}
			if err != nil {
				return fmt.Errorf("edge %s→%s: %w", ed.From, ed.To, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handles, nil
}

func nodeSpec(n Node, rng *rand.Rand, spread float64) (physics.NodeSpec, error) {
	col, err := ParseColor(n.Color)
	if err != nil {
		return physics.NodeSpec{}, err
	}
	font, err := ParseColor(n.FontColor)
	if err != nil {
		return physics.NodeSpec{}, err
	}

	var pos vec.Vec
	if n.Pos != nil {
		pos = vec.New(n.Pos.X, n.Pos.Y)
	} else {
		// Uniform over the disc.
		r := spread * math.Sqrt(rng.Float64())
		pos = vec.Unit(rng.Float64() * 2 * math.Pi).Scale(r)
	}

	return physics.NodeSpec{
		Pos:    pos,
		Mass:   n.Mass,
		Static: n.Static,
		Style: physics.Style{
			Name:      n.DisplayLabel(),
			Color:     col,
			Radius:    n.Radius,
			FontColor: font,
		},
	}, nil
}

func edgeStyle(e Edge) (*physics.EdgeStyle, error) {
	if e.Thickness == 0 && e.Color == "" {
		return nil, nil
	}
	s := physics.DefaultEdgeStyle()
	if e.Thickness > 0 {
		s.Thickness = e.Thickness
	}
	if e.Color != "" {
		c, err := ParseColor(e.Color)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s→%s", e.From, e.To)
		}
		s.Color = c
	}
	return &s, nil
}

// Capture copies the engine's nodes and edges into a Graph under the
// engine lock. Node IDs are style names where those are unique, and
// "n<handle>" otherwise. An edge present in both directions is written
// once, from the lower handle; one that is not becomes a one-way edge.
// Edges are ordered by source then target handle.
func Capture(e *physics.Engine) Graph {
	var g Graph
	e.View(func(tx *physics.Tx) {
		names := make(map[string]int, tx.Len())
		for n := range tx.Nodes() {
			names[n.Style.Value.Name]++
		}
		ids := make(map[physics.Handle]string, tx.Len())
		for n := range tx.Nodes() {
			id := n.Style.Value.Name
			if id == "" || names[id] > 1 {
				id = fmt.Sprintf("n%d", n.Handle())
			}
			ids[n.Handle()] = id
			g.Nodes = append(g.Nodes, captureNode(n, id))
		}

		type edge struct {
			from, to physics.Handle
			e        Edge
		}
		var edges []edge
		for n := range tx.Nodes() {
			for m, style := range n.Edges() {
				if m == n {
					continue
				}
				mutual := m.HasEdge(n)
				if mutual && m.Handle() < n.Handle() {
					continue
				}
				ed := Edge{From: ids[n.Handle()], To: ids[m.Handle()], OneWay: !mutual}
				if style != physics.DefaultEdgeStyle() {
					ed.Thickness = style.Thickness
					ed.Color = FormatColor(style.Color)
				}
				edges = append(edges, edge{n.Handle(), m.Handle(), ed})
			}
		}
		slices.SortFunc(edges, func(a, b edge) int {
			return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.to, b.to))
		})
		g.Edges = make([]Edge, len(edges))
		for i, ed := range edges {
			g.Edges[i] = ed.e
		}
	})
	return g
}

func captureNode(n *physics.Node, id string) Node {
	s := n.Style.Value
	out := Node{
		ID:        id,
		Handle:    uint64(n.Handle()),
		Pos:       &Point{X: n.Pos.X, Y: n.Pos.Y},
		Static:    n.Static,
		Radius:    s.Radius,
		Color:     FormatColor(s.Color),
		FontColor: FormatColor(s.FontColor),
	}
	if s.Name != id {
		out.Label = s.Name
	}
	if n.Mass != 1 {
		out.Mass = n.Mass
	}
	return out
}
