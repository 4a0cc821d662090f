package graph

import (
	"fmt"
	"math/rand/v2"
)

// Random returns a connected graph with n nodes and about extra edges on
// top of a random spanning tree. Each node i > 0 first links to a uniformly
// chosen earlier node; extra edges then join random unlinked pairs until
// the count is reached or the graph is complete. Nodes carry no position.
func Random(n, extra int, rng *rand.Rand) Graph {
	if n <= 0 {
		return Graph{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g := Graph{Nodes: make([]Node, n)}
	for i := range n {
		g.Nodes[i] = Node{ID: fmt.Sprintf("n%d", i)}
	}

	type pair struct{ a, b int }
	linked := make(map[pair]bool)
	link := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		linked[pair{a, b}] = true
		g.Edges = append(g.Edges, Edge{From: g.Nodes[a].ID, To: g.Nodes[b].ID})
	}

	for i := 1; i < n; i++ {
		link(rng.IntN(i), i)
	}

	free := n*(n-1)/2 - (n - 1)
	extra = min(max(extra, 0), free)
	if extra == 0 {
		return g
	}

	// Dense requests enumerate the remaining pairs; sparse ones sample.
	if extra > free/2 {
		rest := make([]pair, 0, free)
		for a := range n {
			for b := a + 1; b < n; b++ {
				if !linked[pair{a, b}] {
					rest = append(rest, pair{a, b})
				}
			}
		}
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		for _, p := range rest[:extra] {
			link(p.a, p.b)
		}
		return g
	}

	for added := 0; added < extra; {
		a, b := rng.IntN(n), rng.IntN(n)
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		if linked[pair{a, b}] {
			continue
		}
		link(a, b)
		added++
	}
	return g
}
