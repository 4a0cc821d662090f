// Package export renders engine snapshots as Graphviz DOT, SVG and JSON.
//
// # Overview
//
// A snapshot is a [graph.Graph] taken with [graph.Capture], so it is
// consistent with a single instant of the simulation: the engine lock is
// held while it is copied and released before any rendering happens.
//
//	g := graph.Capture(engine)
//	dot := export.ToDOT(g, export.Options{})
//	svg, err := export.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] pins every node at its simulated position (pos="x,y!") and draws
// it as a filled circle sized and coloured from its style. Mutual edges
// are drawn without arrowheads; one-way edges point from source to target.
// World y grows downward on screen, so it is negated for Graphviz.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering with the neato engine, which honours pinned positions. No
// system Graphviz installation is needed.
package export
