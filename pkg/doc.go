// Package pkg holds the libraries behind the forcegraph command.
//
// # Overview
//
// Forcegraph animates force-directed graphs: every node repels every other,
// edges pull like springs, and the picture settles into a readable layout
// while the user drags, pins and grows it. The pkg directory is organised
// into three areas:
//
//  1. Simulation - [physics] (engine, forces, integration, transactions),
//     [vec] (2-D vectors) and [frame] (frame clock).
//  2. Interaction and output - [interact] (viewport, picking, dragging),
//     [graph] (JSON format, load and capture) and [export] (DOT and SVG).
//  3. Producers and infrastructure - [crawl] (Wikipedia link crawler),
//     [cache], [httputil], [config], [server], [observability], [errors]
//     and [buildinfo].
//
// # Data Flow
//
//	graph file / crawler
//	         ↓
//	    [physics] Engine.Update (nodes and edges created under the lock)
//	         ↓
//	    frame driver: [frame] Clock → Engine.Tick(dt)
//	         ↓
//	    [graph] Capture / terminal canvas / [server] snapshots
//	         ↓
//	    JSON, DOT, SVG
//
// # Quick Start
//
//	e, _ := physics.New()
//	g, _ := graph.ReadGraphFile("examples/lattice.json")
//	graph.Load(e, g, graph.LoadOptions{})
//	for !e.Settled(0.05) {
//	    e.Tick(0.02)
//	}
//	export.WriteFile(ctx, "lattice.svg", graph.Capture(e), export.Options{})
//
// [physics]: github.com/matzehuels/forcegraph/pkg/physics
// [vec]: github.com/matzehuels/forcegraph/pkg/vec
// [frame]: github.com/matzehuels/forcegraph/pkg/frame
// [interact]: github.com/matzehuels/forcegraph/pkg/interact
// [graph]: github.com/matzehuels/forcegraph/pkg/graph
// [export]: github.com/matzehuels/forcegraph/pkg/export
// [crawl]: github.com/matzehuels/forcegraph/pkg/crawl
// [cache]: github.com/matzehuels/forcegraph/pkg/cache
// [httputil]: github.com/matzehuels/forcegraph/pkg/httputil
// [config]: github.com/matzehuels/forcegraph/pkg/config
// [server]: github.com/matzehuels/forcegraph/pkg/server
// [observability]: github.com/matzehuels/forcegraph/pkg/observability
// [errors]: github.com/matzehuels/forcegraph/pkg/errors
// [buildinfo]: github.com/matzehuels/forcegraph/pkg/buildinfo
package pkg
