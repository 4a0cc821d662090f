// Package graph is the node-link file format for force-directed graphs.
//
// A graph file lists nodes and the edges between them:
//
//	{
//	  "nodes": [
//	    {"id": "hub", "static": true, "pos": {"x": 0, "y": 0}},
//	    {"id": "leaf", "color": "#c83232"}
//	  ],
//	  "edges": [
//	    {"from": "hub", "to": "leaf"},
//	    {"from": "leaf", "to": "hub", "one_way": true}
//	  ]
//	}
//
// Edges are mutual unless marked one_way: the physics engine only pulls
// the source of a one-way edge, so a file that wants a symmetric spring
// leaves the flag off. Nodes without a position are scattered around the
// origin when loaded.
//
// # Engine Conversion
//
// [Load] creates the nodes and edges of a [Graph] inside one engine
// transaction. [Capture] goes the other way: it copies the engine's
// current state, positions and styles included, into a Graph that can be
// written back to disk or rendered by pkg/export.
//
//	g, _ := graph.ReadGraphFile("net.json")
//	handles, _ := graph.Load(engine, g, graph.LoadOptions{})
//	...
//	graph.WriteGraphFile(graph.Capture(engine), "settled.json")
//
// [Random] generates connected test graphs for headless runs.
package graph
