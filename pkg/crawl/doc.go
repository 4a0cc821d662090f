// Package crawl grows a physics graph from wiki links.
//
// Every node the crawler creates stands for one wiki page and moves through
// three states:
//
//	Unfetched --Expand--> Fetching --fetch ok--> Fetched
//	    ^                     |
//	    +------fetch failed---+
//
// Expanding an unfetched page queues a fetch job. A bounded pool of workers
// (see [Crawler.Run]) downloads link lists off-lock and commits each result
// inside a single [physics.Engine.Update]: the page becomes Fetched, the
// first few links are revealed as new neighbour nodes, and every fetched
// page is restyled by its degree relative to the best-connected page.
// Expanding a page that is already fetched reveals one more link.
//
// Crawler bookkeeping lives under the engine lock alongside the nodes it
// describes, so a merge is atomic with respect to ticks, drags and other
// merges.
//
// # Revealing links
//
// Links are revealed in document order. When a link names a page that
// already has a node, [Options.Reconnect] decides what happens: by default
// the link is skipped and the next one is tried; with Reconnect set, the
// two existing nodes are joined by a mutual edge and that counts as the
// reveal.
package crawl
