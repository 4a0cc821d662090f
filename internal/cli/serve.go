package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/crawl"
	"github.com/matzehuels/forcegraph/pkg/export"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/server"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	addr       string
	graphFile  string
	noCache    bool
	seed       uint64
	hideLabels bool
}

// serveCommand creates the snapshot server command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [page]",
		Short: "Simulate in the background and serve snapshots over HTTP",
		Long: `Run the simulation without a display and serve it over HTTP.

With a page name a crawler grows the graph from that Wikipedia article and
clients can expand pages with POST /api/expand/{handle}. With --graph a graph
file is simulated instead.

Routes:
  GET  /api/snapshot         graph JSON
  GET  /api/stats            node count, energy and crawl counters
  GET  /snapshot.svg         SVG rendered with Graphviz
  GET  /snapshot.dot         Graphviz DOT
  POST /api/expand/{handle}  fetch a page or reveal one more link
  POST /api/pin/{handle}     pin or unpin a node
  POST /api/pause            stop the simulation
  POST /api/resume           restart it`,
		Example: `  forcegraph serve Graph_theory
  forcegraph serve --graph examples/lattice.json --addr :9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.graphFile == "" {
				return fmt.Errorf("need a page name or --graph")
			}
			page := ""
			if len(args) == 1 {
				page = args[0]
			}
			return c.runServe(cmd.Context(), page, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.graphFile, "graph", "", "serve a graph file instead of crawling")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the link cache")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 for random)")
	cmd.Flags().BoolVar(&opts.hideLabels, "hide-labels", false, "omit node names from DOT and SVG snapshots")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, page string, opts serveOptions) error {
	logger := loggerFromContext(ctx)
	cfg := c.settings()

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	engine, rng, err := c.newEngine(opts.seed)
	if err != nil {
		return err
	}

	var crawler *crawl.Crawler
	if opts.graphFile != "" {
		g, err := graph.ReadGraphFile(opts.graphFile)
		if err != nil {
			return err
		}
		if _, err := graph.Load(engine, g, graph.LoadOptions{Rand: rng}); err != nil {
			return err
		}
	} else {
		store := c.newCache(ctx, opts.noCache)
		defer store.Close()

		crawler = c.newCrawler(engine, c.newFetcher(store), rng, logger)
		root, err := crawler.Seed(page)
		if err != nil {
			return err
		}
		if err := crawler.Expand(root); err != nil {
			return err
		}
		printInfo("Crawling from %s", StyleHighlight.Render(page))
	}

	srv := server.New(engine, crawler, server.Options{
		TickRate: cfg.Server.TickRate,
		Export:   export.Options{HideLabels: opts.hideLabels},
		Logger:   logger,
	})
	printInfo("Serving snapshots at %s", StyleLink.Render("http://"+displayAddr(addr)+"/snapshot.svg"))

	err = srv.Run(ctx, addr)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// displayAddr turns a listen address like ":8080" into something a browser
// can open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
