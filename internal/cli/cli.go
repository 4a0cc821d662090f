// Package cli implements the forcegraph command-line interface.
package cli

import (
	"context"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/buildinfo"
	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/config"
	"github.com/matzehuels/forcegraph/pkg/crawl"
	"github.com/matzehuels/forcegraph/pkg/httputil"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "forcegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Forcegraph grows and animates force-directed graphs",
		Long: `Forcegraph is a force-directed graph visualiser. Nodes repel each other,
edges pull like springs, and a Wikipedia link crawler grows the graph while
you drag, pin and expand nodes in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			installHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/forcegraph/config.toml)")

	root.AddCommand(c.viewCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// settings returns the loaded configuration, or the defaults when a command
// runs without the root pre-run (as in tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Component Factories
// =============================================================================

// newEngine creates an engine with the configured physics and a seed.
// A zero seed draws one at random.
func (c *CLI) newEngine(seed uint64) (*physics.Engine, *rand.Rand, error) {
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	e, err := physics.New(physics.WithParams(c.settings().Physics), physics.WithRand(rng))
	if err != nil {
		return nil, nil, err
	}
	return e, rng, nil
}

// newCache opens the configured cache backend. A backend that cannot be
// reached is logged and replaced by the null cache so crawling still works.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	store, err := cache.Open(ctx, c.settings().CacheOptions())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", c.settings().Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return store
}

// newFetcher builds the rate-limited wiki fetcher.
func (c *CLI) newFetcher(store cache.Cache) *crawl.WikiFetcher {
	cfg := c.settings().Crawl
	client := httputil.NewClient(
		httputil.WithRateLimit(cfg.Rate, cfg.Burst),
		httputil.WithUserAgent(cfg.UserAgent),
	)
	opts := crawl.WikiOptions{
		BaseURL: cfg.BaseURL,
		Cache:   store,
		TTL:     c.settings().Cache.TTL.Duration,
	}
	if prefix := c.settings().Cache.Prefix; prefix != "" {
		opts.Keyer = cache.NewScopedKeyer(nil, prefix)
	}
	return crawl.NewWikiFetcher(client, opts)
}

// newCrawler attaches a crawler to e.
func (c *CLI) newCrawler(e *physics.Engine, f crawl.Fetcher, rng *rand.Rand, logger *log.Logger) *crawl.Crawler {
	opts := c.settings().CrawlOptions()
	opts.Logger = logger
	opts.Rand = rng
	return crawl.New(e, f, opts)
}
