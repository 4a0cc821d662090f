package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/export"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

// Defaults for the simulate command.
const (
	defaultSimNodes     = 40
	defaultSimEdges     = 20
	defaultSimDt        = 0.02
	defaultSimMaxTicks  = 20000
	defaultSimThreshold = 0.05
	simReportEvery      = 100
)

// simulateOptions holds flags for the simulate command.
type simulateOptions struct {
	nodes      int
	edges      int
	seed       uint64
	dt         float64
	maxTicks   int
	threshold  float64
	output     string
	hideLabels bool
}

// simulateCommand creates the headless simulation command.
func (c *CLI) simulateCommand() *cobra.Command {
	opts := simulateOptions{
		nodes:     defaultSimNodes,
		edges:     defaultSimEdges,
		dt:        defaultSimDt,
		maxTicks:  defaultSimMaxTicks,
		threshold: defaultSimThreshold,
	}

	cmd := &cobra.Command{
		Use:   "simulate [graph.json]",
		Short: "Run a graph until it settles and export the layout",
		Long: `Run the physics engine without a display.

The graph comes from a JSON graph file, or is a random connected graph when
no file is given. The simulation advances in fixed steps of --dt seconds
until every node is slower than --threshold or --max-ticks is reached. The
settled layout is written to --output as JSON, DOT or SVG, chosen by the
file extension.`,
		Example: `  forcegraph simulate --nodes 100 --edges 40 -o random.svg
  forcegraph simulate examples/lattice.json -o lattice.json --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runSimulate(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().IntVar(&opts.nodes, "nodes", opts.nodes, "nodes in a random graph")
	cmd.Flags().IntVar(&opts.edges, "edges", opts.edges, "extra edges in a random graph beyond its spanning tree")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 for random)")
	cmd.Flags().Float64Var(&opts.dt, "dt", opts.dt, "seconds simulated per tick")
	cmd.Flags().IntVar(&opts.maxTicks, "max-ticks", opts.maxTicks, "stop after this many ticks")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", opts.threshold, "speed below which a node counts as settled")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the layout here (.json, .dot or .svg)")
	cmd.Flags().BoolVar(&opts.hideLabels, "hide-labels", false, "omit node names from DOT and SVG output")

	return cmd
}

func (c *CLI) runSimulate(ctx context.Context, input string, opts simulateOptions) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	var format export.Format
	if opts.output != "" {
		f, err := export.FormatFromPath(opts.output)
		if err != nil {
			return err
		}
		format = f
	}

	engine, rng, err := c.newEngine(opts.seed)
	if err != nil {
		return err
	}

	var g graph.Graph
	if input != "" {
		if g, err = graph.ReadGraphFile(input); err != nil {
			return err
		}
	} else {
		if opts.nodes < 0 || opts.edges < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "--nodes and --edges must not be negative")
		}
		g = graph.Random(opts.nodes, opts.edges, rng)
	}
	if _, err := graph.Load(engine, g, graph.LoadOptions{Rand: rng}); err != nil {
		return err
	}
	logger.Debug("loaded graph", "nodes", len(g.Nodes), "edges", len(g.Edges))

	spinner := newSpinner(ctx, "Simulating...")
	spinner.Start()
	res, err := settle(ctx, engine, opts, func(r settleResult) {
		spinner.SetMessage("Simulating... tick %d, energy %.4g", r.Ticks, r.Energy)
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	if res.Settled {
		printSuccess("Settled after %d ticks", res.Ticks)
	} else {
		printWarning("Stopped after %d ticks without settling", res.Ticks)
	}
	printKeyValue("Simulated", fmt.Sprintf("%.2fs", float64(res.Ticks)*opts.dt))
	printKeyValue("Energy", fmt.Sprintf("%.4g", res.Energy))
	printKeyValue("Wall time", res.Took.Round(time.Millisecond).String())

	snap := graph.Capture(engine)
	printStats(len(snap.Nodes), len(snap.Edges))

	if opts.output == "" {
		printNextStep("Export the layout", "forcegraph simulate -o layout.svg")
		return nil
	}
	if err := export.WriteFile(ctx, opts.output, snap, export.Options{HideLabels: opts.hideLabels}); err != nil {
		return err
	}
	printFile(opts.output)
	prog.done("Exported " + string(format))
	return nil
}

// settleResult describes a headless run.
type settleResult struct {
	Ticks   int
	Energy  float64
	Settled bool
	Took    time.Duration
}

// settle ticks e in fixed steps until it settles, maxTicks is reached or ctx
// is cancelled. report is called every simReportEvery ticks.
func settle(ctx context.Context, e *physics.Engine, opts simulateOptions, report func(settleResult)) (settleResult, error) {
	if !(opts.dt > 0) {
		return settleResult{}, errors.New(errors.ErrCodeInvalidInput, "--dt must be positive, got %v", opts.dt)
	}
	start := time.Now()
	var res settleResult
	for res.Ticks < opts.maxTicks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Energy = e.Tick(opts.dt).KineticEnergy
		res.Ticks++
		if e.Settled(opts.threshold) {
			res.Settled = true
			break
		}
		if report != nil && res.Ticks%simReportEvery == 0 {
			res.Took = time.Since(start)
			report(res)
		}
	}
	res.Took = time.Since(start)
	return res, nil
}
