package crawl

import (
	"context"
	"image/color"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/observability"
	"github.com/matzehuels/forcegraph/pkg/physics"
	"github.com/matzehuels/forcegraph/pkg/vec"
)

// State is the fetch state of a page.
type State int

const (
	Unfetched State = iota
	Fetching
	Fetched
)

func (s State) String() string {
	switch s {
	case Unfetched:
		return "unfetched"
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	default:
		return "unknown"
	}
}

// Defaults for Options.
const (
	DefaultWorkers       = 4
	DefaultQueue         = 64
	DefaultInitialReveal = 5
	DefaultSpawnDist     = 7.0
)

var (
	unfetchedColor = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	pinnedColor    = color.RGBA{G: 255, A: 255}
	fetchingFont   = color.RGBA{R: 255, G: 255, A: 255}
	idleFont       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Options configures a Crawler.
type Options struct {
	Workers       int     // concurrent fetches
	Queue         int     // pending fetch jobs before Expand reports QUEUE_FULL
	InitialReveal int     // links revealed when a fetch completes; 0 means default, negative none
	SpawnDist     float64 // distance from the parent at which new nodes appear
	Reconnect     bool    // join already-present pages instead of skipping them

	Logger *log.Logger
	Rand   *rand.Rand
}

// page is the crawler's record for one node. Guarded by the engine lock.
type page struct {
	name         string
	handle       physics.Handle
	state        State
	unrevealed   []string
	degree       int
	manualStatic bool
}

type job struct {
	id     string
	handle physics.Handle
	name   string
}

// Crawler turns expand requests into fetch jobs and merges their results
// into an engine.
type Crawler struct {
	engine  *physics.Engine
	fetcher Fetcher
	opts    Options
	logger  *log.Logger
	jobs    chan job

	// Guarded by the engine lock: only touched inside Update and View.
	pages   map[physics.Handle]*page
	byName  map[string]*page
	highest int
	rng     *rand.Rand
}

// New returns a crawler that commits into engine.
func New(engine *physics.Engine, fetcher Fetcher, opts Options) *Crawler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Queue <= 0 {
		opts.Queue = DefaultQueue
	}
	switch {
	case opts.InitialReveal == 0:
		opts.InitialReveal = DefaultInitialReveal
	case opts.InitialReveal < 0:
		opts.InitialReveal = 0
	}
	if opts.SpawnDist <= 0 {
		opts.SpawnDist = DefaultSpawnDist
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Crawler{
		engine:  engine,
		fetcher: fetcher,
		opts:    opts,
		logger:  opts.Logger,
		jobs:    make(chan job, opts.Queue),
		pages:   make(map[physics.Handle]*page),
		byName:  make(map[string]*page),
		highest: 1,
		rng:     opts.Rand,
	}
}

// Seed creates the root page at the world origin. Seeding a name that
// already has a node returns the existing handle.
func (c *Crawler) Seed(name string) (physics.Handle, error) {
	if err := errors.ValidatePageName(name); err != nil {
		return 0, err
	}
	var h physics.Handle
	err := c.engine.Update(func(tx *physics.Tx) error {
		if p, ok := c.byName[name]; ok {
			h = p.handle
			return nil
		}
		p, err := c.createPage(tx, name, vec.Zero, 0)
		if err != nil {
			return err
		}
		h = p.handle
		return nil
	})
	return h, err
}

// Expand fetches an unfetched page or reveals one more link of a fetched
// one. Expanding a page that is being fetched does nothing.
func (c *Crawler) Expand(h physics.Handle) error {
	var queued *job
	err := c.engine.Update(func(tx *physics.Tx) error {
		p, n, err := c.lookup(tx, h)
		if err != nil {
			return err
		}
		switch p.state {
		case Unfetched:
			j := job{id: uuid.NewString(), handle: h, name: p.name}
			select {
			case c.jobs <- j:
			default:
				return errors.New(errors.ErrCodeQueueFull, "fetch queue full, %q not queued", p.name)
			}
			p.state = Fetching
			setFont(n, fetchingFont)
			queued = &j
		case Fetched:
			if _, err := c.revealOne(tx, p, n); err != nil {
				return err
			}
		}
		return nil
	})
	if queued != nil {
		c.logger.Debug("queued fetch", "page", queued.name, "job", queued.id)
	}
	return err
}

// TogglePin flips the manual pin of h. A pinned node is static and drawn
// green. It returns the new pin state.
func (c *Crawler) TogglePin(h physics.Handle) (bool, error) {
	var pinned bool
	err := c.engine.Update(func(tx *physics.Tx) error {
		p, n, err := c.lookup(tx, h)
		if err != nil {
			return err
		}
		p.manualStatic = !p.manualStatic
		n.Static = p.manualStatic
		c.restyle(p, n)
		pinned = p.manualStatic
		return nil
	})
	return pinned, err
}

// State returns the fetch state of h.
func (c *Crawler) State(h physics.Handle) (State, error) {
	var s State
	var err error
	c.engine.View(func(tx *physics.Tx) {
		p, ok := c.pages[h]
		if !ok {
			err = errors.New(errors.ErrCodeStaleHandle, "no page for node %d", h)
			return
		}
		s = p.state
	})
	return s, err
}

// Stats summarises the crawl.
type Stats struct {
	Pages    int `json:"pages"`
	Fetching int `json:"fetching"`
	Fetched  int `json:"fetched"`
	Highest  int `json:"highest"` // largest link count of any fetched page
}

// Stats returns current crawl counters.
func (c *Crawler) Stats() Stats {
	var s Stats
	c.engine.View(func(tx *physics.Tx) {
		s.Pages = len(c.pages)
		s.Highest = c.highest
		for _, p := range c.pages {
			switch p.state {
			case Fetching:
				s.Fetching++
			case Fetched:
				s.Fetched++
			}
		}
	})
	return s
}

// Run starts the worker pool and blocks until ctx is cancelled or a worker
// fails. Fetch errors are not fatal; the page returns to Unfetched. Jobs
// still queued when Run returns are dropped and their pages made
// expandable again.
func (c *Crawler) Run(ctx context.Context) error {
	defer c.drain()
	g, ctx := errgroup.WithContext(ctx)
	for range c.opts.Workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case j := <-c.jobs:
					if err := c.process(ctx, j); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}

// drain empties the job queue, returning every queued page to Unfetched.
func (c *Crawler) drain() {
	var dropped []job
loop:
	for {
		select {
		case j := <-c.jobs:
			dropped = append(dropped, j)
		default:
			break loop
		}
	}
	if len(dropped) == 0 {
		return
	}
	_ = c.engine.Update(func(tx *physics.Tx) error {
		for _, j := range dropped {
			c.fail(tx, j.handle)
		}
		return nil
	})
	c.logger.Debug("dropped queued fetches", "count", len(dropped))
}

// process fetches j off-lock and commits the result.
func (c *Crawler) process(ctx context.Context, j job) error {
	logger := c.logger.With("page", j.name, "job", j.id)
	hooks := observability.Crawl()
	hooks.OnFetchStart(ctx, j.name)

	start := time.Now()
	links, err := c.fetcher.Links(ctx, j.name)
	hooks.OnFetchComplete(ctx, j.name, len(links), time.Since(start), err)

	if err != nil && ctx.Err() != nil {
		// Shutting down: leave the page retryable and stop quietly.
		_ = c.engine.Update(func(tx *physics.Tx) error {
			c.fail(tx, j.handle)
			return nil
		})
		return nil
	}
	if err != nil {
		logger.Warn("fetch failed", "err", errors.UserMessage(err))
	}

	var revealed int
	mergeErr := c.engine.Update(func(tx *physics.Tx) error {
		if err != nil {
			c.fail(tx, j.handle)
			return nil
		}
		var merr error
		revealed, merr = c.merge(tx, j.handle, links)
		return merr
	})
	if mergeErr != nil {
		if errors.Is(mergeErr, errors.ErrCodeStaleHandle) {
			logger.Warn("dropping result for unknown node", "handle", j.handle)
			return nil
		}
		return mergeErr
	}
	if err == nil {
		hooks.OnMerge(ctx, j.name, revealed)
		logger.Info("fetched", "links", len(links), "revealed", revealed, "took", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// merge commits fetched links. Called under the engine lock.
func (c *Crawler) merge(tx *physics.Tx, h physics.Handle, links []string) (int, error) {
	p, n, err := c.lookup(tx, h)
	if err != nil {
		return 0, err
	}
	p.state = Fetched
	p.unrevealed = links
	p.degree = len(links)
	c.highest = max(c.highest, len(links))
	setFont(n, idleFont)

	revealed := 0
	for range c.opts.InitialReveal {
		ok, err := c.revealOne(tx, p, n)
		if err != nil {
			return revealed, err
		}
		if !ok {
			break
		}
		revealed++
	}

	for _, q := range c.pages {
		if q.state != Fetched {
			continue
		}
		qn, err := tx.Node(q.handle)
		if err != nil {
			return revealed, err
		}
		c.restyle(q, qn)
	}
	return revealed, nil
}

// fail returns a page to Unfetched so it can be expanded again.
func (c *Crawler) fail(tx *physics.Tx, h physics.Handle) {
	p, n, err := c.lookup(tx, h)
	if err != nil {
		return
	}
	p.state = Unfetched
	setFont(n, idleFont)
}

// revealOne connects p to its next unrevealed link. It loops past links
// that cannot be revealed, so a reveal never releases the lock midway.
// It reports false once p has nothing left to reveal.
func (c *Crawler) revealOne(tx *physics.Tx, p *page, n *physics.Node) (bool, error) {
	for len(p.unrevealed) > 0 {
		name := p.unrevealed[0]
		p.unrevealed = p.unrevealed[1:]
		if name == p.name {
			continue
		}

		child, exists := c.byName[name]
		if exists && !c.opts.Reconnect {
			continue
		}
		if !exists {
			var err error
			child, err = c.createPage(tx, name, n.Pos, c.opts.SpawnDist)
			if err != nil {
				return false, err
			}
		}
		if err := tx.ConnectMutual(p.handle, child.handle, nil); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// createPage adds a node at a random point dist away from parent.
func (c *Crawler) createPage(tx *physics.Tx, name string, parent vec.Vec, dist float64) (*page, error) {
	pos := parent
	if dist > 0 {
		pos = pos.Add(vec.Unit(c.rng.Float64() * 2 * math.Pi).Scale(dist))
	}
	h, err := tx.CreateNode(physics.NodeSpec{
		Pos: pos,
		Style: physics.Style{
			Name:      name,
			Color:     unfetchedColor,
			FontColor: idleFont,
		},
	})
	if err != nil {
		return nil, err
	}
	p := &page{name: name, handle: h}
	c.pages[h] = p
	c.byName[name] = p
	return p, nil
}

func (c *Crawler) lookup(tx *physics.Tx, h physics.Handle) (*page, *physics.Node, error) {
	p, ok := c.pages[h]
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeStaleHandle, "no page for node %d", h)
	}
	n, err := tx.Node(h)
	if err != nil {
		return nil, nil, err
	}
	return p, n, nil
}
