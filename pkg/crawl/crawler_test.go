package crawl

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

type fakeFetcher struct {
	mu    sync.Mutex
	links map[string][]string
	fail  map[string]error
	calls map[string]int
}

func newFakeFetcher(links map[string][]string) *fakeFetcher {
	return &fakeFetcher{links: links, fail: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Links(ctx context.Context, page string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[page]++
	if err := f.fail[page]; err != nil {
		return nil, err
	}
	return f.links[page], nil
}

func (f *fakeFetcher) setFail(page string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[page] = err
}

type harness struct {
	t       *testing.T
	engine  *physics.Engine
	crawler *Crawler
}

func newHarness(t *testing.T, f Fetcher, opts Options) *harness {
	t.Helper()
	e, err := physics.New()
	if err != nil {
		t.Fatal(err)
	}
	opts.Rand = rand.New(rand.NewPCG(7, 7))
	return &harness{t: t, engine: e, crawler: New(e, f, opts)}
}

// start runs the worker pool until the test ends.
func (h *harness) start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.crawler.Run(ctx) }()
	h.t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			h.t.Errorf("Run: %v", err)
		}
	})
}

func (h *harness) waitState(node physics.Handle, want State) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s, err := h.crawler.State(node); err == nil && s == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	s, _ := h.crawler.State(node)
	h.t.Fatalf("node %d stuck in %s, want %s", node, s, want)
}

// neighbours returns the names adjacent to the named page.
func (h *harness) neighbours(name string) map[string]bool {
	out := map[string]bool{}
	h.engine.View(func(tx *physics.Tx) {
		p := h.crawler.byName[name]
		if p == nil {
			return
		}
		n, _ := tx.Node(p.handle)
		for m := range n.Edges() {
			out[m.Style.Value.Name] = true
		}
	})
	return out
}

func (h *harness) handle(name string) physics.Handle {
	var out physics.Handle
	h.engine.View(func(tx *physics.Tx) {
		if p := h.crawler.byName[name]; p != nil {
			out = p.handle
		}
	})
	return out
}

func TestSeed(t *testing.T) {
	h := newHarness(t, newFakeFetcher(nil), Options{})

	root, err := h.crawler.Seed("Graph_theory")
	if err != nil {
		t.Fatal(err)
	}
	again, err := h.crawler.Seed("Graph_theory")
	if err != nil || again != root {
		t.Errorf("reseeding returned %d, %v; want %d", again, err, root)
	}
	if _, err := h.crawler.Seed("Talk:Graph"); !errors.Is(err, errors.ErrCodeInvalidPage) {
		t.Errorf("Seed(Talk:Graph) error = %v", err)
	}
	if h.engine.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.engine.Len())
	}
	if s, _ := h.crawler.State(root); s != Unfetched {
		t.Errorf("State = %s", s)
	}
}

func TestExpandRevealsInitialLinks(t *testing.T) {
	f := newFakeFetcher(map[string][]string{
		"Root": {"A", "B", "C", "D", "E", "F", "G", "Root"},
	})
	h := newHarness(t, f, Options{InitialReveal: 5, SpawnDist: 7})
	h.start()

	root, _ := h.crawler.Seed("Root")
	if err := h.crawler.Expand(root); err != nil {
		t.Fatal(err)
	}
	h.waitState(root, Fetched)

	got := h.neighbours("Root")
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		if !got[name] {
			t.Errorf("%s not revealed", name)
		}
		if !h.neighbours(name)["Root"] {
			t.Errorf("%s -> Root missing; reveal must add both directions", name)
		}
	}
	if len(got) != 5 {
		t.Errorf("revealed %d links, want 5", len(got))
	}

	h.engine.View(func(tx *physics.Tx) {
		rn, _ := tx.Node(root)
		if rn.Style.Value.FontColor != idleFont {
			t.Errorf("font colour after fetch = %v", rn.Style.Value.FontColor)
		}
		for m := range rn.Edges() {
			if d := m.Pos.Dist(rn.Pos); math.Abs(d-7) > 1e-9 {
				t.Errorf("%s spawned %v from parent, want 7", m.Style.Value.Name, d)
			}
		}
	})

	// Expanding a fetched page reveals exactly one more link.
	if err := h.crawler.Expand(root); err != nil {
		t.Fatal(err)
	}
	if got := h.neighbours("Root"); len(got) != 6 || !got["F"] {
		t.Errorf("after second expand: %v", got)
	}

	// G, then the self link, then nothing.
	_ = h.crawler.Expand(root)
	_ = h.crawler.Expand(root)
	if got := h.neighbours("Root"); len(got) != 7 || got["Root"] {
		t.Errorf("after exhausting links: %v", got)
	}
}

func TestRevealPolicyForExistingPages(t *testing.T) {
	links := map[string][]string{
		"Root": {"A", "B"},
		"A":    {"B", "C"},
	}

	tests := []struct {
		name      string
		reconnect bool
		wantAB    bool
	}{
		{"SkipExisting", false, false},
		{"Reconnect", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, newFakeFetcher(links), Options{InitialReveal: 1, Reconnect: tt.reconnect})
			h.start()

			root, _ := h.crawler.Seed("Root")
			_ = h.crawler.Expand(root)
			h.waitState(root, Fetched)
			_ = h.crawler.Expand(root) // reveal B

			a := h.handle("A")
			_ = h.crawler.Expand(a)
			h.waitState(a, Fetched)

			got := h.neighbours("A")
			if got["B"] != tt.wantAB {
				t.Errorf("A-B edge = %v, want %v", got["B"], tt.wantAB)
			}
			// Without reconnect the single initial reveal moves on to C.
			if got["C"] == tt.reconnect {
				t.Errorf("A-C edge = %v", got["C"])
			}
			if h.engine.Len() != 3+boolInt(!tt.reconnect) {
				t.Errorf("Len = %d", h.engine.Len())
			}
		})
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestFailedFetchIsRetryable(t *testing.T) {
	f := newFakeFetcher(map[string][]string{"Root": {"A"}})
	f.setFail("Root", errors.New(errors.ErrCodeNetwork, "boom"))
	h := newHarness(t, f, Options{})
	h.start()

	root, _ := h.crawler.Seed("Root")
	_ = h.crawler.Expand(root)

	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		n := f.calls["Root"]
		f.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("fetch never ran")
		}
		time.Sleep(time.Millisecond)
	}
	h.waitState(root, Unfetched)

	h.engine.View(func(tx *physics.Tx) {
		n, _ := tx.Node(root)
		if n.Style.Value.FontColor != idleFont {
			t.Errorf("font colour not restored: %v", n.Style.Value.FontColor)
		}
	})

	f.setFail("Root", nil)
	_ = h.crawler.Expand(root)
	h.waitState(root, Fetched)
	if !h.neighbours("Root")["A"] {
		t.Error("retry did not reveal A")
	}
}

func TestExpandQueueFull(t *testing.T) {
	h := newHarness(t, newFakeFetcher(nil), Options{Queue: 1})
	a, _ := h.crawler.Seed("A")
	b, _ := h.crawler.Seed("B")

	if err := h.crawler.Expand(a); err != nil {
		t.Fatal(err)
	}
	if s, _ := h.crawler.State(a); s != Fetching {
		t.Errorf("A state = %s, want fetching", s)
	}
	h.engine.View(func(tx *physics.Tx) {
		n, _ := tx.Node(a)
		if n.Style.Value.FontColor != fetchingFont || n.Style.Valid() {
			t.Error("fetching page should get a yellow, invalidated label")
		}
	})

	err := h.crawler.Expand(b)
	if !errors.Is(err, errors.ErrCodeQueueFull) {
		t.Errorf("second Expand error = %v, want %s", err, errors.ErrCodeQueueFull)
	}
	if s, _ := h.crawler.State(b); s != Unfetched {
		t.Errorf("B state = %s, want unfetched", s)
	}

	// Expanding while fetching is a no-op.
	if err := h.crawler.Expand(a); err != nil {
		t.Errorf("Expand while fetching: %v", err)
	}
}

func TestRestyleByDegree(t *testing.T) {
	f := newFakeFetcher(map[string][]string{
		"Big":   {"A", "B", "C", "D"},
		"Small": {"A"},
	})
	h := newHarness(t, f, Options{InitialReveal: -1})
	h.start()

	big, _ := h.crawler.Seed("Big")
	small, _ := h.crawler.Seed("Small")
	_ = h.crawler.Expand(big)
	h.waitState(big, Fetched)
	_ = h.crawler.Expand(small)
	h.waitState(small, Fetched)

	h.engine.View(func(tx *physics.Tx) {
		bn, _ := tx.Node(big)
		sn, _ := tx.Node(small)
		if bn.Style.Value.Radius != 28 {
			t.Errorf("big radius = %v, want 28", bn.Style.Value.Radius)
		}
		if c := bn.Style.Value.Color; c.R != 255 || c.B != 0 {
			t.Errorf("big colour = %v, want red", c)
		}
		if sn.Style.Value.Radius != 13 {
			t.Errorf("small radius = %v, want 13", sn.Style.Value.Radius)
		}
		if c := sn.Style.Value.Color; c.R != 63 || c.B != 191 {
			t.Errorf("small colour = %v", c)
		}
	})

	if got := h.crawler.Stats(); got.Fetched != 2 || got.Highest != 4 || got.Pages != 2 {
		t.Errorf("Stats = %+v", got)
	}
}

func TestTogglePin(t *testing.T) {
	h := newHarness(t, newFakeFetcher(nil), Options{})
	root, _ := h.crawler.Seed("Root")

	pinned, err := h.crawler.TogglePin(root)
	if err != nil || !pinned {
		t.Fatalf("TogglePin = %v, %v", pinned, err)
	}
	h.engine.View(func(tx *physics.Tx) {
		n, _ := tx.Node(root)
		if !n.Static || n.Style.Value.Color != pinnedColor {
			t.Errorf("pinned node: static=%v colour=%v", n.Static, n.Style.Value.Color)
		}
	})

	pinned, _ = h.crawler.TogglePin(root)
	h.engine.View(func(tx *physics.Tx) {
		n, _ := tx.Node(root)
		if pinned || n.Static || n.Style.Value.Color == pinnedColor {
			t.Errorf("unpinned node: static=%v colour=%v", n.Static, n.Style.Value.Color)
		}
	})

	if _, err := h.crawler.TogglePin(12345); !errors.Is(err, errors.ErrCodeStaleHandle) {
		t.Errorf("TogglePin(unknown) = %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, newFakeFetcher(nil), Options{Workers: 3})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.crawler.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil && !stderrors.Is(err, context.Canceled) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// cancelledFetcher fails once its context is done.
type cancelledFetcher struct{}

func (cancelledFetcher) Links(ctx context.Context, page string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{page + "_child"}, nil
}

func TestRunReleasesQueuedJobs(t *testing.T) {
	h := newHarness(t, cancelledFetcher{}, Options{Workers: 1, Queue: 4})
	var nodes []physics.Handle
	for _, name := range []string{"A", "B", "C"} {
		n, err := h.crawler.Seed(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := h.crawler.Expand(n); err != nil {
			t.Fatal(err)
		}
		nodes = append(nodes, n)
	}
	if got := h.crawler.Stats().Fetching; got != 3 {
		t.Fatalf("fetching = %d before Run, want 3", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.crawler.Run(ctx); err != nil {
		t.Fatalf("Run = %v", err)
	}

	if got := h.crawler.Stats().Fetching; got != 0 {
		t.Errorf("fetching = %d after Run, want 0", got)
	}
	for _, n := range nodes {
		if s, _ := h.crawler.State(n); s != Unfetched {
			t.Errorf("node %d state = %s, want unfetched", n, s)
		}
	}
	h.engine.View(func(tx *physics.Tx) {
		for _, n := range nodes {
			node, _ := tx.Node(n)
			if node.Style.Value.FontColor != idleFont {
				t.Errorf("node %d kept the fetching font", n)
			}
		}
	})
}
