// Package server runs a simulation in the background and serves snapshots
// of it over HTTP.
//
// The server owns the frame loop: a ticker advances the engine at a fixed
// rate while handlers read it through [graph.Capture], so every response is
// a consistent snapshot taken under the engine lock. When a crawler is
// attached, clients can expand and pin nodes the same way the terminal
// viewer does.
//
// # Routes
//
//	GET  /health                 liveness
//	GET  /api/snapshot           graph JSON (see package graph)
//	GET  /api/stats              node count, energy and crawl counters
//	GET  /snapshot.dot           Graphviz DOT
//	GET  /snapshot.svg           SVG rendered with Graphviz
//	POST /api/expand/{handle}    fetch or reveal (crawler only)
//	POST /api/pin/{handle}       toggle a node's pin
//	POST /api/pause, /api/resume stop or restart the frame loop
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/forcegraph/pkg/crawl"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/export"
	"github.com/matzehuels/forcegraph/pkg/frame"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	TickRate float64 // simulation ticks per second
	Export   export.Options
	Logger   *log.Logger
}

// Server drives an engine and exposes it over HTTP.
type Server struct {
	engine  *physics.Engine
	crawler *crawl.Crawler // may be nil
	opts    Options
	logger  *log.Logger

	mu     sync.Mutex
	last   physics.TickStats
	ticks  uint64
	paused bool
}

// New returns a server for engine. crawler may be nil, in which case the
// expand route answers 501.
func New(engine *physics.Engine, crawler *crawl.Crawler, opts Options) *Server {
	if opts.TickRate <= 0 {
		opts.TickRate = frame.DefaultFramerate
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{engine: engine, crawler: crawler, opts: opts, logger: opts.Logger}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/snapshot.dot", s.handleDOT)
	r.Get("/snapshot.svg", s.handleSVG)

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/stats", s.handleStats)
		r.Post("/expand/{handle}", s.handleExpand)
		r.Post("/pin/{handle}", s.handlePin)
		r.Post("/pause", func(w http.ResponseWriter, _ *http.Request) { s.setPaused(w, true) })
		r.Post("/resume", func(w http.ResponseWriter, _ *http.Request) { s.setPaused(w, false) })
	})
	return r
}

// Run ticks the engine, runs the crawler and serves HTTP on addr until ctx
// is cancelled. The listener is shut down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.simulate(ctx) })
	if s.crawler != nil {
		g.Go(func() error { return s.crawler.Run(ctx) })
	}
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// simulate is the frame loop. dt comes from a frame clock so a stalled
// process does not take one huge step.
func (s *Server) simulate(ctx context.Context) error {
	clock := frame.New(s.opts.TickRate, frame.DefaultHistoryLen, frame.DefaultMinFramerate)
	ticker := time.NewTicker(clock.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.step(clock.Tick(now))
		}
	}
}

// step advances the engine once unless paused.
func (s *Server) step(dt float64) {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	if paused {
		return
	}
	stats := s.engine.Tick(dt)
	s.mu.Lock()
	s.last = stats
	s.ticks++
	s.mu.Unlock()
}

func (s *Server) setPaused(w http.ResponseWriter, paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, graph.Capture(s.engine))
}

// Stats is the body of GET /api/stats.
type Stats struct {
	Nodes    int          `json:"nodes"`
	Ticks    uint64       `json:"ticks"`
	Energy   float64      `json:"energy"`
	MaxSpeed float64      `json:"max_speed"`
	Paused   bool         `json:"paused"`
	Crawl    *crawl.Stats `json:"crawl,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := Stats{
		Ticks:    s.ticks,
		Energy:   s.last.KineticEnergy,
		MaxSpeed: s.last.MaxSpeed,
		Paused:   s.paused,
	}
	s.mu.Unlock()
	st.Nodes = s.engine.Len()
	if s.crawler != nil {
		cs := s.crawler.Stats()
		st.Crawl = &cs
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleDOT(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(export.ToDOT(graph.Capture(s.engine), s.opts.Export)))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := export.RenderSVG(r.Context(), export.ToDOT(graph.Capture(s.engine), s.opts.Export))
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	if s.crawler == nil {
		s.respondJSON(w, http.StatusNotImplemented, errorBody{Code: string(errors.ErrCodeUnsupported), Message: "no crawler attached"})
		return
	}
	h, err := parseHandle(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.crawler.Expand(h); err != nil {
		s.respondError(w, err)
		return
	}
	state, _ := s.crawler.State(h)
	s.respondJSON(w, http.StatusAccepted, map[string]any{"handle": h, "state": state.String()})
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	h, err := parseHandle(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var pinned bool
	if s.crawler != nil {
		pinned, err = s.crawler.TogglePin(h)
	} else {
		err = s.engine.Update(func(tx *physics.Tx) error {
			n, err := tx.Node(h)
			if err != nil {
				return err
			}
			n.Static = !n.Static
			pinned = n.Static
			return nil
		})
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"handle": h, "pinned": pinned})
}

func parseHandle(r *http.Request) (physics.Handle, error) {
	raw := chi.URLParam(r, "handle")
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid node handle %q", raw)
	}
	return physics.Handle(v), nil
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.respondJSON(w, statusFor(code), errorBody{Code: string(code), Message: errors.UserMessage(err)})
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPage, errors.ErrCodeInvalidMass:
		return http.StatusBadRequest
	case errors.ErrCodeStaleHandle, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeQueueFull:
		return http.StatusServiceUnavailable
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs each request at debug level.
func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start).Round(time.Microsecond),
				"id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
