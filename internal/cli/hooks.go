package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/observability"
)

// tickLogEvery is how many ticks pass between simulation debug lines.
const tickLogEvery = 250

// installHooks routes observability events to the logger at debug level.
func installHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetSimulationHooks(h)
	observability.SetCrawlHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

type logHooks struct {
	logger *log.Logger
	ticks  atomic.Uint64
}

func (h *logHooks) OnTick(nodes int, dt, kinetic float64, took time.Duration) {
	if h.ticks.Add(1)%tickLogEvery != 0 {
		return
	}
	h.logger.Debug("tick", "nodes", nodes, "dt", dt, "energy", kinetic, "took", took)
}

func (h *logHooks) OnFetchStart(_ context.Context, page string) {
	h.logger.Debug("fetch", "page", page)
}

func (h *logHooks) OnFetchComplete(_ context.Context, page string, links int, took time.Duration, err error) {
	if err != nil {
		return // the crawler logs failures itself
	}
	h.logger.Debug("fetched", "page", page, "links", links, "took", took.Round(time.Millisecond))
}

func (h *logHooks) OnMerge(_ context.Context, page string, revealed int) {
	h.logger.Debug("merged", "page", page, "revealed", revealed)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, took time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", took.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("http error", "method", method, "host", host, "path", path, "err", err)
}
