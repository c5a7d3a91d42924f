package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Counters tallies events in memory. It implements every hook interface
// and is safe for concurrent use.
type Counters struct {
	started time.Time

	decodes, decodeErrors     atomic.Int64
	simulations, simErrors    atomic.Int64
	ticks                     atomic.Int64
	renders, renderErrors     atomic.Int64
	hits, misses, sets, bytes atomic.Int64

	mu     sync.Mutex
	routes map[string]*RouteStats
}

// RouteStats summarizes the requests served on one route.
type RouteStats struct {
	Requests int64         `json:"requests"`
	Errors   int64         `json:"errors"`
	Total    time.Duration `json:"total_ns"`
}

// Stats is a point-in-time copy of [Counters].
type Stats struct {
	Uptime       string                `json:"uptime"`
	Decodes      int64                 `json:"decodes"`
	DecodeErrors int64                 `json:"decode_errors"`
	Simulations  int64                 `json:"simulations"`
	SimErrors    int64                 `json:"simulation_errors"`
	Ticks        int64                 `json:"ticks"`
	Renders      int64                 `json:"renders"`
	RenderErrors int64                 `json:"render_errors"`
	CacheHits    int64                 `json:"cache_hits"`
	CacheMisses  int64                 `json:"cache_misses"`
	CacheSets    int64                 `json:"cache_sets"`
	CacheBytes   int64                 `json:"cache_bytes"`
	Routes       map[string]RouteStats `json:"routes"`
}

func NewCounters() *Counters {
	return &Counters{started: time.Now(), routes: make(map[string]*RouteStats)}
}

func (c *Counters) OnDecodeStart(context.Context, int) {}

func (c *Counters) OnDecodeComplete(_ context.Context, _, _ int, _ time.Duration, err error) {
	c.decodes.Add(1)
	if err != nil {
		c.decodeErrors.Add(1)
	}
}

func (c *Counters) OnSimulateStart(context.Context, int, int, int) {}

func (c *Counters) OnSimulateComplete(_ context.Context, ticks int, _ time.Duration, err error) {
	c.simulations.Add(1)
	if err != nil {
		c.simErrors.Add(1)
		return
	}
	c.ticks.Add(int64(ticks))
}

func (c *Counters) OnRenderStart(context.Context, []string) {}

func (c *Counters) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	c.renders.Add(1)
	if err != nil {
		c.renderErrors.Add(1)
	}
}

func (c *Counters) OnCacheHit(context.Context, string) { c.hits.Add(1) }

func (c *Counters) OnCacheMiss(context.Context, string) { c.misses.Add(1) }

func (c *Counters) OnCacheSet(_ context.Context, _ string, size int) {
	c.sets.Add(1)
	c.bytes.Add(int64(size))
}

func (c *Counters) OnRequest(context.Context, string, string) {}

// OnResponse counts statuses of 500 and above as errors.
func (c *Counters) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	key := method + " " + route
	c.mu.Lock()
	defer c.mu.Unlock()
	rs, ok := c.routes[key]
	if !ok {
		rs = &RouteStats{}
		c.routes[key] = rs
	}
	rs.Requests++
	rs.Total += d
	if status >= 500 {
		rs.Errors++
	}
}

// Snapshot copies the current counts.
func (c *Counters) Snapshot() Stats {
	s := Stats{
		Uptime:       time.Since(c.started).Round(time.Second).String(),
		Decodes:      c.decodes.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Simulations:  c.simulations.Load(),
		SimErrors:    c.simErrors.Load(),
		Ticks:        c.ticks.Load(),
		Renders:      c.renders.Load(),
		RenderErrors: c.renderErrors.Load(),
		CacheHits:    c.hits.Load(),
		CacheMisses:  c.misses.Load(),
		CacheSets:    c.sets.Load(),
		CacheBytes:   c.bytes.Load(),
		Routes:       make(map[string]RouteStats),
	}
	c.mu.Lock()
	for k, v := range c.routes {
		s.Routes[k] = *v
	}
	c.mu.Unlock()
	return s
}

var (
	_ PipelineHooks = (*Counters)(nil)
	_ CacheHooks    = (*Counters)(nil)
	_ ServerHooks   = (*Counters)(nil)
)
