// Package observability carries instrumentation events out of the library
// packages.
//
// The pipeline, the cache lookups of the runner and the HTTP middleware
// report events to hooks fetched with [Pipeline], [Cache] and [Server].
// Until main registers something else the hooks do nothing. [Counters]
// implements all three and is what the server exposes at /api/v1/stats:
//
//	counters := observability.NewCounters()
//	observability.Register(counters)
//	defer observability.Reset()
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives the stages of decode, simulate and render.
type PipelineHooks interface {
	OnDecodeStart(ctx context.Context, size int)
	OnDecodeComplete(ctx context.Context, pivots, shapes int, duration time.Duration, err error)
	OnSimulateStart(ctx context.Context, pivots, shapes, ticks int)
	OnSimulateComplete(ctx context.Context, ticks int, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives runner cache lookups. keyType is "simulate" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ServerHooks receives served requests. route is the chi route pattern,
// not the raw path.
type ServerHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks ignores every event. Embed it to implement a subset.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnDecodeStart(context.Context, int) {}

func (NoopPipelineHooks) OnDecodeComplete(context.Context, int, int, time.Duration, error) {}

func (NoopPipelineHooks) OnSimulateStart(context.Context, int, int, int) {}

func (NoopPipelineHooks) OnSimulateComplete(context.Context, int, time.Duration, error) {}

func (NoopPipelineHooks) OnRenderStart(context.Context, []string) {}

func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string) {}

func (NoopCacheHooks) OnCacheMiss(context.Context, string) {}

func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks ignores every event.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string) {}

func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

type registry struct {
	mu       sync.RWMutex
	pipeline PipelineHooks
	cache    CacheHooks
	server   ServerHooks
}

var hooks = registry{
	pipeline: NoopPipelineHooks{},
	cache:    NoopCacheHooks{},
	server:   NoopServerHooks{},
}

// SetPipelineHooks replaces the pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.pipeline = h
	hooks.mu.Unlock()
}

// SetCacheHooks replaces the cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.cache = h
	hooks.mu.Unlock()
}

// SetServerHooks replaces the server hooks. nil is ignored.
func SetServerHooks(h ServerHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.server = h
	hooks.mu.Unlock()
}

// Register installs h for every hook interface it implements.
func Register(h any) {
	if p, ok := h.(PipelineHooks); ok {
		SetPipelineHooks(p)
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
	}
	if s, ok := h.(ServerHooks); ok {
		SetServerHooks(s)
	}
}

func Pipeline() PipelineHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.pipeline
}

func Cache() CacheHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.cache
}

func Server() ServerHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.server
}

// Reset restores the no-op hooks.
func Reset() {
	hooks.mu.Lock()
	hooks.pipeline = NoopPipelineHooks{}
	hooks.cache = NoopCacheHooks{}
	hooks.server = NoopServerHooks{}
	hooks.mu.Unlock()
}
