package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testPipelineHooks struct{ NoopPipelineHooks }
type testServerHooks struct{ NoopServerHooks }

func TestRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("pipeline hooks should default to no-op")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("cache hooks should default to no-op")
	}

	p := &testPipelineHooks{}
	SetPipelineHooks(p)
	SetPipelineHooks(nil)
	if Pipeline() != p {
		t.Error("SetPipelineHooks(nil) replaced the registered hooks")
	}

	s := &testServerHooks{}
	Register(s)
	if Server() != s {
		t.Error("Register should install server hooks")
	}
	if Pipeline() != p {
		t.Error("Register touched hooks the value does not implement")
	}

	Reset()
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Reset should restore no-op server hooks")
	}
}

func TestRegisterCounters(t *testing.T) {
	defer Reset()
	c := NewCounters()
	Register(c)
	if Pipeline() != c || Cache() != c || Server() != c {
		t.Error("Counters should be installed for every hook")
	}
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	c := NewCounters()
	fail := errors.New("boom")

	c.OnDecodeComplete(ctx, 3, 2, time.Millisecond, nil)
	c.OnDecodeComplete(ctx, 0, 0, time.Millisecond, fail)
	c.OnSimulateComplete(ctx, 40, time.Millisecond, nil)
	c.OnSimulateComplete(ctx, 10, time.Millisecond, fail)
	c.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, nil)
	c.OnCacheHit(ctx, "simulate")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 512)
	c.OnResponse(ctx, "GET", "/api/v1/frame", 200, time.Millisecond)
	c.OnResponse(ctx, "GET", "/api/v1/frame", 503, 2*time.Millisecond)

	got := c.Snapshot()
	tests := []struct {
		name      string
		got, want int64
	}{
		{"decodes", got.Decodes, 2},
		{"decode errors", got.DecodeErrors, 1},
		{"simulations", got.Simulations, 2},
		{"simulation errors", got.SimErrors, 1},
		{"ticks", got.Ticks, 40},
		{"renders", got.Renders, 1},
		{"hits", got.CacheHits, 1},
		{"misses", got.CacheMisses, 2},
		{"bytes", got.CacheBytes, 512},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
	rs := got.Routes["GET /api/v1/frame"]
	if rs.Requests != 2 || rs.Errors != 1 || rs.Total != 3*time.Millisecond {
		t.Errorf("route stats = %+v", rs)
	}
}

func TestCountersConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.OnCacheHit(ctx, "simulate")
				c.OnResponse(ctx, "POST", "/api/v1/simulate", 200, 0)
			}
		}()
	}
	wg.Wait()
	s := c.Snapshot()
	if s.CacheHits != 800 || s.Routes["POST /api/v1/simulate"].Requests != 800 {
		t.Errorf("snapshot = %+v", s)
	}
}
