package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pivotframe/pkg/cache"
	"github.com/matzehuels/pivotframe/pkg/codec"
	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/core/solver"
	"github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/observability"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// Cache key types reported to observability hooks.
const (
	keyTypeSimulate = "simulate"
	keyTypeArtifact = "artifact"
)

// ticksPerCheck is how many solver ticks run between context checks.
const ticksPerCheck = 64

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-stage cache lifetimes when non-zero.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Simulation is the outcome of the simulate stage. It is what the cache
// stores. Scene is unnamed and keeps the rest lengths the packed form drops.
type Simulation struct {
	Scene  scene.Document `json:"scene"`
	Packed string         `json:"packed"`
	Solver solver.Stats   `json:"solver"`
}

// Execute runs the complete decode → simulate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Decode
	decodeStart := time.Now()
	f, err := r.Decode(ctx, opts)
	if err != nil {
		return nil, err
	}
	input := []byte(opts.Packed)
	if opts.Scene != nil {
		if input, err = canonicalJSON(f); err != nil {
			return nil, err
		}
	}
	result.InputHash = cache.Hash(input)
	result.Stats.InputSize = len(input)
	result.Stats.DecodeTime = time.Since(decodeStart)

	r.Logger.Info("decoded frame",
		"pivots", f.PivotCount(),
		"shapes", f.ShapeCount(),
		"groups", len(f.Groups()),
		"duration", result.Stats.DecodeTime)

	// Stage 2: Simulate
	simStart := time.Now()
	sim, hit, err := r.SimulateWithCacheInfo(ctx, f, result.InputHash, opts)
	if err != nil {
		return nil, err
	}
	result.Scene = sim.Scene
	result.Scene.Name = opts.Name
	result.Packed = sim.Packed
	result.Solver = sim.Solver
	result.Stats.SimulateTime = time.Since(simStart)
	result.Stats.OutputSize = len(sim.Packed)
	result.CacheInfo.SimulateHit = hit

	// The simulated scene is the canonical result: cold and warm runs render
	// from the same rebuilt frame.
	out, err := sim.Scene.Frame()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild simulated frame")
	}
	result.Frame = out
	result.Stats.PivotCount = out.PivotCount()
	result.Stats.ShapeCount = out.ShapeCount()
	result.Stats.GroupCount = len(out.Groups())

	r.Logger.Info("simulated frame",
		"ticks", opts.Ticks,
		"cached", hit,
		"duration", result.Stats.SimulateTime)

	// Stage 3: Render
	if len(opts.Formats) == 0 {
		return result, nil
	}
	outJSON, err := canonicalJSON(out)
	if err != nil {
		return nil, err
	}
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, out, cache.Hash(outJSON), opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Decode validates the input and builds its frame. Packed input is
// unpacked at rest; a scene document keeps its saved rest lengths.
func (r *Runner) Decode(ctx context.Context, opts Options) (*frame.Frame, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForDecode(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	size := len(opts.Packed)
	if opts.Scene != nil {
		size = len(opts.Scene.Pivots) + len(opts.Scene.Shapes)
	}
	hooks.OnDecodeStart(ctx, size)
	start := time.Now()

	var (
		f   *frame.Frame
		err error
	)
	if opts.Scene != nil {
		f, err = decodeScene(*opts.Scene)
	} else {
		f, err = codec.Unpack(opts.Packed)
	}
	if err != nil {
		hooks.OnDecodeComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnDecodeComplete(ctx, f.PivotCount(), f.ShapeCount(), time.Since(start), nil)
	return f, nil
}

// SimulateWithCacheInfo runs opts.Ticks solver ticks on f and captures the
// result. The cache is keyed by inputHash, the content hash of the input f
// was decoded from. f is modified on a cache miss.
func (r *Runner) SimulateWithCacheInfo(ctx context.Context, f *frame.Frame, inputHash string, opts Options) (Simulation, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSimulate(); err != nil {
		return Simulation{}, false, err
	}
	cacheHooks := observability.Cache()
	cacheKey := r.Keyer.SimulateKey(inputHash, opts.SimulateKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached Simulation
			if err := json.Unmarshal(data, &cached); err == nil {
				cacheHooks.OnCacheHit(ctx, keyTypeSimulate)
				return cached, true, nil
			}
			opts.Logger.Debug("discarding unreadable cache entry", "key", cacheKey)
		}
		cacheHooks.OnCacheMiss(ctx, keyTypeSimulate)
	}

	hooks := observability.Pipeline()
	hooks.OnSimulateStart(ctx, f.PivotCount(), f.ShapeCount(), opts.Ticks)
	start := time.Now()

	st, err := Simulate(ctx, f, opts.Ticks)
	if err != nil {
		hooks.OnSimulateComplete(ctx, st.Ticks, time.Since(start), err)
		return Simulation{}, false, err
	}
	packed, err := codec.Pack(f)
	hooks.OnSimulateComplete(ctx, st.Ticks, time.Since(start), err)
	if err != nil {
		return Simulation{}, false, err
	}
	out := Simulation{Scene: scene.FromFrame(f, ""), Packed: packed, Solver: st}

	if data, err := json.Marshal(out); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLSimulation)); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, keyTypeSimulate, len(data))
		}
	}
	return out, false, nil
}

// decodeScene rebuilds the frame of doc. A non-finite coordinate is invalid
// input; any other failure is a dangling or malformed reference.
func decodeScene(doc scene.Document) (*frame.Frame, error) {
	f, err := doc.Frame()
	switch {
	case err == nil:
		return f, nil
	case stderrors.Is(err, frame.ErrNotFinite):
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid scene")
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidReference, err, "invalid scene")
	}
}

// canonicalJSON is the content of f as an unnamed scene document. Two
// documents that differ only in id, name or timestamps encode the same.
func canonicalJSON(f *frame.Frame) ([]byte, error) {
	data, err := json.Marshal(scene.FromFrame(f, ""))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode scene")
	}
	return data, nil
}

// Simulate runs n solver ticks on f, stopping early with a timeout error
// when ctx is done.
func Simulate(ctx context.Context, f *frame.Frame, n int) (solver.Stats, error) {
	var total solver.Stats
	for done := 0; done < n; {
		if err := ctx.Err(); err != nil {
			return total, errors.Wrap(errors.ErrCodeTimeout, err, "simulation stopped after %d ticks", done)
		}
		step := min(ticksPerCheck, n-done)
		total.Add(solver.Run(f, step))
		done += step
	}
	return total, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns whether
// all of them came from the cache. frameHash identifies f's packed form.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, f *frame.Frame, frameHash string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	cacheHooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				cacheHooks.OnCacheHit(ctx, keyTypeArtifact)
				artifacts[format] = data
				continue
			}
			cacheHooks.OnCacheMiss(ctx, keyTypeArtifact)
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	sub := opts
	sub.Formats = missing
	rendered, err := Render(ctx, f, sub)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
			continue
		}
		cacheHooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(stage time.Duration) time.Duration {
	if r.TTL != 0 {
		return r.TTL
	}
	return stage
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
