// Package pipeline runs the decode → simulate → render pipeline for frames.
//
// The same pipeline backs the CLI and the HTTP API so both produce identical
// output for identical input. Every stage after decoding is cached by the
// content hash of the input.
//
// # Input
//
// The input is either a packed frame string or a [scene.Document]. Decoding
// a packed frame recomputes every rest length from the decoded positions, so
// the frame is already at rest and is only rendered. A scene document keeps
// its rest lengths, so a deformed frame is pulled back toward its saved
// shape by simulation.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: Validate and unpack a packed frame string or rebuild a scene
//  2. Simulate: Run the constraint solver for a number of ticks and capture
//     the result as a scene document and a packed string
//  3. Render: Generate output in various formats (SVG sketch, DOT, topology
//     SVG, JSON scene document)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Scene:   &doc,
//	    Ticks:   100,
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//	share := result.Packed
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pivotframe/pkg/cache"
	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/core/solver"
	"github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultTicks is the number of solver ticks run when none are requested.
const DefaultTicks = 100

// Format constants for output formats.
const (
	FormatSVG      = "svg"      // geometry sketch
	FormatDOT      = "dot"      // Graphviz source of the topology
	FormatTopology = "topology" // topology rendered to SVG by Graphviz
	FormatJSON     = "json"     // scene document
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatDOT:      true,
	FormatTopology: true,
	FormatJSON:     true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Decode options. Exactly one of Packed and Scene is set.
	Packed string          `json:"data,omitempty"`
	Scene  *scene.Document `json:"scene,omitempty"`
	Name   string          `json:"name,omitempty"`

	// Simulate options. Ticks of zero means DefaultTicks unless
	// SkipSimulate is set or the input is packed. Packed input cannot be
	// simulated.
	Ticks        int  `json:"ticks,omitempty"`
	SkipSimulate bool `json:"skip_simulate,omitempty"`
	Refresh      bool `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Labels    bool     `json:"labels,omitempty"`     // annotate the topology with coordinates
	Pivots    bool     `json:"pivots,omitempty"`     // draw pivot markers on the sketch
	Highlight *int     `json:"highlight,omitempty"` // pivot to highlight on the sketch

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Frame is the frame after simulation.
	Frame *frame.Frame

	// Scene is Frame as a document, rest lengths and colors included.
	Scene scene.Document

	// InputHash is the content hash of the input: the packed string, or the
	// canonical JSON of the scene document.
	InputHash string

	// Packed is the packed form of Frame.
	Packed string

	// Solver accumulates what the solver ticks did. It is zero on a
	// simulation cache hit except for Ticks.
	Solver solver.Stats

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PivotCount   int
	ShapeCount   int
	GroupCount   int
	InputSize    int
	OutputSize   int
	DecodeTime   time.Duration
	SimulateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SimulateHit bool // Whether the simulated frame came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: svg, dot, topology, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForDecode(); err != nil {
		return err
	}
	if err := o.ValidateForSimulate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForDecode checks the input envelope.
func (o *Options) ValidateForDecode() error {
	switch {
	case o.Scene != nil && o.Packed != "":
		return errors.New(errors.ErrCodeInvalidInput, "data and scene are mutually exclusive")
	case o.Scene == nil:
		if err := errors.ValidatePacked(o.Packed); err != nil {
			return err
		}
	}
	if o.Name != "" {
		if err := errors.ValidateName(o.Name); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// ValidateForSimulate checks the tick count and applies its default. Packed
// input skips simulation and rejects an explicit tick count.
func (o *Options) ValidateForSimulate() error {
	if o.Scene == nil && o.Packed != "" {
		if o.Ticks != 0 && !o.SkipSimulate {
			return errors.New(errors.ErrCodeInvalidInput,
				"packed frames are at rest and cannot be simulated; send a scene document")
		}
		o.SkipSimulate = true
	}
	if o.SkipSimulate {
		o.Ticks = 0
	} else if o.Ticks == 0 {
		o.Ticks = DefaultTicks
	}
	o.setLogger()
	return errors.ValidateTicks(o.Ticks)
}

// ValidateForRender checks the requested formats. An empty list renders
// nothing.
func (o *Options) ValidateForRender() error {
	o.setLogger()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SimulateKeyOpts returns cache key options for simulation.
func (o *Options) SimulateKeyOpts() cache.SimulateKeyOpts {
	return cache.SimulateKeyOpts{Ticks: o.Ticks}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatDOT, FormatTopology:
		opts.Labels = o.Labels
	case FormatSVG:
		opts.Pivots = o.Pivots
		opts.Highlight = o.Highlight
	case FormatJSON:
		opts.Name = o.Name
	}
	return opts
}
