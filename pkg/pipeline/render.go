package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/observability"
	"github.com/matzehuels/pivotframe/pkg/render/nodelink"
	"github.com/matzehuels/pivotframe/pkg/render/sketch"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// Render generates output artifacts for f in the requested formats.
func Render(ctx context.Context, f *frame.Frame, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, f, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, f *frame.Frame, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	// DOT and topology share one graph description.
	var dot string
	dotFor := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(f, nodelink.Options{Labels: opts.Labels})
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sketch.RenderSVG(f, sketchOptions(opts)...)
		case FormatDOT:
			data = []byte(dotFor())
		case FormatTopology:
			data, err = nodelink.RenderSVG(ctx, dotFor())
		case FormatJSON:
			data, err = scene.Marshal(scene.FromFrame(f, opts.Name), scene.FormatJSON)
		default:
			err = errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return nil, errors.Wrap(code, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func sketchOptions(opts Options) []sketch.SVGOption {
	var out []sketch.SVGOption
	if opts.Pivots {
		out = append(out, sketch.WithPivots())
	}
	if opts.Highlight != nil {
		out = append(out, sketch.WithHighlight(*opts.Highlight))
	}
	return out
}
