// Package pkg holds the pivotframe libraries.
//
// # Overview
//
// A frame is a 2D network of pivots joined by shapes (circles and lines)
// that try to keep their rest length. Rigid pivots joined by shapes move
// together as rigid groups; locked pivots never move. The packages are
// organized into these areas:
//
//  1. [core] - Domain logic (index sets, geometry, frames, the solver)
//  2. [codec] - The text record and its LZW packing for share links
//  3. [scene] - Saved documents (JSON, TOML, BSON) with colors and rest lengths
//  4. [render] - SVG sketches and Graphviz topology views
//  5. [pipeline] - Orchestration (decode → simulate → render) with caching
//  6. Infrastructure: [cache], [storage], [session], [server], [config]
//
// # Architecture
//
// The typical data flow:
//
//	packed string / share URL / scene file
//	         ↓
//	    [codec] or [scene] (decode into a frame)
//	         ↓
//	    [core/solver] (run ticks: align rigid groups, relax shapes)
//	         ↓
//	    [render/sketch], [render/nodelink] (SVG, DOT)
//	         ↓
//	    [codec] (pack the result)
//
// # Quick Start
//
//	f := frame.Demo()
//	f.SetRigid(0, true)
//	solver.Run(f, 100)
//
//	packed, _ := codec.Pack(f)
//	svg := sketch.RenderSVG(f, sketch.WithPivots())
//
// With caching, use [pipeline.Runner]. A scene document keeps rest lengths,
// so it is the input to simulate; packed input is rendered at rest:
//
//	doc := scene.FromFrame(f, "")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Scene:   &doc,
//	    Ticks:   100,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//
// # Errors
//
// Failures that reach users carry a code from [errors]; [errors.HTTPStatus]
// maps them to API status codes.
//
// [core]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/core
// [codec]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/codec
// [scene]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/scene
// [render]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/storage
// [session]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/session
// [server]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/config
// [core/solver]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/core/solver
// [render/sketch]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/render/sketch
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/render/nodelink
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/pipeline#Runner
// [errors]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/errors
// [errors.HTTPStatus]: https://pkg.go.dev/github.com/matzehuels/pivotframe/pkg/errors#HTTPStatus
package pkg
