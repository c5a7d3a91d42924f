package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pivotframe/pkg/buildinfo"
	"github.com/matzehuels/pivotframe/pkg/codec"
	"github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/pipeline"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// =============================================================================
// encode / decode
// =============================================================================

func (c *CLI) encodeCommand() *cobra.Command {
	var (
		output string
		url    bool
		base   string
		record bool
	)
	cmd := &cobra.Command{
		Use:   "encode [input]",
		Short: "Pack a frame into a shareable string",
		Long: `Pack a frame into the compressed string used in share links.

With --url the string is embedded in a share URL built on --base (or
server.share_base from the config file). With --record the uncompressed
comma-separated record is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			var out string
			switch {
			case record:
				if out, err = codec.Marshal(in.Frame); err != nil {
					return err
				}
			case url:
				if base == "" {
					base = c.Config.Server.ShareBase
				}
				if base == "" {
					return errors.New(errors.ErrCodeInvalidInput, "--url needs --base or server.share_base")
				}
				if out, err = codec.ShareURL(base, in.Frame); err != nil {
					return err
				}
			default:
				if out, err = in.packed(); err != nil {
					return err
				}
			}
			return c.emit(output, []byte(out+"\n"))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&url, "url", false, "print a share URL")
	cmd.Flags().StringVar(&base, "base", "", "share URL base")
	cmd.Flags().BoolVar(&record, "record", false, "print the uncompressed record")
	return cmd
}

func (c *CLI) decodeCommand() *cobra.Command {
	var (
		output string
		format string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "decode [input]",
		Short: "Decode a packed frame or share URL into a scene document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = in.Name
			}
			doc := scene.FromFrame(in.Frame, name)
			if output != "" {
				if err := scene.Save(output, doc); err != nil {
					return err
				}
				c.ui().success("Decoded %s", plural(in.Frame.PivotCount(), "pivot"))
				c.ui().file(output)
				return nil
			}
			data, err := scene.Marshal(doc, scene.Format(format))
			if err != nil {
				return err
			}
			_, err = c.Out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "scene file to write (.json or .toml)")
	cmd.Flags().StringVarP(&format, "format", "f", string(scene.FormatJSON), "stdout format: json or toml")
	cmd.Flags().StringVar(&name, "name", "", "document name")
	return cmd
}

// =============================================================================
// simulate
// =============================================================================

func (c *CLI) simulateCommand() *cobra.Command {
	var (
		output  string
		ticks   int
		noCache bool
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "simulate [input]",
		Short: "Run solver ticks on a frame",
		Long: `Run solver ticks on a frame and print the packed result.

Every input goes through the cached pipeline as a scene document. Packed
inputs and the demo are at rest, so only scene files with dragged pivots
change; write them back with -o result.json to keep colors and rest
lengths.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("ticks") {
				ticks = c.Config.Solver.Ticks
			}
			if err := errors.ValidateTicks(ticks); err != nil {
				return err
			}
			in, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			return c.runSimulate(cmd.Context(), in, ticks, output, noCache, refresh)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result (.json/.toml scene, otherwise packed)")
	cmd.Flags().IntVarP(&ticks, "ticks", "n", pipeline.DefaultTicks, "solver ticks")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results")
	return cmd
}

func (c *CLI) runSimulate(ctx context.Context, in *input, ticks int, output string, noCache, refresh bool) error {
	logger := loggerFromContext(ctx)
	done := timed(logger)

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if !in.Scene && ticks > 0 {
		logger.Warn("input is at rest; only scene files carry rest lengths a simulation can restore")
	}
	doc := in.document()
	res, err := runner.Execute(ctx, pipeline.Options{
		Scene:        &doc,
		Ticks:        ticks,
		SkipSimulate: ticks == 0,
		Refresh:      refresh,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	in.Frame, in.Packed = res.Frame, res.Packed
	cached := res.CacheInfo.SimulateHit
	logger.Debug("solver", "aligned", res.Solver.GroupsAligned, "relaxed", res.Solver.ShapesRelaxed, "skipped", res.Solver.ShapesSkipped)
	done("simulated", "ticks", ticks, "cached", cached)

	if output == "" || !isSceneFile(output) {
		packed, err := in.packed()
		if err != nil {
			return err
		}
		if output == "" {
			_, err = fmt.Fprintln(c.Out, packed)
			return err
		}
		if err := os.WriteFile(output, []byte(packed+"\n"), 0o644); err != nil {
			return err
		}
	} else if err := scene.Save(output, scene.FromFrame(in.Frame, in.Name)); err != nil {
		return err
	}

	c.ui().success("Simulated %s", plural(ticks, "tick"))
	c.ui().file(output)
	c.ui().stats(in.Frame.PivotCount(), in.Frame.ShapeCount(), len(in.Frame.Groups()), cached)
	return nil
}

// =============================================================================
// inspect
// =============================================================================

func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [input]",
		Short: "Show the pivots, shapes and rigid groups of a frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			packed, err := in.packed()
			if err != nil {
				return err
			}
			f := in.Frame
			u := c.ui()
			fmt.Fprintln(c.Out, StyleTitle.Render(nameOr(in.Name, "frame")))
			u.keyValue("Pivots", strconv.Itoa(f.PivotCount()))
			u.keyValue("Shapes", strconv.Itoa(f.ShapeCount()))
			u.keyValue("Groups", strconv.Itoa(len(f.Groups())))
			record, err := codec.Marshal(f)
			if err != nil {
				return err
			}
			u.keyValue("Record", fmt.Sprintf("%d bytes", len(record)))
			u.keyValue("Packed", fmt.Sprintf("%d runes", len([]rune(packed))))
			if err := f.Validate(); err != nil {
				u.failure("invalid: %v", err)
			}
			if f.PivotCount() > 0 {
				fmt.Fprintln(c.Out, pivotTable(f, -1))
			}
			if f.ShapeCount() > 0 {
				fmt.Fprintln(c.Out, shapeTable(f))
			}
			return nil
		},
	}
}

// =============================================================================
// render
// =============================================================================

// formatExt maps render formats to output file suffixes.
var formatExt = map[string]string{
	pipeline.FormatSVG:      ".svg",
	pipeline.FormatDOT:      ".dot",
	pipeline.FormatTopology: ".topology.svg",
	pipeline.FormatJSON:     ".json",
}

func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		highlight  int
		noCache    bool
	)
	opts := pipeline.Options{SkipSimulate: true}

	cmd := &cobra.Command{
		Use:   "render [input]",
		Short: "Render a frame to SVG, DOT or JSON",
		Long: `Render a frame.

Formats:
  svg       the frame's circles and lines
  topology  pivots and shapes as a graph, rigid groups clustered (Graphviz)
  dot       Graphviz source of the topology
  json      scene document

With several formats -o is a base path and each file gets its own suffix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := errors.ValidateTicks(opts.Ticks); err != nil {
				return err
			}
			opts.SkipSimulate = opts.Ticks == 0
			if highlight >= 0 {
				opts.Highlight = &highlight
			}
			in, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), in, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), topology, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().IntVarP(&opts.Ticks, "ticks", "n", 0, "solver ticks to run before rendering")
	cmd.Flags().BoolVar(&opts.Pivots, "pivots", false, "draw pivot markers (svg)")
	cmd.Flags().IntVar(&highlight, "highlight", -1, "highlight a pivot (svg)")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "label pivots with coordinates (topology, dot)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, in *input, opts pipeline.Options, output string, noCache bool) error {
	opts.Logger = loggerFromContext(ctx)
	if errors.ValidateName(in.Name) == nil {
		opts.Name = in.Name
	}

	var (
		artifacts map[string][]byte
		cached    bool
	)
	err := c.spin(ctx, "Rendering...", func() (err error) {
		artifacts, cached, err = c.render(ctx, in, opts, noCache)
		return err
	})
	if err != nil {
		return err
	}

	base := output
	if base == "" || len(opts.Formats) > 1 {
		base = trimFormatExt(nameOr(output, nameOr(in.Name, "frame")))
	}
	c.ui().success("Rendered %s", plural(len(opts.Formats), "format"))
	for _, format := range opts.Formats {
		path := base + formatExt[format]
		if output != "" && len(opts.Formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.ui().file(path)
	}
	c.ui().stats(in.Frame.PivotCount(), in.Frame.ShapeCount(), len(in.Frame.Groups()), cached)
	return nil
}

// render runs the input through the cached pipeline as a scene document so
// colors and rest lengths are kept.
func (c *CLI) render(ctx context.Context, in *input, opts pipeline.Options, noCache bool) (map[string][]byte, bool, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, false, err
	}
	defer runner.Close()

	doc := in.document()
	opts.Scene = &doc
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	in.Frame = res.Frame
	return res.Artifacts, res.CacheInfo.RenderHit, nil
}

// trimFormatExt strips a known render suffix from a base path.
func trimFormatExt(path string) string {
	for _, ext := range []string{".topology.svg", ".svg", ".dot", ".json"} {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// =============================================================================
// version
// =============================================================================

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(c.Out, buildinfo.String())
			return err
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// emit writes data to path, or to the command output when path is empty.
func (c *CLI) emit(path string, data []byte) error {
	if path == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	c.ui().file(path)
	return nil
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
