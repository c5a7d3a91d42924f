package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
)

// Options configures topology rendering.
type Options struct {
	// Labels adds coordinates to pivot labels and rest lengths to edges.
	// When false, pivots show only their index.
	Labels bool
}

// groupColors fill the pivots of successive rigid groups.
var groupColors = []string{"#a6cee3", "#b2df8a", "#fb9a99", "#fdbf6f", "#cab2d6", "#ffff99"}

// ToDOT converts a frame to an undirected Graphviz graph for the neato
// engine. Pivots are pinned at their frame positions with y flipped, since
// Graphviz puts y up and frames put y down.
//
// Every rigid group becomes a subgraph whose pivots share a fill color.
// Locked pivots are drawn as double circles. Circle shapes are dashed
// edges; line shapes are solid with a pen width following their thickness.
func ToDOT(f *frame.Frame, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.3, fixedsize=true];\n")
	buf.WriteString("\n")

	color := make(map[int]string)
	for gi, g := range f.Groups() {
		c := groupColors[gi%len(groupColors)]
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", gi)
		for _, m := range g.Members {
			fmt.Fprintf(&buf, "    %q;\n", nodeID(m))
			if p, _ := f.Pivot(m); p.Rigid {
				color[m] = c
			}
		}
		buf.WriteString("  }\n")
	}
	if len(f.Groups()) > 0 {
		buf.WriteString("\n")
	}

	for i, p := range f.Pivots() {
		attrs := []string{
			fmt.Sprintf("label=%q", pivotLabel(i, p, opts.Labels)),
			fmt.Sprintf("pos=\"%s,%s!\"", num(p.Pos.X), num(flipY(p.Pos.Y))),
		}
		if c, ok := color[i]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
		}
		if p.Locked {
			attrs = append(attrs, "shape=doublecircle")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(i), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, s := range f.Shapes() {
		attrs := []string{}
		switch s.Kind {
		case frame.KindCircle:
			attrs = append(attrs, "style=dashed")
		case frame.KindLine:
			t, _ := s.Thickness()
			attrs = append(attrs, fmt.Sprintf("penwidth=%s", num(penWidth(t))))
		}
		if opts.Labels {
			attrs = append(attrs, fmt.Sprintf("label=%q", num(s.RestLength)))
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", nodeID(s.P1), nodeID(s.P2), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func flipY(y float64) float64 {
	if y == 0 {
		return 0
	}
	return -y
}

func nodeID(i int) string { return "p" + strconv.Itoa(i) }

func pivotLabel(i int, p frame.Pivot, detailed bool) string {
	if !detailed {
		return strconv.Itoa(i)
	}
	return fmt.Sprintf("%d\n(%s, %s)", i, num(p.Pos.X), num(p.Pos.Y))
}

// penWidth maps a line thickness onto a readable Graphviz pen width.
func penWidth(thickness float64) float64 {
	return min(max(thickness/5, 1), 6)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
