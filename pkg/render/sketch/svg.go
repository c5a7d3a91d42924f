// Package sketch draws a frame as SVG the way the editor shows it: circles
// filled across their two pivots, round-capped lines, and pivot dots on top.
package sketch

import (
	"bytes"
	"fmt"
	"html"

	"github.com/golang/geo/r2"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
)

// Style sets the pivot marker appearance.
type Style struct {
	PivotColor      string
	PivotRadius     float64
	LockedColor     string
	HighlightColor  string
	HighlightRadius float64
}

// DefaultStyle matches the editor's colors.
var DefaultStyle = Style{
	PivotColor:      "#FF0000",
	PivotRadius:     7,
	LockedColor:     "#0000FF",
	HighlightColor:  "#FFFF00",
	HighlightRadius: 5,
}

// DefaultMargin is the space kept around the drawing.
const DefaultMargin = 10

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style     Style
	pivots    bool
	highlight int
	margin    float64
}

// WithPivots draws pivot markers over the shapes.
func WithPivots() SVGOption { return func(r *svgRenderer) { r.pivots = true } }

// WithHighlight marks pivot id, typically the one closest to the pointer.
func WithHighlight(id int) SVGOption { return func(r *svgRenderer) { r.highlight = id } }

// WithStyle replaces [DefaultStyle].
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithMargin replaces [DefaultMargin].
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// RenderSVG draws f. The view box covers every shape and marker plus the
// margin, in frame coordinates.
func RenderSVG(f *frame.Frame, opts ...SVGOption) []byte {
	r := svgRenderer{style: DefaultStyle, highlight: -1, margin: DefaultMargin}
	for _, opt := range opts {
		opt(&r)
	}

	box := r.bounds(f)
	size := box.Size()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		box.X.Lo, box.Y.Lo, size.X, size.Y, size.X, size.Y)

	for i, s := range f.Shapes() {
		renderShape(&buf, i, s, f.Position(s.P1), f.Position(s.P2))
	}
	if r.pivots {
		for i, p := range f.Pivots() {
			r.renderPivot(&buf, i, p)
		}
	}
	if r.highlight >= 0 && r.highlight < f.PivotCount() {
		p := f.Position(r.highlight)
		fmt.Fprintf(&buf, `  <circle class="highlight" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
			p.X, p.Y, r.style.HighlightRadius, r.style.HighlightColor)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderShape(buf *bytes.Buffer, id int, s frame.Shape, p1, p2 r2.Point) {
	color := html.EscapeString(s.Color)
	switch s.Kind {
	case frame.KindCircle:
		c := p1.Add(p2).Mul(0.5)
		fmt.Fprintf(buf, `  <circle id="shape-%d" class="circle" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
			id, c.X, c.Y, p2.Sub(p1).Norm()/2, color)
	case frame.KindLine:
		t, _ := s.Thickness()
		fmt.Fprintf(buf, `  <line id="shape-%d" class="line" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f" stroke-linecap="round"/>`+"\n",
			id, p1.X, p1.Y, p2.X, p2.Y, color, t)
	}
}

func (r *svgRenderer) renderPivot(buf *bytes.Buffer, id int, p frame.Pivot) {
	class := "pivot"
	if p.Rigid {
		class += " rigid"
	}
	fill := r.style.PivotColor
	if p.Locked {
		class += " locked"
		fill = r.style.LockedColor
	}
	fmt.Fprintf(buf, `  <circle id="pivot-%d" class="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
		id, class, p.Pos.X, p.Pos.Y, r.style.PivotRadius, fill)
}

func (r *svgRenderer) bounds(f *frame.Frame) r2.Rect {
	box := r2.EmptyRect()
	for _, s := range f.Shapes() {
		p1, p2 := f.Position(s.P1), f.Position(s.P2)
		switch s.Kind {
		case frame.KindCircle:
			d := p2.Sub(p1).Norm()
			box = box.Union(r2.RectFromCenterSize(p1.Add(p2).Mul(0.5), r2.Point{X: d, Y: d}))
		case frame.KindLine:
			t, _ := s.Thickness()
			box = box.Union(r2.RectFromPoints(p1, p2).ExpandedByMargin(t / 2))
		}
	}
	marker := 0.0
	if r.pivots {
		marker = r.style.PivotRadius
	}
	if r.highlight >= 0 {
		marker = max(marker, r.style.HighlightRadius)
	}
	for _, p := range f.Pivots() {
		box = box.Union(r2.RectFromCenterSize(p.Pos, r2.Point{X: 2 * marker, Y: 2 * marker}))
	}
	if box.IsEmpty() {
		return r2.RectFromPoints(r2.Point{}, r2.Point{X: 2 * r.margin, Y: 2 * r.margin})
	}
	return box.ExpandedByMargin(r.margin)
}
