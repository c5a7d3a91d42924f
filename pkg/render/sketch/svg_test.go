package sketch

import (
	"strings"
	"testing"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
)

func TestRenderSVGDemo(t *testing.T) {
	svg := string(RenderSVG(frame.Demo()))

	if !strings.HasPrefix(svg, "<svg ") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	if n := strings.Count(svg, `class="circle"`); n != 2 {
		t.Errorf("circles = %d, want 2", n)
	}
	if n := strings.Count(svg, `class="line"`); n != 1 {
		t.Errorf("lines = %d, want 1", n)
	}
	if strings.Contains(svg, `class="pivot`) {
		t.Error("pivots drawn without WithPivots")
	}
	// The first circle reaches down to 15-5√2, the line with thickness 15
	// reaches y = 157.5, the second circle x = 110+10√2; margin 10.
	if !strings.Contains(svg, `viewBox="-2.1 -2.1 136.2 169.6"`) {
		t.Errorf("unexpected view box:\n%s", svg)
	}
	if !strings.Contains(svg, `cx="15.00" cy="15.00" r="7.07"`) {
		t.Errorf("first circle misplaced:\n%s", svg)
	}
}

func TestRenderSVGPivots(t *testing.T) {
	f := frame.Demo()
	_ = f.SetLocked(0, true)
	_ = f.SetRigid(1, true)
	svg := string(RenderSVG(f, WithPivots(), WithHighlight(3)))

	if n := strings.Count(svg, `class="pivot`); n != 6 {
		t.Errorf("pivots = %d, want 6", n)
	}
	if !strings.Contains(svg, `id="pivot-0" class="pivot locked"`) {
		t.Error("locked pivot not marked")
	}
	if !strings.Contains(svg, `id="pivot-1" class="pivot rigid"`) {
		t.Error("rigid pivot not marked")
	}
	if !strings.Contains(svg, `class="highlight" cx="120.00" cy="120.00"`) {
		t.Error("highlight not drawn at pivot 3")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := string(RenderSVG(frame.New(), WithMargin(5)))
	if !strings.Contains(svg, `viewBox="0.0 0.0 10.0 10.0"`) {
		t.Errorf("empty frame view box:\n%s", svg)
	}
}

func TestRenderSVGEscapesColor(t *testing.T) {
	f := frame.New()
	_, _ = f.AddCircle(f.MustAddPivot(0, 0), f.MustAddPivot(1, 1), `"><script>`)
	if svg := string(RenderSVG(f)); strings.Contains(svg, "<script>") {
		t.Error("color not escaped")
	}
}
