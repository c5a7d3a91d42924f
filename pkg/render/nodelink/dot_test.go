package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
)

func triangleWithTail() *frame.Frame {
	f := frame.New()
	a := f.MustAddPivot(0, 0)
	b := f.MustAddPivot(10, 0)
	c := f.MustAddPivot(5, 8)
	d := f.MustAddPivot(5, 20)
	for _, id := range []int{a, b, c} {
		_ = f.SetRigid(id, true)
	}
	_ = f.SetLocked(d, true)
	_, _ = f.AddLine(a, b, "", 10)
	_, _ = f.AddLine(b, c, "", 1)
	_, _ = f.AddCircle(c, a, "")
	_, _ = f.AddCircle(c, d, "")
	f.Rebuild()
	return f
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(triangleWithTail(), Options{})

	wants := []string{
		"graph G {",
		"layout=neato;",
		"subgraph cluster_0 {",
		`"p0" [label="0", pos="0,0!", fillcolor="#a6cee3"];`,
		`"p2" [label="2", pos="5,-8!", fillcolor="#a6cee3"];`,
		`"p3" [label="3", pos="5,-20!", shape=doublecircle];`,
		`"p0" -- "p1" [penwidth=2];`,
		`"p1" -- "p2" [penwidth=1];`,
		`"p2" -- "p3" [style=dashed];`,
	}
	for _, want := range wants {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "cluster_1") {
		t.Errorf("expected a single rigid group\n%s", dot)
	}
}

func TestToDOTLabels(t *testing.T) {
	dot := ToDOT(triangleWithTail(), Options{Labels: true})
	if !strings.Contains(dot, `label="3\n(5, 20)"`) {
		t.Errorf("detailed pivot label missing\n%s", dot)
	}
	if !strings.Contains(dot, `"p0" -- "p1" [penwidth=2, label="10"];`) {
		t.Errorf("rest length label missing\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(frame.New(), Options{})
	if strings.Contains(dot, "subgraph") || strings.Contains(dot, "--") {
		t.Errorf("empty frame produced content\n%s", dot)
	}
}

func TestPenWidth(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{5, 1},
		{15, 3},
		{100, 6},
	}
	for _, tt := range tests {
		if got := penWidth(tt.in); got != tt.want {
			t.Errorf("penWidth(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox should pass through, got %s", got)
	}
}
