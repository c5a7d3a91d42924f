package geom

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func nearPt(a, b r2.Point) bool { return near(a.X, b.X) && near(a.Y, b.Y) }

func TestDistance(t *testing.T) {
	if got := Distance(Pt(0, 0), Pt(3, 4)); !near(got, 5) {
		t.Errorf("Distance = %v, want 5", got)
	}
	if got := Distance(Pt(1, 1), Pt(1, 1)); got != 0 {
		t.Errorf("Distance to self = %v, want 0", got)
	}
}

func TestCentroid(t *testing.T) {
	tests := []struct {
		name string
		pts  []r2.Point
		want r2.Point
	}{
		{"Empty", nil, Pt(0, 0)},
		{"Single", []r2.Point{Pt(2, 3)}, Pt(2, 3)},
		{"Square", []r2.Point{Pt(0, 0), Pt(2, 0), Pt(2, 2), Pt(0, 2)}, Pt(1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Centroid(tt.pts); !nearPt(got, tt.want) {
				t.Errorf("Centroid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRotationApply(t *testing.T) {
	quarter := Rotation{Cos: 0, Sin: 1}
	if got := quarter.Apply(Pt(1, 0)); !nearPt(got, Pt(0, 1)) {
		t.Errorf("Apply = %v, want (0,1)", got)
	}
	if got := quarter.Angle(); !near(got, math.Pi/2) {
		t.Errorf("Angle = %v, want π/2", got)
	}
	if got := Identity.Apply(Pt(3, -2)); !nearPt(got, Pt(3, -2)) {
		t.Errorf("Identity.Apply = %v", got)
	}
}

func TestFitRigidTranslation(t *testing.T) {
	ref := []r2.Point{Pt(0, 0), Pt(10, 0), Pt(0, 10)}
	live := make([]r2.Point, len(ref))
	for i, p := range ref {
		live[i] = p.Add(Pt(5, -3))
	}

	fit, ok := FitRigid(ref, live)
	if !ok {
		t.Fatal("FitRigid reported degenerate fit")
	}
	if !near(fit.Rotation.Sin, 0) || !near(fit.Rotation.Cos, 1) {
		t.Errorf("rotation = %+v, want identity", fit.Rotation)
	}
	for i, p := range ref {
		if got := fit.Transform(p); !nearPt(got, live[i]) {
			t.Errorf("Transform(%v) = %v, want %v", p, got, live[i])
		}
	}
}

func TestFitRigidRotation(t *testing.T) {
	ref := []r2.Point{Pt(-1, 0), Pt(1, 0), Pt(0, 2)}
	theta := 0.3
	rot := Rotation{Cos: math.Cos(theta), Sin: math.Sin(theta)}
	live := make([]r2.Point, len(ref))
	for i, p := range ref {
		live[i] = rot.Apply(p).Add(Pt(4, 4))
	}

	fit, ok := FitRigid(ref, live)
	if !ok {
		t.Fatal("FitRigid reported degenerate fit")
	}
	if !near(fit.Rotation.Angle(), theta) {
		t.Errorf("angle = %v, want %v", fit.Rotation.Angle(), theta)
	}
}

func TestFitRigidDegenerate(t *testing.T) {
	tests := []struct {
		name      string
		ref, live []r2.Point
	}{
		{"Single", []r2.Point{Pt(1, 1)}, []r2.Point{Pt(5, 5)}},
		{"Collapsed", []r2.Point{Pt(1, 1), Pt(1, 1)}, []r2.Point{Pt(0, 0), Pt(3, 3)}},
		{"Empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := FitRigid(tt.ref, tt.live); ok {
				t.Error("expected degenerate fit")
			}
		})
	}
}
