// Package geom provides the 2D vector math used by the constraint solver.
//
// Points are [r2.Point] values from github.com/golang/geo. The package adds
// the pieces the solver needs on top: distances, centroids, and a
// closed-form best-fit rotation between two point sets.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// MinFitMagnitude is the smallest rotation-fit magnitude considered usable.
// Below it the reference and live configurations carry no usable rotational
// information (for example a single point, or all points collapsed).
const MinFitMagnitude = 1e-8

// Pt is a convenience function to create a point.
func Pt(x, y float64) r2.Point { return r2.Point{X: x, Y: y} }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r2.Point) float64 {
	return b.Sub(a).Norm()
}

// Centroid returns the mean of pts. The centroid of no points is the origin.
func Centroid(pts []r2.Point) r2.Point {
	if len(pts) == 0 {
		return r2.Point{}
	}
	var sum r2.Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(pts)))
}

// Rotation is a pure 2D rotation stored as its cosine and sine.
type Rotation struct {
	Cos float64
	Sin float64
}

// Identity is the rotation by zero radians.
var Identity = Rotation{Cos: 1}

// Apply rotates v about the origin.
func (r Rotation) Apply(v r2.Point) r2.Point {
	return r2.Point{
		X: r.Cos*v.X - r.Sin*v.Y,
		Y: r.Sin*v.X + r.Cos*v.Y,
	}
}

// Angle returns the rotation angle in radians, in (-π, π].
func (r Rotation) Angle() float64 {
	return math.Atan2(r.Sin, r.Cos)
}

// Fit is a rigid transform (rotation about a centroid plus translation)
// mapping a reference configuration onto a live one.
type Fit struct {
	RefCentroid  r2.Point
	LiveCentroid r2.Point
	Rotation     Rotation
}

// Transform maps a reference point into live space:
// LiveCentroid + R·(ref − RefCentroid).
func (f Fit) Transform(ref r2.Point) r2.Point {
	return f.LiveCentroid.Add(f.Rotation.Apply(ref.Sub(f.RefCentroid)))
}

// FitRigid computes the rotation that best maps ref onto live, point i to
// point i, without scaling. It accumulates the dot and cross products of the
// centered point pairs; the normalized pair is the cosine and sine of the
// optimal angle. The boolean is false when the accumulated magnitude is below
// [MinFitMagnitude], in which case no rotation is defined and callers should
// leave the live points alone.
//
// ref and live must have the same length.
func FitRigid(ref, live []r2.Point) (Fit, bool) {
	fit := Fit{
		RefCentroid:  Centroid(ref),
		LiveCentroid: Centroid(live),
	}

	var dot, cross float64
	for i := range ref {
		a := ref[i].Sub(fit.RefCentroid)
		b := live[i].Sub(fit.LiveCentroid)
		dot += a.Dot(b)
		cross += a.Cross(b)
	}

	mag := math.Sqrt(dot*dot + cross*cross)
	if mag < MinFitMagnitude {
		return fit, false
	}
	fit.Rotation = Rotation{Cos: dot / mag, Sin: cross / mag}
	return fit, true
}
