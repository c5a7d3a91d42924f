// Package solver moves the pivots of a frame toward satisfying its shapes.
//
// The solver is positional, not force based. One [Tick] runs two phases:
//
//  1. Rigid alignment: each rigid group's reference configuration is fitted
//     onto its live positions with a single best-fit rotation about the
//     centroids, and every non-locked member is snapped onto the fitted pose.
//  2. Edge relaxation: every shape not owned by a rigid group moves its
//     endpoints along the shape toward the rest length. Both endpoints share
//     the correction when free; a single free endpoint takes all of it.
//
// [Run] repeats ticks to improve convergence, Gauss–Seidel style: each shape
// sees the positions already updated by the shapes before it.
//
// Degenerate elements (coincident endpoints, groups without a usable
// rotation) are skipped for the tick and counted in [Stats]; they never abort
// a tick.
package solver

import (
	"github.com/golang/geo/r2"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/core/geom"
)

// MinEdgeLength is the distance below which a shape's direction is
// undefined and the shape is skipped.
const MinEdgeLength = 1e-7

// Network is the view of a frame the solver reads and writes.
// *frame.Frame implements it.
type Network interface {
	PivotCount() int
	Position(id int) r2.Point
	Pivot(id int) (frame.Pivot, bool)
	Move(id int, p r2.Point)
	Shapes() []frame.Shape
	Groups() []frame.RigidGroup
}

var _ Network = (*frame.Frame)(nil)

// Stats counts what a tick (or a run of ticks) did.
type Stats struct {
	Ticks         int
	GroupsAligned int // groups whose members were snapped onto a fitted pose
	GroupsSkipped int // groups without a usable rotation
	ShapesRelaxed int
	ShapesSkipped int // degenerate shapes (coincident endpoints)
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Ticks += o.Ticks
	s.GroupsAligned += o.GroupsAligned
	s.GroupsSkipped += o.GroupsSkipped
	s.ShapesRelaxed += o.ShapesRelaxed
	s.ShapesSkipped += o.ShapesSkipped
}

// Run performs n ticks. n <= 0 does nothing.
func Run(net Network, n int) Stats {
	var total Stats
	for i := 0; i < n; i++ {
		total.Add(Tick(net))
	}
	return total
}

// Tick runs one rigid alignment pass over all groups followed by one
// relaxation pass over all eligible shapes.
func Tick(net Network) Stats {
	st := Stats{Ticks: 1}
	locked := lockedSet(net)

	for _, g := range net.Groups() {
		if Align(net, g, locked) {
			st.GroupsAligned++
		} else {
			st.GroupsSkipped++
		}
	}

	grouped := groupedSet(net)
	for _, s := range net.Shapes() {
		switch relax(net, s, grouped, locked) {
		case relaxed:
			st.ShapesRelaxed++
		case degenerate:
			st.ShapesSkipped++
		}
	}
	return st
}

// Align snaps the non-locked members of g onto the rigid pose that best fits
// the group's reference configuration to its live positions. It reports
// false, leaving every position untouched, when the fit is degenerate.
//
// Locked members are never moved, but their live positions still take part
// in the fit, so a pinned member pulls the rotation applied to its mates.
func Align(net Network, g frame.RigidGroup, locked []bool) bool {
	live := make([]r2.Point, len(g.Members))
	for i, m := range g.Members {
		live[i] = net.Position(m)
	}

	fit, ok := geom.FitRigid(g.Reference, live)
	if !ok {
		return false
	}
	for i, m := range g.Members {
		if locked[m] {
			continue
		}
		net.Move(m, fit.Transform(g.Reference[i]))
	}
	return true
}

type outcome int

const (
	ineligible outcome = iota
	degenerate
	relaxed
)

func relax(net Network, s frame.Shape, grouped, locked []bool) outcome {
	if grouped[s.P1] || grouped[s.P2] {
		return ineligible
	}
	l1, l2 := locked[s.P1], locked[s.P2]
	if l1 && l2 {
		return ineligible
	}

	p1, p2 := net.Position(s.P1), net.Position(s.P2)
	delta := p2.Sub(p1)
	d := delta.Norm()
	if d < MinEdgeLength {
		return degenerate
	}

	diff := s.RestLength - d
	dir := delta.Mul(1 / d)
	switch {
	case l1:
		net.Move(s.P2, p2.Add(dir.Mul(diff)))
	case l2:
		net.Move(s.P1, p1.Sub(dir.Mul(diff)))
	default:
		half := dir.Mul(0.5 * diff)
		net.Move(s.P1, p1.Sub(half))
		net.Move(s.P2, p2.Add(half))
	}
	return relaxed
}

func lockedSet(net Network) []bool {
	out := make([]bool, net.PivotCount())
	for i := range out {
		p, _ := net.Pivot(i)
		out[i] = p.Locked
	}
	return out
}

func groupedSet(net Network) []bool {
	out := make([]bool, net.PivotCount())
	for _, g := range net.Groups() {
		for _, m := range g.Members {
			out[m] = true
		}
	}
	return out
}
