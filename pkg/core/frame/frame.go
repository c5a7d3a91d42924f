package frame

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r2"

	"github.com/matzehuels/pivotframe/pkg/core/geom"
)

var (
	// ErrUnknownPivot is returned when a pivot index is out of range.
	ErrUnknownPivot = errors.New("unknown pivot")

	// ErrUnknownShape is returned when a shape index is out of range.
	ErrUnknownShape = errors.New("unknown shape")

	// ErrSelfLoop is returned by [Frame.AddCircle] and [Frame.AddLine] when
	// both endpoints are the same pivot.
	ErrSelfLoop = errors.New("shape endpoints must be distinct")

	// ErrInvalidThickness is returned by [Frame.AddLine] for a negative or
	// non-finite thickness.
	ErrInvalidThickness = errors.New("invalid line thickness")

	// ErrNotFinite is returned when a pivot coordinate is NaN or infinite.
	ErrNotFinite = errors.New("coordinate is not finite")

	// ErrInvalidShapeEndpoint is returned by [Frame.Validate] when a shape
	// references a pivot that does not exist. This indicates corruption.
	ErrInvalidShapeEndpoint = errors.New("invalid shape endpoint")

	// ErrOverlappingGroups is returned by [Frame.Validate] when a rigid
	// pivot belongs to more than one rigid group.
	ErrOverlappingGroups = errors.New("rigid groups overlap")
)

// Kind distinguishes circle shapes from line shapes. The numeric values are
// part of the serialized record format.
type Kind int

const (
	// KindCircle is a circle whose diameter spans its two pivots.
	KindCircle Kind = 1
	// KindLine is a stroked segment between its two pivots.
	KindLine Kind = 2
)

// String returns "circle" or "line".
func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindLine:
		return "line"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is a known shape kind.
func (k Kind) Valid() bool { return k == KindCircle || k == KindLine }

// Pivot is a point of the network.
type Pivot struct {
	Pos    r2.Point
	Rigid  bool // moves with its rigid group instead of relaxing
	Locked bool // never moved by the solver
}

// Shape is a distance constraint between pivots P1 and P2.
//
// Shapes are created with [Frame.AddCircle] or [Frame.AddLine]; the
// thickness is only defined for lines and is read through [Shape.Thickness].
type Shape struct {
	Kind       Kind
	P1, P2     int
	RestLength float64
	Color      string

	thickness float64
}

// Endpoints returns the two pivot indices of the shape.
func (s Shape) Endpoints() (int, int) { return s.P1, s.P2 }

// Touches reports whether pivot id is one of the shape's endpoints.
func (s Shape) Touches(id int) bool { return s.P1 == id || s.P2 == id }

// Other returns the endpoint opposite id. It assumes Touches(id).
func (s Shape) Other(id int) int {
	if s.P1 == id {
		return s.P2
	}
	return s.P1
}

// Thickness returns the stroke thickness of a line. The boolean is false
// for circles, which have no thickness.
func (s Shape) Thickness() (float64, bool) {
	if s.Kind != KindLine {
		return 0, false
	}
	return s.thickness, true
}

// RigidGroup is a cluster of pivots that moves as one rigid body.
type RigidGroup struct {
	// Members holds pivot indices in ascending order.
	Members []int
	// Reference holds each member's position at the last rebuild,
	// aligned with Members.
	Reference []r2.Point
}

// Closest is the result of [Frame.ClosestPivot].
type Closest struct {
	ID       int
	Distance float64
	Position r2.Point
}

// Frame is a network of pivots and shapes plus its derived rigid groups.
//
// The zero value is an empty, usable frame.
type Frame struct {
	pivots []Pivot
	shapes []Shape
	groups []RigidGroup
	inGrp  []bool // pivot index -> member of any group
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{}
}

// =============================================================================
// Pivots
// =============================================================================

// AddPivot appends a free, non-rigid pivot at (x, y) and returns its index.
func (f *Frame) AddPivot(x, y float64) (int, error) {
	if err := checkFinite(x, y); err != nil {
		return -1, err
	}
	f.pivots = append(f.pivots, Pivot{Pos: geom.Pt(x, y)})
	f.inGrp = append(f.inGrp, false)
	return len(f.pivots) - 1, nil
}

// MustAddPivot is like [Frame.AddPivot] but panics if a coordinate is not
// finite. It is meant for frames built from constants.
func (f *Frame) MustAddPivot(x, y float64) int {
	id, err := f.AddPivot(x, y)
	if err != nil {
		panic(err)
	}
	return id
}

// PivotCount returns the number of pivots.
func (f *Frame) PivotCount() int { return len(f.pivots) }

// Pivot returns the pivot at id.
func (f *Frame) Pivot(id int) (Pivot, bool) {
	if !f.has(id) {
		return Pivot{}, false
	}
	return f.pivots[id], true
}

// Pivots returns a copy of all pivots in index order.
func (f *Frame) Pivots() []Pivot { return slices.Clone(f.pivots) }

// Position returns the position of pivot id. It panics if id is out of
// range, like a slice index.
func (f *Frame) Position(id int) r2.Point { return f.pivots[id].Pos }

// SetPosition moves pivot id to (x, y). Rest lengths are not touched.
func (f *Frame) SetPosition(id int, x, y float64) error {
	if !f.has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownPivot, id)
	}
	if err := checkFinite(x, y); err != nil {
		return err
	}
	f.pivots[id].Pos = geom.Pt(x, y)
	return nil
}

// Move sets the position of pivot id without validating the index. It is
// the write path of the solver, which only ever passes indices taken from
// the frame itself.
func (f *Frame) Move(id int, p r2.Point) { f.pivots[id].Pos = p }

// SetRigid sets the rigid flag of pivot id. Changing the flag rebuilds the
// rigid groups.
func (f *Frame) SetRigid(id int, rigid bool) error {
	if !f.has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownPivot, id)
	}
	if f.pivots[id].Rigid == rigid {
		return nil
	}
	f.pivots[id].Rigid = rigid
	f.Rebuild()
	return nil
}

// SetLocked sets the locked flag of pivot id.
func (f *Frame) SetLocked(id int, locked bool) error {
	if !f.has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownPivot, id)
	}
	f.pivots[id].Locked = locked
	return nil
}

// DeletePivot removes pivot id together with every shape that touches it.
// Remaining shape endpoints above id are decremented so that they keep
// pointing at the same pivots, then the rigid groups are rebuilt.
func (f *Frame) DeletePivot(id int) error {
	if !f.has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownPivot, id)
	}
	f.shapes = slices.DeleteFunc(f.shapes, func(s Shape) bool { return s.Touches(id) })
	for i := range f.shapes {
		if f.shapes[i].P1 > id {
			f.shapes[i].P1--
		}
		if f.shapes[i].P2 > id {
			f.shapes[i].P2--
		}
	}
	f.pivots = slices.Delete(f.pivots, id, id+1)
	f.Rebuild()
	return nil
}

// ClosestPivot returns the pivot nearest to (x, y). The boolean is false for
// an empty frame.
//
// Pivots are scanned from the highest index down and only a strictly smaller
// distance replaces the current best, so on an exact tie the pivot with the
// highest index wins. Pivots added later are drawn on top, which makes this
// the one a pointer is visually over.
func (f *Frame) ClosestPivot(x, y float64) (Closest, bool) {
	target := geom.Pt(x, y)
	best := Closest{ID: -1}
	for i := len(f.pivots) - 1; i >= 0; i-- {
		d := geom.Distance(f.pivots[i].Pos, target)
		if best.ID == -1 || d < best.Distance {
			best = Closest{ID: i, Distance: d, Position: f.pivots[i].Pos}
		}
	}
	return best, best.ID != -1
}

// =============================================================================
// Shapes
// =============================================================================

// AddCircle adds a circle spanning p1 and p2 and returns its index. The rest
// length is the current distance between the pivots.
func (f *Frame) AddCircle(p1, p2 int, color string) (int, error) {
	if err := f.checkEndpoints(p1, p2); err != nil {
		return -1, err
	}
	return f.addShape(Shape{Kind: KindCircle, P1: p1, P2: p2, Color: color}), nil
}

// AddLine adds a line from p1 to p2 and returns its index. The rest length
// is the current distance between the pivots.
func (f *Frame) AddLine(p1, p2 int, color string, thickness float64) (int, error) {
	if err := f.checkEndpoints(p1, p2); err != nil {
		return -1, err
	}
	if thickness < 0 || math.IsNaN(thickness) || math.IsInf(thickness, 0) {
		return -1, fmt.Errorf("%w: %v", ErrInvalidThickness, thickness)
	}
	return f.addShape(Shape{Kind: KindLine, P1: p1, P2: p2, Color: color, thickness: thickness}), nil
}

func checkFinite(x, y float64) error {
	for _, v := range [2]float64{x, y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: (%v, %v)", ErrNotFinite, x, y)
		}
	}
	return nil
}

func (f *Frame) addShape(s Shape) int {
	s.RestLength = f.distance(s.P1, s.P2)
	f.shapes = append(f.shapes, s)
	return len(f.shapes) - 1
}

// ShapeCount returns the number of shapes.
func (f *Frame) ShapeCount() int { return len(f.shapes) }

// Shape returns the shape at id.
func (f *Frame) Shape(id int) (Shape, bool) {
	if id < 0 || id >= len(f.shapes) {
		return Shape{}, false
	}
	return f.shapes[id], true
}

// Shapes returns a copy of all shapes in index order.
func (f *Frame) Shapes() []Shape { return slices.Clone(f.shapes) }

// RecomputeRestLengths resets the rest length of every shape to the current
// distance between its pivots, then rebuilds the rigid groups.
func (f *Frame) RecomputeRestLengths() {
	for i := range f.shapes {
		f.shapes[i].RestLength = f.distance(f.shapes[i].P1, f.shapes[i].P2)
	}
	f.Rebuild()
}

// RecomputeRestLengthsAt resets the rest length of every shape touching
// pivot id, then rebuilds the rigid groups. Hosts call it after dragging a
// pivot to make the dragged geometry the new natural one.
func (f *Frame) RecomputeRestLengthsAt(id int) error {
	if !f.has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownPivot, id)
	}
	for i := range f.shapes {
		if f.shapes[i].Touches(id) {
			f.shapes[i].RestLength = f.distance(f.shapes[i].P1, f.shapes[i].P2)
		}
	}
	f.Rebuild()
	return nil
}

// SetRestLength overrides the rest length of shape id. Restoring a saved
// scene uses it to bring back a deformed state.
func (f *Frame) SetRestLength(id int, length float64) error {
	if id < 0 || id >= len(f.shapes) {
		return fmt.Errorf("%w: %d", ErrUnknownShape, id)
	}
	if length < 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return fmt.Errorf("invalid rest length %v", length)
	}
	f.shapes[id].RestLength = length
	return nil
}

// =============================================================================
// Rigid Groups
// =============================================================================

// Groups returns the current rigid groups ordered by their lowest member.
// The returned groups share storage with the frame and must not be modified.
func (f *Frame) Groups() []RigidGroup { return f.groups }

// Grouped reports whether pivot id belongs to any rigid group.
func (f *Frame) Grouped(id int) bool {
	return f.has(id) && f.inGrp[id]
}

// Rebuild recomputes the rigid groups from scratch and snapshots their
// reference configurations. Flag changes, deletions and rest length
// recomputation call it; hosts call it directly after adding shapes to rigid
// pivots.
func (f *Frame) Rebuild() {
	f.groups = BuildGroups(f.pivots, f.shapes)
	f.inGrp = make([]bool, len(f.pivots))
	for _, g := range f.groups {
		for _, m := range g.Members {
			f.inGrp[m] = true
		}
	}
}

// =============================================================================
// Whole-frame helpers
// =============================================================================

// Validate checks the structural invariants of the frame: every shape
// references two distinct existing pivots, and no rigid pivot sits in two
// rigid groups.
func (f *Frame) Validate() error {
	for i, s := range f.shapes {
		if !f.has(s.P1) || !f.has(s.P2) {
			return fmt.Errorf("%w: shape %d (%d, %d)", ErrInvalidShapeEndpoint, i, s.P1, s.P2)
		}
		if s.P1 == s.P2 {
			return fmt.Errorf("%w: shape %d", ErrSelfLoop, i)
		}
	}
	seen := make(map[int]int)
	for gi, g := range f.groups {
		for _, m := range g.Members {
			if !f.has(m) {
				return fmt.Errorf("%w: group %d member %d", ErrUnknownPivot, gi, m)
			}
			if !f.pivots[m].Rigid {
				continue
			}
			if prev, ok := seen[m]; ok {
				return fmt.Errorf("%w: pivot %d in groups %d and %d", ErrOverlappingGroups, m, prev, gi)
			}
			seen[m] = gi
		}
	}
	return nil
}

// Bounds returns the smallest rectangle containing every pivot. An empty
// frame has an empty rectangle.
func (f *Frame) Bounds() r2.Rect {
	if len(f.pivots) == 0 {
		return r2.EmptyRect()
	}
	pts := make([]r2.Point, len(f.pivots))
	for i, p := range f.pivots {
		pts[i] = p.Pos
	}
	return r2.RectFromPoints(pts...)
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		pivots: slices.Clone(f.pivots),
		shapes: slices.Clone(f.shapes),
		inGrp:  slices.Clone(f.inGrp),
		groups: make([]RigidGroup, len(f.groups)),
	}
	for i, g := range f.groups {
		out.groups[i] = RigidGroup{
			Members:   slices.Clone(g.Members),
			Reference: slices.Clone(g.Reference),
		}
	}
	return out
}

func (f *Frame) has(id int) bool { return id >= 0 && id < len(f.pivots) }

func (f *Frame) checkEndpoints(p1, p2 int) error {
	if !f.has(p1) {
		return fmt.Errorf("%w: %d", ErrUnknownPivot, p1)
	}
	if !f.has(p2) {
		return fmt.Errorf("%w: %d", ErrUnknownPivot, p2)
	}
	if p1 == p2 {
		return fmt.Errorf("%w: %d", ErrSelfLoop, p1)
	}
	return nil
}

func (f *Frame) distance(p1, p2 int) float64 {
	return geom.Distance(f.pivots[p1].Pos, f.pivots[p2].Pos)
}
