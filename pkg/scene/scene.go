// Package scene stores frames as documents that keep everything a frame
// holds, including shape colors and rest lengths.
//
// The packed record of package codec is the sharing format: short, but it
// drops colors and rounds coordinates. A [Document] is the saving format.
// It serializes to JSON and TOML files and carries bson tags for the
// MongoDB library store.
package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
)

// ErrUnknownKind is returned by [Document.Frame] for a shape kind other
// than "circle" or "line".
var ErrUnknownKind = errors.New("unknown shape kind")

// Document is the saved form of a frame.
type Document struct {
	ID      string    `json:"id,omitempty" toml:"id,omitempty" bson:"_id,omitempty"`
	Name    string    `json:"name" toml:"name" bson:"name"`
	Created time.Time `json:"created" toml:"created" bson:"created"`
	Updated time.Time `json:"updated" toml:"updated" bson:"updated"`
	Pivots  []Pivot   `json:"pivots" toml:"pivots" bson:"pivots"`
	Shapes  []Shape   `json:"shapes" toml:"shapes" bson:"shapes"`
}

// Pivot is a saved pivot.
type Pivot struct {
	X      float64 `json:"x" toml:"x" bson:"x"`
	Y      float64 `json:"y" toml:"y" bson:"y"`
	Rigid  bool    `json:"rigid,omitempty" toml:"rigid,omitempty" bson:"rigid,omitempty"`
	Locked bool    `json:"locked,omitempty" toml:"locked,omitempty" bson:"locked,omitempty"`
}

// Shape is a saved shape. Thickness is set only for lines.
type Shape struct {
	Kind       string   `json:"kind" toml:"kind" bson:"kind"`
	P1         int      `json:"p1" toml:"p1" bson:"p1"`
	P2         int      `json:"p2" toml:"p2" bson:"p2"`
	Color      string   `json:"color,omitempty" toml:"color,omitempty" bson:"color,omitempty"`
	Thickness  *float64 `json:"thickness,omitempty" toml:"thickness,omitempty" bson:"thickness,omitempty"`
	RestLength float64  `json:"rest_length" toml:"rest_length" bson:"rest_length"`
}

// FromFrame captures f as a document named name.
func FromFrame(f *frame.Frame, name string) Document {
	doc := Document{
		Name:   name,
		Pivots: make([]Pivot, 0, f.PivotCount()),
		Shapes: make([]Shape, 0, f.ShapeCount()),
	}
	for _, p := range f.Pivots() {
		doc.Pivots = append(doc.Pivots, Pivot{X: p.Pos.X, Y: p.Pos.Y, Rigid: p.Rigid, Locked: p.Locked})
	}
	for _, s := range f.Shapes() {
		shape := Shape{
			Kind:       s.Kind.String(),
			P1:         s.P1,
			P2:         s.P2,
			Color:      s.Color,
			RestLength: s.RestLength,
		}
		if t, ok := s.Thickness(); ok {
			shape.Thickness = &t
		}
		doc.Shapes = append(doc.Shapes, shape)
	}
	return doc
}

// Frame rebuilds the frame held by the document. Rest lengths are restored
// as saved, so a deformed frame keeps pulling toward its saved shape.
func (d Document) Frame() (*frame.Frame, error) {
	f := frame.New()
	for i, p := range d.Pivots {
		id, err := f.AddPivot(p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("pivot %d: %w", i, err)
		}
		if err := f.SetRigid(id, p.Rigid); err != nil {
			return nil, err
		}
		if err := f.SetLocked(id, p.Locked); err != nil {
			return nil, err
		}
	}

	for i, s := range d.Shapes {
		color := s.Color
		if color == "" {
			color = frame.DefaultColor
		}

		var (
			id  int
			err error
		)
		switch s.Kind {
		case frame.KindCircle.String():
			id, err = f.AddCircle(s.P1, s.P2, color)
		case frame.KindLine.String():
			var t float64
			if s.Thickness != nil {
				t = *s.Thickness
			}
			id, err = f.AddLine(s.P1, s.P2, color, t)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		if err := f.SetRestLength(id, s.RestLength); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
	}

	f.Rebuild()
	return f, nil
}
