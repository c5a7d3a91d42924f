package frame

// DefaultColor is the color given to shapes whose color is not known, such
// as shapes restored from a serialized record.
const DefaultColor = "#000000"

// DemoLineThickness is the thickness of the line in [Demo].
const DemoLineThickness = 15

// Demo returns the start-up frame of the editor: two independent circles
// and one vertical line, each on its own pair of pivots.
func Demo() *Frame {
	f := New()
	circle := func(x1, y1, x2, y2 float64) {
		_, _ = f.AddCircle(f.MustAddPivot(x1, y1), f.MustAddPivot(x2, y2), DefaultColor)
	}
	line := func(x1, y1, x2, y2 float64) {
		_, _ = f.AddLine(f.MustAddPivot(x1, y1), f.MustAddPivot(x2, y2), DefaultColor, DemoLineThickness)
	}

	circle(10, 10, 20, 20)
	circle(100, 100, 120, 120)
	line(50, 50, 50, 150)
	return f
}
