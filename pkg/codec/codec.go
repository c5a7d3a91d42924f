package codec

import (
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/errors"
)

// Scale is the fixed-point factor applied to coordinates and thickness.
const Scale = 10

// Marshal writes f as a text record. It fails with an invalid input error
// when a coordinate or thickness is not finite or does not fit the record's
// fixed-point range.
func Marshal(f *frame.Frame) (string, error) {
	var (
		b   strings.Builder
		err error
	)
	w := func(v int64) {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	wf := func(v float64, what string, id int) {
		if err != nil {
			return
		}
		n, ferr := fixed(v)
		if ferr != nil {
			err = errors.Wrap(errors.ErrCodeInvalidInput, ferr, "%s %d", what, id)
			return
		}
		w(n)
	}

	pivots := f.Pivots()
	w(int64(len(pivots)))
	for i, p := range pivots {
		wf(p.Pos.X, "pivot", i)
		wf(p.Pos.Y, "pivot", i)
		w(flag(p.Rigid))
		w(flag(p.Locked))
	}

	shapes := f.Shapes()
	w(int64(len(shapes)))
	for i, s := range shapes {
		w(int64(s.Kind))
		w(int64(s.P1))
		w(int64(s.P2))
		if t, ok := s.Thickness(); ok {
			wf(t, "line", i)
		}
	}
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Unmarshal parses a text record into a new frame.
func Unmarshal(record string) (*frame.Frame, error) {
	fields := strings.Split(record, ",")
	if n := len(fields); n > 1 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	r := &reader{fields: fields}

	f := frame.New()
	pivotCount, err := r.count("pivot count", 4)
	if err != nil {
		return nil, err
	}
	for i := 0; i < pivotCount; i++ {
		x, err := r.int("pivot x")
		if err != nil {
			return nil, err
		}
		y, err := r.int("pivot y")
		if err != nil {
			return nil, err
		}
		rigid, err := r.flag("rigid flag")
		if err != nil {
			return nil, err
		}
		locked, err := r.flag("locked flag")
		if err != nil {
			return nil, err
		}
		id, err := f.AddPivot(float64(x)/Scale, float64(y)/Scale)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "pivot %d", i)
		}
		if err := f.SetRigid(id, rigid); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "pivot %d", id)
		}
		if err := f.SetLocked(id, locked); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "pivot %d", id)
		}
	}

	shapeCount, err := r.count("shape count", 3)
	if err != nil {
		return nil, err
	}
	for i := 0; i < shapeCount; i++ {
		at := r.pos
		kind, err := r.int("shape kind")
		if err != nil {
			return nil, err
		}
		p1, err := r.int("shape endpoint")
		if err != nil {
			return nil, err
		}
		p2, err := r.int("shape endpoint")
		if err != nil {
			return nil, err
		}

		switch frame.Kind(kind) {
		case frame.KindCircle:
			_, err = f.AddCircle(int(p1), int(p2), frame.DefaultColor)
		case frame.KindLine:
			var t int64
			if t, err = r.int("line thickness"); err != nil {
				return nil, err
			}
			_, err = f.AddLine(int(p1), int(p2), frame.DefaultColor, float64(t)/Scale)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "field %d: unknown shape kind %d", at, kind)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "field %d: shape %d", at, i)
		}
	}

	if r.pos != len(r.fields) {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"field %d: %d unexpected trailing fields", r.pos, len(r.fields)-r.pos)
	}

	f.RecomputeRestLengths()
	return f, nil
}

// maxFixed bounds the scaled values fixed accepts. It is the largest
// float64 below 2^63, so every accepted value converts to int64 exactly.
const maxFixed = math.MaxInt64 - 1023

// ErrOutOfRange is returned by [Marshal] for a value that is not finite or
// too large for the record's fixed-point fields.
var ErrOutOfRange = stderrors.New("value out of record range")

// fixed rounds v*Scale half up, matching how records have always been written.
func fixed(v float64) (int64, error) {
	r := math.Floor(v*Scale + 0.5)
	if math.IsNaN(r) || r > maxFixed || r < -maxFixed {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	return int64(r), nil
}

func flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

type reader struct {
	fields []string
	pos    int
}

func (r *reader) int(what string) (int64, error) {
	if r.pos >= len(r.fields) {
		return 0, errors.New(errors.ErrCodeInvalidFormat, "field %d: missing %s", r.pos, what)
	}
	v, err := strconv.ParseInt(r.fields[r.pos], 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "field %d: %s", r.pos, what)
	}
	r.pos++
	return v, nil
}

// count reads a non-negative element count and checks that the remaining
// fields can hold at least minFields per element.
func (r *reader) count(what string, minFields int) (int, error) {
	at := r.pos
	v, err := r.int(what)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.New(errors.ErrCodeInvalidFormat, "field %d: negative %s %d", at, what, v)
	}
	if left := int64(len(r.fields) - r.pos); v > left/int64(minFields) {
		return 0, errors.New(errors.ErrCodeInvalidFormat,
			"field %d: %s %d exceeds the %d remaining fields", at, what, v, left)
	}
	return int(v), nil
}

func (r *reader) flag(what string) (bool, error) {
	at := r.pos
	v, err := r.int(what)
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.New(errors.ErrCodeInvalidFormat, "field %d: %s must be 0 or 1, got %d", at, what, v)
	}
}
