// Package session holds the interactive editing state for one frame.
//
// A [Session] owns a frame and replays the editor's pointer protocol on it:
//   - [Session.Hover] tracks the pivot closest to the pointer
//   - [Session.Press] grabs that pivot
//   - [Session.Drag] moves the grabbed pivot by the pointer offset since
//     the press, then either runs solver ticks ([ModeSimulate]) or makes
//     the dragged geometry the new rest state ([ModeAnchor])
//   - [Session.Release] lets go
//
// A session is single-owner and not safe for concurrent use. Sessions are
// persisted through a [Store] as a [Record], which keeps the frame as a
// [scene.Document].
//
// # Usage
//
//	sess := session.New(frame.Demo())
//	sess.Press(10, 10)
//	sess.Drag(30, 10, session.ModeSimulate)
//	sess.Release()
//
//	store, err := session.NewFileStore(dir)
//	err = store.Set(ctx, sess.Record())
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/core/solver"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")

	// ErrNotDragging is returned by [Session.Drag] when no pivot is held.
	ErrNotDragging = errors.New("no pivot is being dragged")
)

// Default values.
const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultTicksPerDrag is the number of solver ticks run per drag step.
	DefaultTicksPerDrag = 1
)

// Mode selects what a drag step does after moving the pivot.
type Mode int

const (
	// ModeSimulate runs solver ticks so the rest of the frame follows.
	ModeSimulate Mode = iota
	// ModeAnchor resets the rest lengths of the dragged pivot's shapes,
	// reshaping the frame without pulling on it.
	ModeAnchor
)

// String returns "simulate" or "anchor".
func (m Mode) String() string {
	switch m {
	case ModeSimulate:
		return "simulate"
	case ModeAnchor:
		return "anchor"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Session is the editing state of one frame.
type Session struct {
	ID           string
	Name         string
	Frame        *frame.Frame
	TicksPerDrag int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	hover    frame.Closest
	hovering bool
	grab     *grab
}

// grab records where a drag started.
type grab struct {
	pivot int
	start r2.Point // pivot position at press
	press r2.Point // pointer position at press
}

// New starts a session on f with a fresh ID.
func New(f *frame.Frame) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		Frame:        f,
		TicksPerDrag: DefaultTicksPerDrag,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Hover updates the highlighted pivot to the one closest to (x, y).
// While a pivot is held the highlight stays on it.
func (s *Session) Hover(x, y float64) (frame.Closest, bool) {
	if s.grab != nil {
		return s.hover, s.hovering
	}
	s.hover, s.hovering = s.Frame.ClosestPivot(x, y)
	return s.hover, s.hovering
}

// Press grabs the pivot closest to (x, y). It reports false when the frame
// has no pivots.
func (s *Session) Press(x, y float64) (frame.Closest, bool) {
	c, ok := s.Frame.ClosestPivot(x, y)
	s.hover, s.hovering = c, ok
	if !ok {
		s.grab = nil
		return c, false
	}
	s.grab = &grab{pivot: c.ID, start: c.Position, press: r2.Point{X: x, Y: y}}
	return c, true
}

// Drag moves the held pivot to its press position plus the pointer offset
// since the press, then applies mode.
func (s *Session) Drag(x, y float64, mode Mode) (solver.Stats, error) {
	if s.grab == nil {
		return solver.Stats{}, ErrNotDragging
	}
	g := s.grab
	pos := g.start.Add(r2.Point{X: x, Y: y}.Sub(g.press))
	if err := s.Frame.SetPosition(g.pivot, pos.X, pos.Y); err != nil {
		return solver.Stats{}, err
	}
	s.touch()

	switch mode {
	case ModeAnchor:
		return solver.Stats{}, s.Frame.RecomputeRestLengthsAt(g.pivot)
	default:
		return solver.Run(s.Frame, s.TicksPerDrag), nil
	}
}

// Release lets go of the held pivot. It reports whether one was held.
func (s *Session) Release() bool {
	held := s.grab != nil
	s.grab = nil
	return held
}

// Dragging returns the held pivot.
func (s *Session) Dragging() (int, bool) {
	if s.grab == nil {
		return -1, false
	}
	return s.grab.pivot, true
}

// Highlighted returns the pivot last found by Hover or Press.
func (s *Session) Highlighted() (frame.Closest, bool) {
	return s.hover, s.hovering
}

// Simulate runs n solver ticks outside of a drag.
func (s *Session) Simulate(n int) solver.Stats {
	s.touch()
	return solver.Run(s.Frame, n)
}

func (s *Session) touch() { s.UpdatedAt = time.Now() }

// =============================================================================
// Persistence
// =============================================================================

// Record is the stored form of a session.
type Record struct {
	ID           string         `json:"id" toml:"id"`
	Name         string         `json:"name,omitempty" toml:"name,omitempty"`
	TicksPerDrag int            `json:"ticks_per_drag" toml:"ticks_per_drag"`
	CreatedAt    time.Time      `json:"created_at" toml:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" toml:"updated_at"`
	ExpiresAt    time.Time      `json:"expires_at" toml:"expires_at"`
	Scene        scene.Document `json:"scene" toml:"scene"`
}

// IsExpired returns true if the record has expired.
func (r *Record) IsExpired() bool {
	return !r.ExpiresAt.IsZero() && time.Now().After(r.ExpiresAt)
}

// Record captures the session for storage. The drag state is not kept.
func (s *Session) Record() *Record {
	return &Record{
		ID:           s.ID,
		Name:         s.Name,
		Scene:        scene.FromFrame(s.Frame, s.Name),
		TicksPerDrag: s.TicksPerDrag,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		ExpiresAt:    s.UpdatedAt.Add(DefaultTTL),
	}
}

// Restore rebuilds a session from a stored record.
func Restore(r *Record) (*Session, error) {
	f, err := r.Scene.Frame()
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", r.ID, err)
	}
	ticks := r.TicksPerDrag
	if ticks <= 0 {
		ticks = DefaultTicksPerDrag
	}
	return &Session{
		ID:           r.ID,
		Name:         r.Name,
		Frame:        f,
		TicksPerDrag: ticks,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session record by ID.
	// Returns nil, ErrNotFound if the session doesn't exist and
	// nil, ErrExpired if it has expired.
	Get(ctx context.Context, id string) (*Record, error)

	// Set stores a session record.
	Set(ctx context.Context, rec *Record) error

	// Delete removes a session record.
	Delete(ctx context.Context, id string) error

	// List returns the records that have not expired, most recently
	// updated first.
	List(ctx context.Context) ([]*Record, error)

	// Cleanup removes expired records.
	Cleanup(ctx context.Context) error
}
