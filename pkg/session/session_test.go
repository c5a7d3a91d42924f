package session

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPressDragRelease(t *testing.T) {
	s := New(frame.Demo())

	c, ok := s.Press(11, 12)
	if !ok || c.ID != 0 {
		t.Fatalf("Press = %+v, %v; want pivot 0", c, ok)
	}
	if id, ok := s.Dragging(); !ok || id != 0 {
		t.Fatalf("Dragging = %d, %v", id, ok)
	}

	// Pointer offset, not pointer position, moves the pivot.
	if _, err := s.Drag(21, 12, ModeAnchor); err != nil {
		t.Fatal(err)
	}
	if p := s.Frame.Position(0); !near(p.X, 20) || !near(p.Y, 10) {
		t.Errorf("pivot 0 at %v, want (20, 10)", p)
	}

	if !s.Release() {
		t.Error("Release should report a held pivot")
	}
	if s.Release() {
		t.Error("second Release should report nothing held")
	}
	if _, err := s.Drag(0, 0, ModeSimulate); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Drag after Release error = %v, want ErrNotDragging", err)
	}
}

func TestDragAnchorResetsRestLengths(t *testing.T) {
	s := New(frame.Demo())
	s.Press(10, 10)
	if _, err := s.Drag(0, 10, ModeAnchor); err != nil {
		t.Fatal(err)
	}
	// Circle 0 spans (0,10)-(20,20) now and keeps that as its rest state.
	sh, _ := s.Frame.Shape(0)
	if want := math.Hypot(20, 10); !near(sh.RestLength, want) {
		t.Errorf("rest length = %v, want %v", sh.RestLength, want)
	}
	if p := s.Frame.Position(1); !near(p.X, 20) || !near(p.Y, 20) {
		t.Errorf("anchor drag moved the other pivot to %v", p)
	}
}

func TestDragSimulatePullsNeighbour(t *testing.T) {
	s := New(frame.Demo())
	s.TicksPerDrag = 50
	rest := math.Hypot(10, 10)

	s.Press(10, 10)
	stats, err := s.Drag(-20, 10, ModeSimulate)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Ticks != 50 {
		t.Errorf("ticks = %d, want 50", stats.Ticks)
	}
	d := s.Frame.Position(0).Sub(s.Frame.Position(1)).Norm()
	if math.Abs(d-rest) > 1e-3 {
		t.Errorf("circle span = %v, want rest %v", d, rest)
	}
	if p := s.Frame.Position(1); near(p.X, 20) && near(p.Y, 20) {
		t.Error("simulate drag should pull pivot 1")
	}
}

func TestHover(t *testing.T) {
	s := New(frame.Demo())
	c, ok := s.Hover(119, 121)
	if !ok || c.ID != 3 {
		t.Fatalf("Hover = %+v, %v; want pivot 3", c, ok)
	}

	s.Press(50, 49)
	if c, _ := s.Hover(0, 0); c.ID != 4 {
		t.Errorf("Hover while dragging moved highlight to %d, want 4", c.ID)
	}
	s.Release()
	if c, _ := s.Hover(0, 0); c.ID != 0 {
		t.Errorf("Hover after release = %d, want 0", c.ID)
	}
}

func TestPressEmptyFrame(t *testing.T) {
	s := New(frame.New())
	if _, ok := s.Press(0, 0); ok {
		t.Error("Press on empty frame should fail")
	}
	if _, ok := s.Dragging(); ok {
		t.Error("nothing should be held")
	}
}

func TestRecordRestore(t *testing.T) {
	s := New(frame.Demo())
	s.Name = "demo"
	s.TicksPerDrag = 4
	_ = s.Frame.SetRigid(2, true)

	got, err := Restore(s.Record())
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != s.ID || got.Name != "demo" || got.TicksPerDrag != 4 {
		t.Errorf("restored = %+v", got)
	}
	if p, _ := got.Frame.Pivot(2); !p.Rigid {
		t.Error("rigid flag lost")
	}
	if got.Frame.ShapeCount() != 3 {
		t.Errorf("shapes = %d, want 3", got.Frame.ShapeCount())
	}
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	a := New(frame.Demo())
	b := New(frame.New())
	b.UpdatedAt = a.UpdatedAt.Add(time.Minute)

	for _, s := range []*Session{a, b} {
		if err := store.Set(ctx, s.Record()); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	rec, err := store.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.ID != a.ID || len(rec.Scene.Shapes) != 3 {
		t.Errorf("Get = %+v", rec)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != b.ID {
		t.Errorf("List order wrong: %d records", len(list))
	}

	expired := a.Record()
	expired.ID = New(frame.New()).ID
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	if err := store.Set(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, expired.ID); !errors.Is(err, ErrExpired) {
		t.Errorf("Get expired error = %v, want ErrExpired", err)
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, expired.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Cleanup error = %v, want ErrNotFound", err)
	}

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get deleted error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, store)
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(context.Background(), "../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get with path id error = %v, want ErrNotFound", err)
	}
	if err := store.Set(context.Background(), &Record{ID: "x/y"}); err == nil {
		t.Error("Set with path id should fail")
	}
}

func TestFileStoreSkipsUnreadableFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	good := New(frame.Demo())
	if err := store.Set(ctx, good.Record()); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, New(frame.New()).ID+sessionExt)
	if err := os.WriteFile(bad, []byte("id = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != good.ID {
		t.Errorf("List = %d records, want only %s", len(list), good.ID)
	}
	if _, err := NewFileStore(""); err == nil {
		t.Error("NewFileStore with no directory should fail")
	}
}

func TestModeString(t *testing.T) {
	if ModeSimulate.String() != "simulate" || ModeAnchor.String() != "anchor" {
		t.Error("unexpected mode names")
	}
}
