package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
	pferrors "github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "library"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	saved, err := s.Save(ctx, scene.FromFrame(frame.Demo(), "demo"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" || !saved.Created.Equal(clock) {
		t.Fatalf("saved = %+v", saved)
	}

	got, err := s.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "demo" || len(got.Shapes) != 3 {
		t.Errorf("Get = %+v", got)
	}

	clock = clock.Add(time.Hour)
	got.Name = "demo renamed"
	updated, err := s.Save(ctx, got)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Created.Equal(saved.Created) || !updated.Updated.Equal(clock) {
		t.Errorf("update timestamps = %v / %v", updated.Created, updated.Updated)
	}

	clock = clock.Add(time.Hour)
	other, err := s.Save(ctx, scene.FromFrame(frame.New(), "empty"))
	if err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("List = %d summaries, want 2", len(list))
	}
	if list[0].ID != other.ID || list[1].Name != "demo renamed" || list[1].Shapes != 3 {
		t.Errorf("List = %+v", list)
	}

	if err := s.Delete(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get deleted error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete twice error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreSaveValidation(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	tests := []struct {
		name string
		doc  scene.Document
		code pferrors.Code
	}{
		{"empty name", scene.Document{}, pferrors.ErrCodeInvalidName},
		{"path id", scene.Document{ID: "../x", Name: "x"}, pferrors.ErrCodeInvalidInput},
		{"bad shape", scene.Document{Name: "x", Pivots: []scene.Pivot{{}}, Shapes: []scene.Shape{{Kind: "circle", P1: 0, P2: 5}}}, pferrors.ErrCodeInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Save(ctx, tt.doc); !pferrors.Is(err, tt.code) {
				t.Errorf("Save error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestFileStoreIgnoresStrayFiles(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("List = %+v, want empty", list)
	}
	if _, err := s.Get(ctx, "broken"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(non-uuid) error = %v, want ErrNotFound", err)
	}
}

func TestMongoQueries(t *testing.T) {
	if got := idFilter("abc"); got["_id"] != "abc" {
		t.Errorf("idFilter = %v", got)
	}
	sort, ok := listOptions().Sort.(bson.D)
	if !ok || len(sort) != 2 || sort[0].Key != "updated" || sort[0].Value != -1 {
		t.Errorf("listOptions sort = %v", listOptions().Sort)
	}

	// Listing must not fetch geometry: every projected field is either a
	// summary field or a server-side count.
	proj, ok := listOptions().Projection.(bson.M)
	if !ok {
		t.Fatalf("listOptions projection = %T", listOptions().Projection)
	}
	for _, key := range []string{"_id", "name", "created", "updated"} {
		if proj[key] != 1 {
			t.Errorf("projection[%q] = %v, want 1", key, proj[key])
		}
	}
	for _, key := range []string{"pivots", "shapes"} {
		expr, ok := proj[key].(bson.M)
		if !ok || expr["$size"] == nil {
			t.Errorf("projection[%q] = %v, want a $size count", key, proj[key])
		}
	}
	if len(proj) != 6 {
		t.Errorf("projection has %d fields, want 6", len(proj))
	}
}

func TestMongoSummaryRowDecodes(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"_id":     "abc",
		"name":    "demo",
		"pivots":  6,
		"shapes":  3,
		"created": created,
		"updated": created.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	var row summaryRow
	if err := bson.Unmarshal(raw, &row); err != nil {
		t.Fatal(err)
	}
	got := Summary(row)
	if got.ID != "abc" || got.Name != "demo" || got.Pivots != 6 || got.Shapes != 3 {
		t.Errorf("Summary(row) = %+v", got)
	}
	if !got.Created.Equal(created) || !got.Updated.Equal(created.Add(time.Hour)) {
		t.Errorf("times = %v, %v", got.Created, got.Updated)
	}
}
