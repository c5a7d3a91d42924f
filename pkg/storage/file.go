package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pivotframe/pkg/scene"
)

// FileStore keeps each document as <dir>/<id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

// NewFileStore creates a file store in dir, creating the directory.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Dir returns the library directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Save(ctx context.Context, doc scene.Document) (scene.Document, error) {
	doc, err := prepare(doc, s.now())
	if err != nil {
		return scene.Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.read(doc.ID); err == nil {
		doc.Created = existing.Created
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return scene.Document{}, fmt.Errorf("marshal document: %w", err)
	}
	tmp := s.path(doc.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return scene.Document{}, fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, s.path(doc.ID)); err != nil {
		return scene.Document{}, fmt.Errorf("write document: %w", err)
	}
	return doc, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (scene.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return scene.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read library dir: %w", err)
	}
	out := []Summary{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		doc, err := s.read(id)
		if err != nil {
			continue
		}
		out = append(out, Summarize(doc))
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// Close does nothing for file stores.
func (s *FileStore) Close(ctx context.Context) error { return nil }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) read(id string) (scene.Document, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return scene.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return scene.Document{}, fmt.Errorf("read document: %w", err)
	}
	var doc scene.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return scene.Document{}, fmt.Errorf("parse document %s: %w", id, err)
	}
	return doc, nil
}

var _ Store = (*FileStore)(nil)
