package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

const sessionExt = ".session.toml"

// FileStore keeps one TOML file per session in a directory. Files are
// replaced through a rename, so a crash mid-save leaves the previous
// version in place.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore opens dir as a session store, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("session store needs a directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// file maps an ID to its path. Only UUIDs are accepted, so an ID never
// escapes the directory.
func (s *FileStore) file(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid session id %q", ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+sessionExt), nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	path, err := s.file(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if rec.IsExpired() {
		return nil, ErrExpired
	}
	return rec, nil
}

func (s *FileStore) Set(ctx context.Context, rec *Record) error {
	path, err := s.file(rec.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := toml.NewEncoder(tmp).Encode(rec); err != nil {
		tmp.Close()
		return fmt.Errorf("encode session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	path, err := s.file(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// List returns live sessions, most recently updated first. Files that do
// not decode are skipped.
func (s *FileStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := s.paths()
	if err != nil {
		return nil, err
	}
	var out []*Record
	for _, path := range paths {
		if rec, err := load(path); err == nil && !rec.IsExpired() {
			out = append(out, rec)
		}
	}
	sortByUpdated(out)
	return out, nil
}

// Cleanup deletes expired sessions.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := s.paths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec, err := load(path); err == nil && rec.IsExpired() {
			_ = os.Remove(path)
		}
	}
	return nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) paths() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), sessionExt) {
			paths = append(paths, filepath.Join(s.dir, e.Name()))
		}
	}
	return paths, nil
}

func load(path string) (*Record, error) {
	var rec Record
	md, err := toml.DecodeFile(path, &rec)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("decode session %s: %w", filepath.Base(path), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode session %s: unknown key %q", filepath.Base(path), undecoded[0].String())
	}
	return &rec, nil
}

var _ Store = (*FileStore)(nil)
