package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	apperr "github.com/matzehuels/worldmap/pkg/errors"
)

// FileStore is a file-based document store. Documents are stored as JSON
// files named after their world.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based document store.
// If baseDir is empty, defaults to ~/.config/worldmap/layouts/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(dir, "worldmap", "layouts")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create layout dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) docPath(world string) string {
	return filepath.Join(s.baseDir, world+".json")
}

// Get implements [Store].
func (s *FileStore) Get(_ context.Context, world string) (*Document, error) {
	if err := apperr.ValidateWorldName(world); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.docPath(world))
}

func (s *FileStore) read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse layout file %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// Save implements [Store]. The file is replaced atomically.
func (s *FileStore) Save(_ context.Context, doc *Document) error {
	if err := prepare(doc, time.Now().UTC()); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.baseDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write layout file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write layout file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write layout file: %w", err)
	}
	return os.Rename(tmp.Name(), s.docPath(doc.World))
}

// Delete implements [Store].
func (s *FileStore) Delete(_ context.Context, world string) error {
	if err := apperr.ValidateWorldName(world); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.docPath(world))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove layout file: %w", err)
	}
	return nil
}

// List implements [Store]. Unreadable files are skipped.
func (s *FileStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read layout dir: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		doc, err := s.read(filepath.Join(s.baseDir, name))
		if err != nil {
			continue
		}
		out = append(out, Summary{
			World:     doc.World,
			ID:        doc.ID,
			Locked:    len(doc.Overrides),
			UpdatedAt: doc.UpdatedAt,
		})
	}
	slices.SortFunc(out, func(a, b Summary) int { return cmp.Compare(a.World, b.World) })
	return out, nil
}

// Close implements [Store].
func (s *FileStore) Close() error { return nil }

// Path returns the base directory for layout files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
