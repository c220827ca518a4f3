package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/aretw0/flowcharts/pkg/ports"
	"github.com/google/uuid"
)

// DefaultDir is used when New is given an empty directory.
var DefaultDir = filepath.Join(".flowcharts", "store")

const ext = ".json"

// Store implements ports.FlowchartStore using the local filesystem.
// It stores each flowchart as a JSON file named after its ID.
// A single process owns the directory; writers in other processes are not coordinated.
type Store struct {
	BasePath string

	mu sync.RWMutex
}

var _ ports.FlowchartStore = (*Store)(nil)

// New creates a new Store with the given base path.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

// Create validates fc and writes it under a fresh ID.
func (s *Store) Create(ctx context.Context, fc *domain.Flowchart) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := fc.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		id := uuid.NewString()
		if _, err := os.Stat(s.path(id)); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to check flowchart file: %w", err)
		}

		stored := fc.Clone()
		stored.ID = id
		stored.Normalize()
		if err := s.write(stored); err != nil {
			return "", err
		}
		return id, nil
	}
}

// Get reads the flowchart stored under id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Flowchart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, domain.ErrFlowchartNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

// Update replaces the flowchart stored under id once fc has been validated.
func (s *Store) Update(ctx context.Context, id string, fc *domain.Flowchart) (*domain.Flowchart, error) {
	if fc == nil {
		return nil, domain.ErrNilFlowchart
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, domain.ErrFlowchartNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFlowchartNotFound
		}
		return nil, fmt.Errorf("failed to check flowchart file: %w", err)
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}

	stored := fc.Clone()
	stored.ID = id
	stored.Normalize()
	if err := s.write(stored); err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// Delete removes the flowchart file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validID(id) {
		return domain.ErrFlowchartNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrFlowchartNotFound
		}
		return fmt.Errorf("failed to delete flowchart file: %w", err)
	}
	return nil
}

// List returns the IDs of all stored flowcharts, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list flowcharts: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+ext)
}

func (s *Store) read(id string) (*domain.Flowchart, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFlowchartNotFound
		}
		return nil, fmt.Errorf("failed to read flowchart file: %w", err)
	}

	var fc domain.Flowchart
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flowchart %s: %w", id, err)
	}
	fc.ID = id
	fc.Normalize()
	return &fc, nil
}

// write persists fc atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) write(fc *domain.Flowchart) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure store directory: %w", err)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flowchart: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+fc.ID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(fc.ID)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// validID rejects IDs that would escape the store directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
