// Package scenarios saves named yard scenarios as JSON files so they can be
// re-evaluated later.
package scenarios

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kartoza/precast-yard/internal/precast"
)

// ErrNotFound is returned when no saved scenario has the requested ID
var ErrNotFound = errors.New("saved scenario not found")

// timeFormat keeps a fixed width so timestamps sort as strings
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Saved is a named scenario with optional inverse-query targets
type Saved struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
	Scenario    precast.Scenario `json:"scenario"`
	Budget      *float64         `json:"budget,omitempty"`
	Days        *float64         `json:"days,omitempty"`
}

// Validate checks the title, the scenario ranges and any targets
func (s *Saved) Validate() error {
	var fields []string
	if strings.TrimSpace(s.Title) == "" {
		fields = append(fields, "title is required")
	}
	var ve *precast.ValidationError
	if err := s.Scenario.Validate(); errors.As(err, &ve) {
		fields = append(fields, ve.Fields...)
	}
	if s.Budget != nil && !precast.IsPositiveFinite(*s.Budget) {
		fields = append(fields, fmt.Sprintf("budget must be a finite positive number, got %g", *s.Budget))
	}
	if s.Days != nil && !precast.IsPositiveFinite(*s.Days) {
		fields = append(fields, fmt.Sprintf("days must be a finite positive number, got %g", *s.Days))
	}
	if len(fields) > 0 {
		return &precast.ValidationError{Fields: fields}
	}
	return nil
}

// Store handles saved scenario persistence
type Store struct {
	dir string
}

// NewStore creates a new store under dataDir/scenarios
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "scenarios")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scenarios directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// List returns all saved scenarios sorted by creation date (newest first)
func (s *Store) List() ([]*Saved, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	list := make([]*Saved, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		saved, err := s.load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue // Skip unreadable files
		}
		list = append(list, saved)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt > list[j].CreatedAt
	})
	return list, nil
}

// Get retrieves a saved scenario by ID
func (s *Store) Get(id string) (*Saved, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return s.load(path)
}

// Create assigns an ID and timestamps and writes the scenario
func (s *Store) Create(saved *Saved) (*Saved, error) {
	if err := saved.Validate(); err != nil {
		return nil, err
	}

	saved.ID = uuid.New().String()
	now := time.Now().UTC().Format(timeFormat)
	saved.CreatedAt = now
	saved.UpdatedAt = now

	if err := s.save(saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Update replaces the editable fields of an existing scenario.
// An empty title or description keeps the stored one.
func (s *Store) Update(id string, updates *Saved) (*Saved, error) {
	saved, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if updates.Title != "" {
		saved.Title = updates.Title
	}
	if updates.Description != "" {
		saved.Description = updates.Description
	}
	saved.Scenario = updates.Scenario
	saved.Budget = updates.Budget
	saved.Days = updates.Days
	if err := saved.Validate(); err != nil {
		return nil, err
	}

	saved.UpdatedAt = time.Now().UTC().Format(timeFormat)
	if err := s.save(saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes a saved scenario
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	return nil
}

// path maps an ID to its file. Only UUIDs are accepted so an ID can
// never point outside the store.
func (s *Store) path(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return filepath.Join(s.dir, parsed.String()+".json"), nil
}

func (s *Store) load(path string) (*Saved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var saved Saved
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return &saved, nil
}

func (s *Store) save(saved *Saved) error {
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	path := filepath.Join(s.dir, saved.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}
	return nil
}
