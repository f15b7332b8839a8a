package config

import (
	"fmt"
	"sync"

	"github.com/Kerhoff/eventsync/internal/models"
)

// CategoryStore holds the category policy file in memory and writes every
// change back to disk. It is shared between passes and the API.
type CategoryStore struct {
	mu   sync.RWMutex
	path string
	cats *Categories
}

// NewCategoryStore loads path, creating it with defaults when missing.
func NewCategoryStore(path string) (*CategoryStore, error) {
	cats, err := LoadCategories(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return &CategoryStore{path: path, cats: cats}, nil
}

// Snapshot returns a copy of the current policy.
func (s *CategoryStore) Snapshot() *Categories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cats.Clone()
}

// Update replaces the policy of one category, persists the file and returns
// the normalized result. The in-memory policy only changes when the write
// succeeds.
func (s *CategoryStore) Update(name models.Category, cc CategoryConfig) (CategoryConfig, error) {
	if !name.Valid() {
		return CategoryConfig{}, fmt.Errorf("unknown category %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cats.Clone()
	next.Categories[name] = &cc
	if err := SaveCategories(s.path, next); err != nil {
		return CategoryConfig{}, fmt.Errorf("failed to save categories: %w", err)
	}

	s.cats = next
	return next.For(name), nil
}
