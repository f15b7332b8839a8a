package memory

import (
	"context"
	"sync"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository"
)

// StateStore is an in-memory repository.StateRepository.
type StateStore struct {
	mu     sync.Mutex
	states map[string]models.SyncState
	// Err, when set, is returned by every call.
	Err error
	// GetErr, when set, is returned by Get only.
	GetErr error
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]models.SyncState)}
}

var _ repository.StateRepository = (*StateStore)(nil)

func (s *StateStore) Get(_ context.Context, accountKey string) (*models.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	st, ok := s.states[accountKey]
	if !ok {
		return &models.SyncState{AccountKey: accountKey}, nil
	}
	return &st, nil
}

func (s *StateStore) Save(_ context.Context, state *models.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.states[state.AccountKey] = *state
	return nil
}

// Grants is a repository.GrantChecker with a fixed answer.
type Grants struct {
	Missing []string
	Err     error
}

var _ repository.GrantChecker = (*Grants)(nil)

func (g *Grants) MissingGrants(context.Context) ([]string, error) {
	return g.Missing, g.Err
}
