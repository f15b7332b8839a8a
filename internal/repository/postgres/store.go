package postgres

import (
	"database/sql"

	"github.com/Kerhoff/eventsync/internal/repository"
)

// Store bundles the container, event and reminder repositories into the
// local store used by a sync pass.
type Store struct {
	repository.ContainerRepository
	repository.EventRepository
	repository.ReminderRepository
}

// NewStore creates the postgres-backed local store
func NewStore(db *sql.DB) *Store {
	return &Store{
		ContainerRepository: NewContainerRepository(db),
		EventRepository:     NewEventRepository(db),
		ReminderRepository:  NewReminderRepository(db),
	}
}

var _ repository.LocalStore = (*Store)(nil)
