package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kerhoff/eventsync/internal/models"
)

// ErrNotFound is returned when a row addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

// ContainerRepository defines the operations on local calendar containers
type ContainerRepository interface {
	// FindContainer returns the container ID for (accountKey, name) and false
	// when no such container exists.
	FindContainer(ctx context.Context, accountKey, name string) (int64, bool, error)
	CreateContainer(ctx context.Context, accountKey, name string, appearance models.Appearance) (int64, error)
	UpdateContainer(ctx context.Context, containerID int64, appearance models.Appearance) error
	DeleteContainer(ctx context.Context, containerID int64) error
	// DeleteContainersByName removes every container of the account with the
	// given name and returns how many were removed.
	DeleteContainersByName(ctx context.Context, accountKey, name string) (int64, error)
}

// EventRepository defines the operations on local event records
type EventRepository interface {
	// QueryRecords maps remote ID to local ID for records in the container
	// starting before split (future == false) or at/after split (future == true).
	QueryRecords(ctx context.Context, containerID int64, split time.Time, future bool) (map[string]int64, error)
	CreateRecord(ctx context.Context, containerID int64, fields models.EventFields) (int64, error)
	// UpdateRecord rewrites every non-identity field of the record.
	UpdateRecord(ctx context.Context, localID int64, fields models.EventFields) error
	DeleteRecord(ctx context.Context, localID int64) error
}

// ReminderRepository defines the operations on reminders of a local record
type ReminderRepository interface {
	// QueryReminders maps minute offset to reminder ID. Duplicate offsets
	// resolve to the last row returned.
	QueryReminders(ctx context.Context, localID int64) (map[int]int64, error)
	CreateReminders(ctx context.Context, localID int64, offsets []int) error
	DeleteReminder(ctx context.Context, reminderID int64) error
}

// LocalStore is the complete local store the reconciliation engine writes to
type LocalStore interface {
	ContainerRepository
	EventRepository
	ReminderRepository
}

// StateRepository persists the per-account throttle and version record
type StateRepository interface {
	// Get returns the stored state, or a zero state for the account if none
	// has been saved yet.
	Get(ctx context.Context, accountKey string) (*models.SyncState, error)
	Save(ctx context.Context, state *models.SyncState) error
}

// GrantChecker reports capability grants the sync account is missing
type GrantChecker interface {
	MissingGrants(ctx context.Context) ([]string, error)
}
