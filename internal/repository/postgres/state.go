package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository"
)

type stateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new sync state repository
func NewStateRepository(db *sql.DB) repository.StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) Get(ctx context.Context, accountKey string) (*models.SyncState, error) {
	query := `
		SELECT account_key, last_sync_at, syncs_per_hour, last_version, updated_at
		FROM sync_state
		WHERE account_key = $1`

	state := &models.SyncState{}
	var lastSync sql.NullTime
	err := r.db.QueryRowContext(ctx, query, accountKey).Scan(
		&state.AccountKey,
		&lastSync,
		&state.SyncsPerHour,
		&state.LastVersion,
		&state.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.SyncState{AccountKey: accountKey}, nil
		}
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	if lastSync.Valid {
		state.LastSyncAt = lastSync.Time
	}

	return state, nil
}

func (r *stateRepository) Save(ctx context.Context, state *models.SyncState) error {
	query := `
		INSERT INTO sync_state (account_key, last_sync_at, syncs_per_hour, last_version, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_key) DO UPDATE
		SET last_sync_at = EXCLUDED.last_sync_at,
			syncs_per_hour = EXCLUDED.syncs_per_hour,
			last_version = EXCLUDED.last_version,
			updated_at = EXCLUDED.updated_at`

	state.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		state.AccountKey,
		state.LastSyncAt,
		state.SyncsPerHour,
		state.LastVersion,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}

	return nil
}
