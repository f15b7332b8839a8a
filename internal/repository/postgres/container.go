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

type containerRepository struct {
	db *sql.DB
}

// NewContainerRepository creates a new container repository
func NewContainerRepository(db *sql.DB) repository.ContainerRepository {
	return &containerRepository{db: db}
}

func (r *containerRepository) FindContainer(ctx context.Context, accountKey, name string) (int64, bool, error) {
	query := `
		SELECT id
		FROM calendars
		WHERE account_key = $1 AND name = $2
		ORDER BY id ASC
		LIMIT 1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, accountKey, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to find calendar %q: %w", name, err)
	}

	return id, true, nil
}

func (r *containerRepository) CreateContainer(ctx context.Context, accountKey, name string, appearance models.Appearance) (int64, error) {
	query := `
		INSERT INTO calendars (account_key, name, display_name, color, availability, max_reminders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	now := time.Now()

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		accountKey,
		name,
		appearance.DisplayName,
		appearance.Color,
		appearance.Availability,
		appearance.MaxReminders,
		now,
		now,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to create calendar %q: %w", name, err)
	}

	return id, nil
}

func (r *containerRepository) UpdateContainer(ctx context.Context, containerID int64, appearance models.Appearance) error {
	query := `
		UPDATE calendars
		SET display_name = $2, color = $3, availability = $4, max_reminders = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		containerID,
		appearance.DisplayName,
		appearance.Color,
		appearance.Availability,
		appearance.MaxReminders,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update calendar: %w", err)
	}

	return expectAffected(result, "calendar", containerID)
}

// DeleteContainer removes the calendar; events and their reminders go with it
// through ON DELETE CASCADE.
func (r *containerRepository) DeleteContainer(ctx context.Context, containerID int64) error {
	query := `DELETE FROM calendars WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, containerID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}

	return expectAffected(result, "calendar", containerID)
}

func (r *containerRepository) DeleteContainersByName(ctx context.Context, accountKey, name string) (int64, error) {
	query := `DELETE FROM calendars WHERE account_key = $1 AND name = $2`

	result, err := r.db.ExecContext(ctx, query, accountKey, name)
	if err != nil {
		return 0, fmt.Errorf("failed to delete calendars named %q: %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// expectAffected turns a zero-row update or delete into repository.ErrNotFound.
func expectAffected(result sql.Result, kind string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s with ID %d: %w", kind, id, repository.ErrNotFound)
	}

	return nil
}
