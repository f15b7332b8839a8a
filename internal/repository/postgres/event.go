package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository"
)

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event record repository
func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) QueryRecords(ctx context.Context, containerID int64, split time.Time, future bool) (map[string]int64, error) {
	query := `
		SELECT remote_id, id
		FROM events
		WHERE calendar_id = $1 AND start_time < $2`
	if future {
		query = `
		SELECT remote_id, id
		FROM events
		WHERE calendar_id = $1 AND start_time >= $2`
	}

	rows, err := r.db.QueryContext(ctx, query, containerID, split)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	localIDs := make(map[string]int64)
	for rows.Next() {
		var (
			remoteID string
			localID  int64
		)
		if err := rows.Scan(&remoteID, &localID); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		localIDs[remoteID] = localID
	}

	return localIDs, rows.Err()
}

func (r *eventRepository) CreateRecord(ctx context.Context, containerID int64, fields models.EventFields) (int64, error) {
	query := `
		INSERT INTO events (calendar_id, remote_id, title, description, location, organizer, start_time, end_time, all_day, recurrence, availability, link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	now := time.Now()

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		containerID,
		fields.RemoteID,
		fields.Title,
		fields.Description,
		fields.Location,
		fields.Organizer,
		fields.Start,
		fields.End,
		fields.AllDay,
		fields.Recurrence,
		fields.Availability,
		fields.Link,
		now,
		now,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to create event %q: %w", fields.RemoteID, err)
	}

	return id, nil
}

func (r *eventRepository) UpdateRecord(ctx context.Context, localID int64, fields models.EventFields) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, location = $4, organizer = $5, start_time = $6, end_time = $7,
			all_day = $8, recurrence = $9, availability = $10, link = $11, updated_at = $12
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		localID,
		fields.Title,
		fields.Description,
		fields.Location,
		fields.Organizer,
		fields.Start,
		fields.End,
		fields.AllDay,
		fields.Recurrence,
		fields.Availability,
		fields.Link,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return expectAffected(result, "event", localID)
}

func (r *eventRepository) DeleteRecord(ctx context.Context, localID int64) error {
	query := `DELETE FROM events WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, localID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return expectAffected(result, "event", localID)
}
