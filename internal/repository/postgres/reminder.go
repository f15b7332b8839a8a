package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository"
)

type reminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) QueryReminders(ctx context.Context, localID int64) (map[int]int64, error) {
	query := `
		SELECT id, minutes
		FROM reminders
		WHERE event_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, localID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders by event ID: %w", err)
	}
	defer rows.Close()

	reminders := make(map[int]int64)
	for rows.Next() {
		var (
			id      int64
			minutes int
		)
		if err := rows.Scan(&id, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders[minutes] = id
	}

	return reminders, rows.Err()
}

// CreateReminders inserts one alert per offset in a single statement.
func (r *reminderRepository) CreateReminders(ctx context.Context, localID int64, offsets []int) error {
	if len(offsets) == 0 {
		return nil
	}

	values := make([]string, 0, len(offsets))
	args := make([]interface{}, 0, len(offsets)*3)
	argIdx := 1
	for _, minutes := range offsets {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", argIdx, argIdx+1, argIdx+2))
		args = append(args, localID, minutes, models.ReminderMethodAlert)
		argIdx += 3
	}

	query := "INSERT INTO reminders (event_id, minutes, method) VALUES " + strings.Join(values, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create reminders: %w", err)
	}

	return nil
}

func (r *reminderRepository) DeleteReminder(ctx context.Context, reminderID int64) error {
	query := `DELETE FROM reminders WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, reminderID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	return expectAffected(result, "reminder", reminderID)
}
