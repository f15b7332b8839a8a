package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/Kerhoff/eventsync/internal/repository"
)

// ReminderDiff is the change set that converges a record's reminders.
type ReminderDiff struct {
	// Add holds offsets to create, ascending.
	Add []int
	// Remove maps offsets to delete to their reminder IDs.
	Remove map[int]int64
}

// Empty reports whether no change is needed.
func (d ReminderDiff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// DiffReminders compares the current offset → reminder ID map with the
// target offsets.
func DiffReminders(current map[int]int64, target []int) ReminderDiff {
	want := make(map[int]struct{}, len(target))
	diff := ReminderDiff{Remove: make(map[int]int64)}

	for _, minutes := range target {
		if _, dup := want[minutes]; dup {
			continue
		}
		want[minutes] = struct{}{}
		if _, ok := current[minutes]; !ok {
			diff.Add = append(diff.Add, minutes)
		}
	}
	for minutes, id := range current {
		if _, ok := want[minutes]; !ok {
			diff.Remove[minutes] = id
		}
	}
	sort.Ints(diff.Add)

	return diff
}

// SyncReminders makes the reminder offsets of localID equal to target.
// Missing offsets are created in one batched write; surplus reminders are
// deleted one by one, and every delete is attempted even if some fail.
func SyncReminders(ctx context.Context, store repository.ReminderRepository, localID int64, target []int) (ReminderDiff, error) {
	current, err := store.QueryReminders(ctx, localID)
	if err != nil {
		return ReminderDiff{}, fmt.Errorf("failed to load reminders of record %d: %w", localID, err)
	}

	diff := DiffReminders(current, target)

	var result *multierror.Error
	if len(diff.Add) > 0 {
		if err := store.CreateReminders(ctx, localID, diff.Add); err != nil {
			result = multierror.Append(result, err)
		}
	}

	offsets := make([]int, 0, len(diff.Remove))
	for minutes := range diff.Remove {
		offsets = append(offsets, minutes)
	}
	sort.Ints(offsets)
	for _, minutes := range offsets {
		if err := store.DeleteReminder(ctx, diff.Remove[minutes]); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to remove %d minute reminder: %w", minutes, err))
		}
	}

	return diff, result.ErrorOrNil()
}
