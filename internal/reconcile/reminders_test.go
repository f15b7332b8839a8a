package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository/memory"
)

func TestDiffReminders(t *testing.T) {
	tests := []struct {
		name       string
		current    map[int]int64
		target     []int
		wantAdd    []int
		wantRemove map[int]int64
	}{
		{
			name:       "empty to target",
			current:    map[int]int64{},
			target:     []int{60, 15},
			wantAdd:    []int{15, 60},
			wantRemove: map[int]int64{},
		},
		{
			name:       "already converged",
			current:    map[int]int64{15: 1, 60: 2},
			target:     []int{60, 15},
			wantRemove: map[int]int64{},
		},
		{
			name:       "partial overlap",
			current:    map[int]int64{10: 1, 30: 2},
			target:     []int{30, 60},
			wantAdd:    []int{60},
			wantRemove: map[int]int64{10: 1},
		},
		{
			name:       "clear all",
			current:    map[int]int64{5: 7},
			target:     nil,
			wantRemove: map[int]int64{5: 7},
		},
		{
			name:       "duplicate target offsets",
			current:    map[int]int64{},
			target:     []int{30, 30},
			wantAdd:    []int{30},
			wantRemove: map[int]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := DiffReminders(tt.current, tt.target)
			assert.Equal(t, tt.wantAdd, diff.Add)
			assert.Equal(t, tt.wantRemove, diff.Remove)
		})
	}
}

func TestSyncReminders_Converges(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cid := store.SeedContainer(testAccount, "c", models.Appearance{})
	localID := store.SeedRecord(cid, models.EventFields{RemoteID: "1", Start: passStart})
	store.SeedReminder(localID, 10)
	store.SeedReminder(localID, 30)

	diff, err := SyncReminders(ctx, store, localID, []int{30, 60})
	require.NoError(t, err)
	assert.Equal(t, []int{60}, diff.Add)
	assert.Len(t, diff.Remove, 1)
	assert.Equal(t, []int{30, 60}, store.ReminderOffsets(localID))

	// Missing offsets go out as one batched create.
	assert.Equal(t, 1, store.Calls(memory.OpCreateReminders))
	assert.Equal(t, 1, store.Calls(memory.OpDeleteReminder))

	store.ResetCalls()
	diff, err = SyncReminders(ctx, store, localID, []int{30, 60})
	require.NoError(t, err)
	assert.True(t, diff.Empty())
	assert.Equal(t, 0, store.Calls(memory.OpCreateReminders))
	assert.Equal(t, 0, store.Calls(memory.OpDeleteReminder))
}

func TestSyncReminders_AttemptsEveryDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cid := store.SeedContainer(testAccount, "c", models.Appearance{})
	localID := store.SeedRecord(cid, models.EventFields{RemoteID: "1", Start: passStart})
	store.SeedReminder(localID, 5)
	store.SeedReminder(localID, 10)

	store.FailOn(memory.OpDeleteReminder, "1", errors.New("locked"))

	_, err := SyncReminders(ctx, store, localID, nil)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Equal(t, 2, store.Calls(memory.OpDeleteReminder))
}

func TestSyncReminders_QueryFailure(t *testing.T) {
	store := memory.New()
	store.FailOn(memory.OpQueryReminders, "", errors.New("down"))

	_, err := SyncReminders(context.Background(), store, 99, []int{15})
	require.Error(t, err)
	assert.Equal(t, 0, store.Calls(memory.OpCreateReminders))
}
