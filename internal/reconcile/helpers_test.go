package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository/memory"
	"github.com/Kerhoff/eventsync/pkg/logger"
)

const testAccount = "user@example.com"

var passStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newPass(store *memory.Store, now time.Time) *PassContext {
	return &PassContext{
		ID:         "test-pass",
		AccountKey: testAccount,
		Now:        now,
		Store:      store,
		Log:        logrus.NewEntry(logger.Discard()),
		BatchSize:  DefaultBatchSize,
	}
}

func newRegistry(t *testing.T, store *memory.Store, now time.Time, cats *config.Categories) *Registry {
	t.Helper()
	reg := NewRegistry(newPass(store, now), Policies(cats))
	require.NoError(t, reg.EnsureAll(context.Background()))
	return reg
}

func runPass(t *testing.T, store *memory.Store, now time.Time, cats *config.Categories, events ...models.NormalizedEvent) map[models.Category]models.SyncStats {
	t.Helper()
	ctx := context.Background()
	reg := newRegistry(t, store, now, cats)
	for _, ev := range events {
		reg.Accept(ctx, ev)
	}
	return reg.FinalizeAll(ctx)
}

func event(remoteID string, status models.Category, start time.Time) models.NormalizedEvent {
	return models.NormalizedEvent{
		RemoteID: remoteID,
		Title:    "Event " + remoteID,
		Start:    start,
		Status:   status,
	}
}

func birthday(remoteID string, start time.Time) models.NormalizedEvent {
	return models.NormalizedEvent{
		RemoteID:   remoteID,
		Title:      "Birthday " + remoteID,
		Start:      start,
		Status:     models.CategoryRecurring,
		AllDay:     true,
		Recurrence: "FREQ=YEARLY",
	}
}

func containerID(t *testing.T, store *memory.Store, c models.Category) int64 {
	t.Helper()
	container, ok := store.ContainerByName(testAccount, c.ContainerName())
	require.True(t, ok, "container for %s missing", c)
	return container.ID
}
