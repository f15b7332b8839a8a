package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository/memory"
)

func TestRegistry_EnsureAllCreatesContainers(t *testing.T) {
	store := memory.New()
	reg := newRegistry(t, store, passStart, config.DefaultCategories())

	containers := store.Containers()
	require.Len(t, containers, len(models.Categories))
	for _, c := range models.Categories {
		p, ok := reg.Partition(c)
		require.True(t, ok)
		assert.True(t, p.Active())
		assert.Equal(t, StateAccepting, p.State())

		container, ok := store.ContainerByName(testAccount, c.ContainerName())
		require.True(t, ok)
		assert.Equal(t, p.ContainerID(), container.ID)
	}
}

func TestRegistry_EnsureAllRefreshesAppearance(t *testing.T) {
	store := memory.New()
	cid := store.SeedContainer(testAccount, models.CategoryAttending.ContainerName(), models.Appearance{DisplayName: "stale"})

	cats := config.DefaultCategories()
	cats.Categories[models.CategoryAttending].DisplayName = "Going"
	cats.Categories[models.CategoryAttending].Color = "#ff0000"
	newRegistry(t, store, passStart, cats)

	container, ok := store.ContainerByName(testAccount, models.CategoryAttending.ContainerName())
	require.True(t, ok)
	assert.Equal(t, cid, container.ID)
	assert.Equal(t, "Going", container.Appearance.DisplayName)
	assert.Equal(t, "#ff0000", container.Appearance.Color)
	assert.Equal(t, models.AvailabilityBusy, container.Appearance.Availability)
}

func TestRegistry_DisabledCategory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.SeedContainer(testAccount, models.CategoryTentative.ContainerName(), models.Appearance{})

	cats := config.DefaultCategories()
	cats.Categories[models.CategoryTentative].Enabled = false
	reg := newRegistry(t, store, passStart, cats)

	_, exists := store.ContainerByName(testAccount, models.CategoryTentative.ContainerName())
	assert.False(t, exists, "container of a disabled category must be removed")

	p, ok := reg.Route(event("1", models.CategoryTentative, passStart))
	require.True(t, ok, "routing stays total for disabled categories")
	assert.False(t, p.Active())
	assert.Equal(t, Unassigned, p.ContainerID())
	assert.False(t, reg.Enabled(models.CategoryTentative))

	store.ResetCalls()
	assert.True(t, reg.Accept(ctx, event("1", models.CategoryTentative, passStart.Add(time.Hour))))
	stats := reg.FinalizeAll(ctx)
	assert.Equal(t, models.SyncStats{}, stats[models.CategoryTentative])
	assert.Zero(t, store.Calls(memory.OpCreateRecord))
}

func TestRegistry_UnknownStatus(t *testing.T) {
	reg := newRegistry(t, memory.New(), passStart, config.DefaultCategories())

	_, ok := reg.Route(event("1", models.Category("maybe_later"), passStart))
	assert.False(t, ok)
	assert.False(t, reg.Accept(context.Background(), event("1", models.Category("maybe_later"), passStart)))
}

func TestRegistry_EnsureFailureLeavesPartitionInert(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.FailOn(memory.OpFindContainer, models.CategoryDeclined.ContainerName(), errors.New("permission denied"))

	reg := NewRegistry(newPass(store, passStart), Policies(config.DefaultCategories()))
	err := reg.EnsureAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	declined, _ := reg.Partition(models.CategoryDeclined)
	assert.False(t, declined.Active())

	reg.Accept(ctx, event("d", models.CategoryDeclined, passStart.Add(time.Hour)))
	reg.Accept(ctx, event("a", models.CategoryAttending, passStart.Add(time.Hour)))
	stats := reg.FinalizeAll(ctx)

	assert.Equal(t, models.SyncStats{}, stats[models.CategoryDeclined])
	assert.Equal(t, models.SyncStats{Added: 1}, stats[models.CategoryAttending])
}

func TestRegistry_RemoveLegacy(t *testing.T) {
	store := memory.New()
	store.SeedContainer(testAccount, "birthday", models.Appearance{})
	store.SeedContainer("someone-else", "birthday", models.Appearance{})

	reg := NewRegistry(newPass(store, passStart), Policies(config.DefaultCategories()))
	reg.RemoveLegacy(context.Background(), []string{"birthday"})

	_, mine := store.ContainerByName(testAccount, "birthday")
	assert.False(t, mine)
	_, theirs := store.ContainerByName("someone-else", "birthday")
	assert.True(t, theirs)
}

func TestRegistry_DeleteAll(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	runPass(t, store, passStart, config.DefaultCategories(),
		event("1", models.CategoryAttending, passStart.Add(time.Hour)),
	)
	require.NotEmpty(t, store.Containers())

	reg := newRegistry(t, store, passStart.Add(time.Hour), config.DefaultCategories())
	require.NoError(t, reg.DeleteAll(ctx))

	assert.Empty(t, store.Containers())
	for _, c := range models.Categories {
		p, _ := reg.Partition(c)
		assert.False(t, p.Active())
	}
}

func TestRegistry_DeleteAllReportsFailures(t *testing.T) {
	store := memory.New()
	reg := newRegistry(t, store, passStart, config.DefaultCategories())
	store.FailOn(memory.OpDeleteContainer, models.CategoryRecurring.ContainerName(), errors.New("busy"))

	err := reg.DeleteAll(context.Background())
	require.Error(t, err)

	recurring, _ := reg.Partition(models.CategoryRecurring)
	assert.NotEqual(t, Unassigned, recurring.ContainerID())
	assert.Len(t, store.Containers(), 1)
}
