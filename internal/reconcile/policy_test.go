package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
)

func TestPolicies(t *testing.T) {
	cats := config.DefaultCategories()
	cats.Categories[models.CategoryAttending].Reminders = []int{15, 60}
	cats.Categories[models.CategoryDeclined].Enabled = false

	policies := Policies(cats)
	require.Len(t, policies, len(models.Categories))

	byCategory := make(map[models.Category]Policy)
	for _, p := range policies {
		byCategory[p.Category] = p
	}

	attending := byCategory[models.CategoryAttending]
	assert.True(t, attending.Enabled)
	assert.Equal(t, models.AvailabilityBusy, attending.Appearance.Availability)
	assert.Equal(t, FinalizeFutureOrphans, attending.Finalize)
	assert.Equal(t, 4, attending.Appearance.MaxReminders)
	assert.Equal(t, []int{15, 60}, attending.ReminderOffsets(false))
	assert.Equal(t, []int{720}, attending.ReminderOffsets(true))

	assert.Equal(t, models.AvailabilityTentative, byCategory[models.CategoryTentative].Appearance.Availability)
	assert.False(t, byCategory[models.CategoryDeclined].Enabled)
	assert.Equal(t, models.AvailabilityFree, byCategory[models.CategoryNoResponse].Appearance.Availability)

	recurring := byCategory[models.CategoryRecurring]
	assert.Equal(t, FinalizeUntouched, recurring.Finalize)
	assert.Equal(t, models.AvailabilityFree, recurring.Appearance.Availability)
	assert.Equal(t, 3, recurring.Appearance.MaxReminders)
}

func TestPolicyFor_CopiesOffsets(t *testing.T) {
	cc := config.CategoryConfig{Enabled: true, Reminders: []int{30}}
	p := PolicyFor(models.CategoryAttending, cc)
	cc.Reminders[0] = 99
	assert.Equal(t, []int{30}, p.Reminders)
}
