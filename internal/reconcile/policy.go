package reconcile

import (
	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
)

// FinalizeStrategy selects which leftover records Finalize deletes.
type FinalizeStrategy int

const (
	// FinalizeFutureOrphans deletes future records not seen in the pass and
	// keeps every past record.
	FinalizeFutureOrphans FinalizeStrategy = iota
	// FinalizeUntouched deletes every known record not seen in the pass.
	FinalizeUntouched
)

func (s FinalizeStrategy) String() string {
	switch s {
	case FinalizeFutureOrphans:
		return "future-orphans"
	case FinalizeUntouched:
		return "untouched"
	default:
		return "unknown"
	}
}

// reminderSlack is the number of extra reminders a user may add by hand.
const reminderSlack = 2

type categoryTraits struct {
	availability models.Availability
	finalize     FinalizeStrategy
}

var traits = map[models.Category]categoryTraits{
	models.CategoryAttending:  {models.AvailabilityBusy, FinalizeFutureOrphans},
	models.CategoryTentative:  {models.AvailabilityTentative, FinalizeFutureOrphans},
	models.CategoryDeclined:   {models.AvailabilityFree, FinalizeFutureOrphans},
	models.CategoryNoResponse: {models.AvailabilityFree, FinalizeFutureOrphans},
	models.CategoryRecurring:  {models.AvailabilityFree, FinalizeUntouched},
}

// Policy is the fixed behaviour of one category combined with its
// configured settings.
type Policy struct {
	Category        models.Category
	Enabled         bool
	Appearance      models.Appearance
	Reminders       []int
	AllDayReminders []int
	Finalize        FinalizeStrategy
}

// ReminderOffsets returns the target reminder set for a record.
func (p Policy) ReminderOffsets(allDay bool) []int {
	if allDay {
		return p.AllDayReminders
	}
	return p.Reminders
}

// PolicyFor builds the policy of category c from its configuration.
func PolicyFor(c models.Category, cc config.CategoryConfig) Policy {
	t, ok := traits[c]
	if !ok {
		t = categoryTraits{models.AvailabilityBusy, FinalizeFutureOrphans}
	}

	maxReminders := len(cc.Reminders)
	if len(cc.AllDayReminders) > maxReminders {
		maxReminders = len(cc.AllDayReminders)
	}

	return Policy{
		Category: c,
		Enabled:  cc.Enabled,
		Appearance: models.Appearance{
			DisplayName:  cc.DisplayName,
			Color:        cc.Color,
			Availability: t.availability,
			MaxReminders: maxReminders + reminderSlack,
		},
		Reminders:       append([]int(nil), cc.Reminders...),
		AllDayReminders: append([]int(nil), cc.AllDayReminders...),
		Finalize:        t.finalize,
	}
}

// Policies returns the policy of every known category in routing order.
func Policies(cats *config.Categories) []Policy {
	policies := make([]Policy, 0, len(models.Categories))
	for _, c := range models.Categories {
		policies = append(policies, PolicyFor(c, cats.For(c)))
	}
	return policies
}
