package service

import (
	"fmt"
	"time"

	"github.com/Kerhoff/eventsync/internal/models"
)

// Defaults for Throttle.
const (
	DefaultMinPassInterval  = time.Minute
	DefaultMaxPassesPerHour = 5
)

// Throttle is the advisory rate limit on passes. Skipping is always safe
// since a pass is idempotent.
type Throttle struct {
	MinInterval time.Duration
	MaxPerHour  int
	// Bypass disables both limits; the hourly counter is still tracked.
	Bypass bool
}

// Decision is the outcome of a throttle check.
type Decision struct {
	Allowed bool
	Reason  string
	// PassesThisHour is the counter to persist if the pass runs.
	PassesThisHour int
}

// Check decides whether a pass may start at now given the persisted state.
// The hourly counter restarts when the last pass is an hour or more ago or
// fell in a different wall-clock hour.
func (t Throttle) Check(state *models.SyncState, now time.Time) Decision {
	minInterval := t.MinInterval
	if minInterval <= 0 {
		minInterval = DefaultMinPassInterval
	}
	maxPerHour := t.MaxPerHour
	if maxPerHour <= 0 {
		maxPerHour = DefaultMaxPassesPerHour
	}

	count := 1
	if state != nil && !state.LastSyncAt.IsZero() {
		since := now.Sub(state.LastSyncAt)

		if !t.Bypass && since >= 0 && since < minInterval {
			return Decision{
				Reason: fmt.Sprintf("last pass was only %s ago", since.Truncate(time.Second)),
			}
		}

		if since >= 0 && since < time.Hour && sameHour(now, state.LastSyncAt) {
			count = state.SyncsPerHour + 1
		}
	}

	if !t.Bypass && count > maxPerHour {
		return Decision{
			Reason: fmt.Sprintf("already %d passes this hour", count-1),
		}
	}

	return Decision{Allowed: true, PassesThisHour: count}
}

func sameHour(a, b time.Time) bool {
	a, b = a.Local(), b.Local()
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour()
}
