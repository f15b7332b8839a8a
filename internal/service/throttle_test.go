package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/eventsync/internal/models"
)

func TestThrottle_Check(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 20, 0, 0, time.Local)
	throttle := Throttle{MinInterval: time.Minute, MaxPerHour: 5}

	tests := []struct {
		name      string
		throttle  Throttle
		state     *models.SyncState
		now       time.Time
		allowed   bool
		wantCount int
	}{
		{
			name:      "first pass",
			throttle:  throttle,
			state:     &models.SyncState{},
			now:       base,
			allowed:   true,
			wantCount: 1,
		},
		{
			name:     "too soon",
			throttle: throttle,
			state:    &models.SyncState{LastSyncAt: base, SyncsPerHour: 1},
			now:      base.Add(10 * time.Second),
		},
		{
			name:      "after min interval",
			throttle:  throttle,
			state:     &models.SyncState{LastSyncAt: base, SyncsPerHour: 1},
			now:       base.Add(90 * time.Second),
			allowed:   true,
			wantCount: 2,
		},
		{
			name:     "hourly cap reached",
			throttle: throttle,
			state:    &models.SyncState{LastSyncAt: base, SyncsPerHour: 5},
			now:      base.Add(5 * time.Minute),
		},
		{
			name:      "counter resets in a new wall-clock hour",
			throttle:  throttle,
			state:     &models.SyncState{LastSyncAt: base.Add(35 * time.Minute), SyncsPerHour: 5},
			now:       base.Add(45 * time.Minute),
			allowed:   true,
			wantCount: 1,
		},
		{
			name:      "counter resets after an hour",
			throttle:  throttle,
			state:     &models.SyncState{LastSyncAt: base, SyncsPerHour: 5},
			now:       base.Add(time.Hour),
			allowed:   true,
			wantCount: 1,
		},
		{
			name:      "bypass ignores the interval",
			throttle:  Throttle{MinInterval: time.Minute, MaxPerHour: 5, Bypass: true},
			state:     &models.SyncState{LastSyncAt: base, SyncsPerHour: 1},
			now:       base.Add(time.Second),
			allowed:   true,
			wantCount: 2,
		},
		{
			name:      "bypass ignores the hourly cap",
			throttle:  Throttle{MinInterval: time.Minute, MaxPerHour: 5, Bypass: true},
			state:     &models.SyncState{LastSyncAt: base, SyncsPerHour: 5},
			now:       base.Add(2 * time.Minute),
			allowed:   true,
			wantCount: 6,
		},
		{
			name:      "zero values use defaults",
			throttle:  Throttle{},
			state:     &models.SyncState{LastSyncAt: base, SyncsPerHour: 4},
			now:       base.Add(2 * time.Minute),
			allowed:   true,
			wantCount: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.throttle.Check(tt.state, tt.now)
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				assert.Equal(t, tt.wantCount, d.PassesThisHour)
			} else {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}
