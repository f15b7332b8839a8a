package service

import (
	"time"

	"github.com/Kerhoff/eventsync/internal/models"
)

// Status is the final state of a pass.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusThrottled Status = "skipped_throttled"
	StatusBusy      Status = "skipped_busy"
	StatusAborted   Status = "aborted"
)

// Trigger names what requested a pass.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerCLI       Trigger = "cli"
	TriggerAPI       Trigger = "api"
	TriggerBot       Trigger = "bot"
)

// PassReport describes one pass. Stats are the only externally observable
// outcome of the reconciliation itself.
type PassReport struct {
	ID            string                               `json:"id"`
	Trigger       Trigger                              `json:"trigger"`
	Status        Status                               `json:"status"`
	Reason        string                               `json:"reason,omitempty"`
	StartedAt     time.Time                            `json:"started_at"`
	FinishedAt    time.Time                            `json:"finished_at"`
	EventsSeen    int                                  `json:"events_seen"`
	Unroutable    int                                  `json:"unroutable"`
	FeedErrors    []string                             `json:"feed_errors,omitempty"`
	MissingGrants []string                             `json:"missing_grants,omitempty"`
	VersionReset  bool                                 `json:"version_reset"`
	Partitions    map[models.Category]models.SyncStats `json:"partitions,omitempty"`
}

// Duration is the wall time of the pass.
func (r *PassReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Totals sums the stats of every partition.
func (r *PassReport) Totals() models.SyncStats {
	var total models.SyncStats
	for _, s := range r.Partitions {
		total.Add(s)
	}
	return total
}
