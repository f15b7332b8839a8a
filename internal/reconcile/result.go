package reconcile

import "github.com/Kerhoff/eventsync/internal/models"

// Action is the store mutation chosen for one remote event.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FailureKind classifies a failed per-record operation.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureRecord means the event record write itself failed.
	FailureRecord
	// FailureReminder means the record was written but its reminders
	// could not be converged.
	FailureReminder
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureRecord:
		return "record"
	case FailureReminder:
		return "reminder"
	default:
		return "unknown"
	}
}

// Result is the outcome of one per-record operation.
type Result struct {
	RemoteID string
	LocalID  int64
	Action   Action
	Failure  FailureKind
	Err      error
}

// OK reports whether the operation fully succeeded.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}

// apply counts r into stats.
func (r Result) apply(stats *models.SyncStats) {
	if !r.OK() {
		stats.Failed++
		return
	}
	switch r.Action {
	case ActionCreate:
		stats.Added++
	case ActionUpdate:
		stats.Modified++
	case ActionDelete:
		stats.Removed++
	}
}
