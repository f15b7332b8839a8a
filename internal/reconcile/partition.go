package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository"
)

// Unassigned is the container ID of a partition with no local container.
const Unassigned int64 = -1

// State is the lifecycle stage of a partition.
type State int

const (
	StateConstructed State = iota
	StateAccepting
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateAccepting:
		return "accepting"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Partition reconciles the events of one category against its local
// container.
type Partition struct {
	policy Policy
	pass   *PassContext
	log    *logrus.Entry

	containerID int64
	state       State

	past   map[string]int64
	future map[string]int64
	// seen holds every remote ID accepted and flushed this pass.
	seen   map[string]struct{}
	buffer []models.NormalizedEvent

	stats models.SyncStats
}

func newPartition(pass *PassContext, policy Policy) *Partition {
	return &Partition{
		policy:      policy,
		pass:        pass,
		log:         pass.Log.WithField("category", policy.Category),
		containerID: Unassigned,
		past:        make(map[string]int64),
		future:      make(map[string]int64),
		seen:        make(map[string]struct{}),
	}
}

// Category returns the partition's category.
func (p *Partition) Category() models.Category { return p.policy.Category }

// Policy returns the partition's policy.
func (p *Partition) Policy() Policy { return p.policy }

// ContainerID returns the local container ID or Unassigned.
func (p *Partition) ContainerID() int64 { return p.containerID }

// State returns the lifecycle stage.
func (p *Partition) State() State { return p.state }

// Stats returns the counters accumulated so far.
func (p *Partition) Stats() models.SyncStats { return p.stats }

// Active reports whether the partition writes to a local container.
func (p *Partition) Active() bool {
	return p.policy.Enabled && p.containerID != Unassigned
}

// PastIndex returns a copy of the past-index.
func (p *Partition) PastIndex() map[string]int64 { return copyIndex(p.past) }

// FutureIndex returns a copy of the future-index.
func (p *Partition) FutureIndex() map[string]int64 { return copyIndex(p.future) }

// Pending returns the number of buffered, unflushed events.
func (p *Partition) Pending() int { return len(p.buffer) }

func copyIndex(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ensure binds the partition to its local container. An enabled category
// gets its container found and refreshed, or created; a disabled one has any
// existing container removed and stays Unassigned. Indices of an existing
// container are loaded split at the pass start.
func (p *Partition) ensure(ctx context.Context) error {
	if p.state != StateConstructed {
		return nil
	}
	p.state = StateAccepting

	store := p.pass.Store
	name := p.policy.Category.ContainerName()

	id, found, err := store.FindContainer(ctx, p.pass.AccountKey, name)
	if err != nil {
		return fmt.Errorf("failed to find container %s: %w", name, err)
	}

	if !p.policy.Enabled {
		if found {
			if err := store.DeleteContainer(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("failed to delete disabled container %s: %w", name, err)
			}
			p.log.WithField("container_id", id).Info("Removed container of disabled category")
		}
		return nil
	}

	if !found {
		id, err = store.CreateContainer(ctx, p.pass.AccountKey, name, p.policy.Appearance)
		if err != nil {
			return fmt.Errorf("failed to create container %s: %w", name, err)
		}
		p.containerID = id
		p.log.WithField("container_id", id).Info("Created container")
		return nil
	}

	if err := store.UpdateContainer(ctx, id, p.policy.Appearance); err != nil {
		return fmt.Errorf("failed to refresh container %s: %w", name, err)
	}

	past, err := store.QueryRecords(ctx, id, p.pass.Now, false)
	if err != nil {
		return fmt.Errorf("failed to load past records of %s: %w", name, err)
	}
	future, err := store.QueryRecords(ctx, id, p.pass.Now, true)
	if err != nil {
		return fmt.Errorf("failed to load future records of %s: %w", name, err)
	}

	for remoteID := range future {
		// A record cannot be both; the future side wins.
		delete(past, remoteID)
	}
	p.past = past
	p.future = future
	p.containerID = id

	p.log.WithFields(logrus.Fields{
		"container_id": id,
		"past":         len(past),
		"future":       len(future),
	}).Debug("Loaded container indices")

	return nil
}

// Accept buffers ev for the next flush. It is a no-op for an inactive or
// finalized partition.
func (p *Partition) Accept(ctx context.Context, ev models.NormalizedEvent) {
	if p.state == StateFinalized {
		p.log.WithField("remote_id", ev.RemoteID).Warn("Event accepted after finalize; dropped")
		return
	}
	if !p.Active() {
		return
	}

	p.buffer = append(p.buffer, ev)
	if len(p.buffer) > p.pass.batchSize() {
		p.Flush(ctx)
	}
}

// Flush writes every buffered event and empties the buffer. A failure of one
// event is logged and counted; the rest of the batch still runs.
func (p *Partition) Flush(ctx context.Context) []Result {
	if len(p.buffer) == 0 {
		return nil
	}

	batch := p.buffer
	p.buffer = nil

	results := make([]Result, 0, len(batch))
	for i := range batch {
		res := p.syncEvent(ctx, &batch[i])
		res.apply(&p.stats)
		if !res.OK() {
			p.log.WithError(res.Err).WithFields(logrus.Fields{
				"remote_id": res.RemoteID,
				"action":    res.Action,
				"failure":   res.Failure,
			}).Error("Failed to sync event")
		}
		results = append(results, res)
	}

	p.log.WithField("batch", len(batch)).Debug("Flushed batch")
	return results
}

func (p *Partition) syncEvent(ctx context.Context, ev *models.NormalizedEvent) Result {
	fields := ev.Fields(p.policy.Appearance.Availability)
	offsets := p.policy.ReminderOffsets(ev.AllDay)

	// Accounted for whatever the outcome, so a failed update does not turn
	// into a delete at finalize.
	p.seen[ev.RemoteID] = struct{}{}

	localID, known := p.future[ev.RemoteID]
	if !known {
		localID, known = p.past[ev.RemoteID]
	}

	if known {
		res := Result{RemoteID: ev.RemoteID, LocalID: localID, Action: ActionUpdate}
		if err := p.pass.Store.UpdateRecord(ctx, localID, fields); err != nil {
			res.Failure, res.Err = FailureRecord, err
			return res
		}
		if _, err := SyncReminders(ctx, p.pass.Store, localID, offsets); err != nil {
			res.Failure, res.Err = FailureReminder, err
		}
		return res
	}

	res := Result{RemoteID: ev.RemoteID, Action: ActionCreate}
	localID, err := p.pass.Store.CreateRecord(ctx, p.containerID, fields)
	if err != nil {
		res.Failure, res.Err = FailureRecord, err
		return res
	}
	res.LocalID = localID

	if fields.IsUpcoming(p.pass.Now) {
		p.future[ev.RemoteID] = localID
	} else {
		p.past[ev.RemoteID] = localID
	}

	if len(offsets) > 0 {
		if err := p.pass.Store.CreateReminders(ctx, localID, offsets); err != nil {
			res.Failure, res.Err = FailureReminder, err
		}
	}
	return res
}

// orphans returns the records Finalize deletes, ordered by remote ID.
func (p *Partition) orphans() []string {
	var out []string
	for remoteID := range p.future {
		if _, ok := p.seen[remoteID]; !ok {
			out = append(out, remoteID)
		}
	}
	if p.policy.Finalize == FinalizeUntouched {
		for remoteID := range p.past {
			if _, ok := p.seen[remoteID]; !ok {
				out = append(out, remoteID)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Finalize flushes the buffer, deletes orphaned records and releases the
// indices. It is idempotent; later calls return the same stats.
func (p *Partition) Finalize(ctx context.Context) models.SyncStats {
	if p.state == StateFinalized {
		return p.stats
	}

	if p.Active() {
		p.Flush(ctx)

		for _, remoteID := range p.orphans() {
			localID, ok := p.future[remoteID]
			if !ok {
				localID = p.past[remoteID]
			}
			res := Result{RemoteID: remoteID, LocalID: localID, Action: ActionDelete}
			err := p.pass.Store.DeleteRecord(ctx, localID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				// Already gone.
				continue
			case err != nil:
				res.Failure, res.Err = FailureRecord, err
				p.log.WithError(err).WithField("remote_id", remoteID).Error("Failed to delete orphaned event")
			}
			res.apply(&p.stats)
		}

		p.log.WithFields(logrus.Fields{
			"added":    p.stats.Added,
			"modified": p.stats.Modified,
			"removed":  p.stats.Removed,
			"failed":   p.stats.Failed,
		}).Info("Partition finalized")
	}

	p.past = nil
	p.future = nil
	p.seen = nil
	p.buffer = nil
	p.state = StateFinalized

	return p.stats
}
