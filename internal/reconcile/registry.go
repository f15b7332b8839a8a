package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository"
)

// Registry owns one partition per category for the duration of a pass.
type Registry struct {
	pass       *PassContext
	order      []models.Category
	partitions map[models.Category]*Partition
}

// NewRegistry creates a partition for every policy. Nothing touches the
// store until EnsureAll.
func NewRegistry(pass *PassContext, policies []Policy) *Registry {
	r := &Registry{
		pass:       pass,
		order:      make([]models.Category, 0, len(policies)),
		partitions: make(map[models.Category]*Partition, len(policies)),
	}
	for _, policy := range policies {
		if _, dup := r.partitions[policy.Category]; dup {
			continue
		}
		r.order = append(r.order, policy.Category)
		r.partitions[policy.Category] = newPartition(pass, policy)
	}
	return r
}

// Partition returns the partition of category c.
func (r *Registry) Partition(c models.Category) (*Partition, bool) {
	p, ok := r.partitions[c]
	return p, ok
}

// Enabled reports whether category c is configured on.
func (r *Registry) Enabled(c models.Category) bool {
	p, ok := r.partitions[c]
	return ok && p.policy.Enabled
}

// RemoveLegacy deletes containers left behind under names no longer used.
// Failures are logged and do not stop the pass.
func (r *Registry) RemoveLegacy(ctx context.Context, names []string) {
	for _, name := range names {
		n, err := r.pass.Store.DeleteContainersByName(ctx, r.pass.AccountKey, name)
		if err != nil {
			r.pass.Log.WithError(err).WithField("container", name).Warn("Failed to remove legacy container")
			continue
		}
		if n > 0 {
			r.pass.Log.WithField("container", name).Info("Removed legacy container")
		}
	}
}

// EnsureAll binds every partition to its container. A partition that fails
// stays inert for the pass; the joined error is returned for reporting only.
func (r *Registry) EnsureAll(ctx context.Context) error {
	var result *multierror.Error
	for _, c := range r.order {
		p := r.partitions[c]
		if err := p.ensure(ctx); err != nil {
			p.containerID = Unassigned
			p.log.WithError(err).Error("Failed to prepare container; category skipped this pass")
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Route returns the partition an event belongs to.
func (r *Registry) Route(ev models.NormalizedEvent) (*Partition, bool) {
	return r.Partition(ev.Status)
}

// Accept routes ev and buffers it in its partition. It reports false when
// the event's status matches no category.
func (r *Registry) Accept(ctx context.Context, ev models.NormalizedEvent) bool {
	p, ok := r.Route(ev)
	if !ok {
		r.pass.Log.WithFields(logrus.Fields{
			"remote_id": ev.RemoteID,
			"status":    ev.Status,
		}).Warn("Event has no category; skipped")
		return false
	}
	p.Accept(ctx, ev)
	return true
}

// FinalizeAll finalizes every partition and returns their stats.
func (r *Registry) FinalizeAll(ctx context.Context) map[models.Category]models.SyncStats {
	stats := make(map[models.Category]models.SyncStats, len(r.order))
	for _, c := range r.order {
		stats[c] = r.partitions[c].Finalize(ctx)
	}
	return stats
}

// DeleteAll removes the container of every partition that has one and
// leaves every partition inert. Used when the application version changes.
func (r *Registry) DeleteAll(ctx context.Context) error {
	var result *multierror.Error
	for _, c := range r.order {
		p := r.partitions[c]
		if p.containerID == Unassigned {
			continue
		}
		if err := r.pass.Store.DeleteContainer(ctx, p.containerID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			result = multierror.Append(result, fmt.Errorf("failed to delete container of %s: %w", c, err))
			continue
		}
		p.containerID = Unassigned
	}
	return result.ErrorOrNil()
}
