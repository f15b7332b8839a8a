package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/clock"
	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/feed"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/reconcile"
	"github.com/Kerhoff/eventsync/internal/repository"
)

// ErrMissingGrants aborts a pass before any store access. It is the only
// error RunPass returns.
var ErrMissingGrants = errors.New("missing capability grants")

// Recorder receives pass metrics.
type Recorder interface {
	CountPass(status string)
	ObserveCompleted(finishedAt time.Time, duration time.Duration, stats map[models.Category]models.SyncStats)
}

type nopRecorder struct{}

func (nopRecorder) CountPass(string) {}

func (nopRecorder) ObserveCompleted(time.Time, time.Duration, map[models.Category]models.SyncStats) {}

// CategorySource yields the category policy a pass runs with.
type CategorySource interface {
	Snapshot() *config.Categories
}

// FeedBinding is one feed a pass reads from.
type FeedBinding struct {
	Source feed.Source
	// Gate, when set, skips the source unless that category is enabled.
	Gate models.Category
}

// Options are the per-account settings of the orchestrator.
type Options struct {
	AccountKey string
	// Version is the application version; a change forces a full resync.
	Version   string
	Throttle  Throttle
	BatchSize int
}

// Deps are the collaborators of the orchestrator. Store, State, Grants,
// Categories and Logger are required.
type Deps struct {
	Store      repository.LocalStore
	State      repository.StateRepository
	Grants     repository.GrantChecker
	Feeds      []FeedBinding
	Categories CategorySource
	Clock      clock.Clock
	Logger     *logrus.Logger
	Recorder   Recorder
	Remediator Remediator
	Notifier   Notifier
}

// Service drives sync passes for one account.
type Service struct {
	deps Deps
	opts Options

	running atomic.Bool

	mu   sync.RWMutex
	last *PassReport
}

// New creates the orchestrator.
func New(deps Deps, opts Options) *Service {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Remediator == nil {
		deps.Remediator = LogRemediator{Logger: deps.Logger}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = reconcile.DefaultBatchSize
	}
	return &Service{deps: deps, opts: opts}
}

// Running reports whether a pass is in progress.
func (s *Service) Running() bool {
	return s.running.Load()
}

// LastReport returns the report of the most recent pass, or nil.
func (s *Service) LastReport() *PassReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Service) finish(ctx context.Context, report *PassReport) *PassReport {
	report.FinishedAt = s.deps.Clock.Now()
	s.deps.Recorder.CountPass(string(report.Status))
	if report.Status == StatusCompleted {
		s.deps.Recorder.ObserveCompleted(report.FinishedAt, report.Duration(), report.Partitions)
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if s.deps.Notifier != nil && needsAttention(report) {
		s.deps.Notifier.NotifyPass(ctx, report)
	}
	return report
}

// RunPass runs one synchronization pass. A pass already in progress makes
// this call a logged no-op. Throttled passes return a skipped report and no
// error; the only error is ErrMissingGrants.
func (s *Service) RunPass(ctx context.Context, trigger Trigger) (*PassReport, error) {
	now := s.deps.Clock.Now()
	report := &PassReport{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: now,
	}
	log := s.deps.Logger.WithFields(logrus.Fields{
		"pass_id": report.ID,
		"account": s.opts.AccountKey,
		"trigger": trigger,
	})

	if !s.running.CompareAndSwap(false, true) {
		log.Warn("Sync pass already running; trigger ignored")
		report.Status = StatusBusy
		report.FinishedAt = now
		s.deps.Recorder.CountPass(string(report.Status))
		return report, nil
	}
	defer s.running.Store(false)

	missing, err := s.deps.Grants.MissingGrants(ctx)
	if err != nil {
		missing = append(missing, fmt.Sprintf("unverifiable: %v", err))
	}
	if len(missing) > 0 {
		report.Status = StatusAborted
		report.Reason = "missing capability grants"
		report.MissingGrants = missing
		s.deps.Remediator.RequestGrants(ctx, s.opts.AccountKey, missing)
		s.finish(ctx, report)
		return report, fmt.Errorf("%w: %s", ErrMissingGrants, strings.Join(missing, ", "))
	}

	// An unreadable state still lets the pass run, but the stored version is
	// unknown then: no version reset and no save, so the next readable state
	// decides.
	state, err := s.deps.State.Get(ctx, s.opts.AccountKey)
	stateKnown := err == nil
	if !stateKnown {
		log.WithError(err).Warn("Failed to load sync state; throttling as a first pass, version check skipped")
		state = &models.SyncState{AccountKey: s.opts.AccountKey}
	}

	decision := s.opts.Throttle.Check(state, now)
	if !decision.Allowed {
		log.Infof("Skipping sync pass: %s", decision.Reason)
		report.Status = StatusThrottled
		report.Reason = decision.Reason
		return s.finish(ctx, report), nil
	}

	log.Info("Sync pass started")

	pass := &reconcile.PassContext{
		ID:         report.ID,
		AccountKey: s.opts.AccountKey,
		Now:        now,
		Store:      s.deps.Store,
		Log:        log,
		BatchSize:  s.opts.BatchSize,
	}
	cats := s.deps.Categories.Snapshot()
	policies := reconcile.Policies(cats)

	registry := reconcile.NewRegistry(pass, policies)
	registry.RemoveLegacy(ctx, cats.LegacyContainers)
	if err := registry.EnsureAll(ctx); err != nil {
		log.WithError(err).Warn("Some categories are unavailable this pass")
	}

	if stateKnown && state.LastVersion != s.opts.Version {
		log.WithFields(logrus.Fields{
			"from": state.LastVersion,
			"to":   s.opts.Version,
		}).Info("Application version changed; recreating every container")

		if err := registry.DeleteAll(ctx); err != nil {
			log.WithError(err).Error("Failed to delete containers for version change")
			report.Status = StatusAborted
			report.Reason = "version reset failed"
			return s.finish(ctx, report), nil
		}
		report.VersionReset = true

		registry = reconcile.NewRegistry(pass, policies)
		if err := registry.EnsureAll(ctx); err != nil {
			log.WithError(err).Warn("Some categories are unavailable this pass")
		}
	}

	for _, binding := range s.deps.Feeds {
		if binding.Gate != "" && !registry.Enabled(binding.Gate) {
			log.WithField("source", binding.Source.Name()).Debug("Source skipped, category disabled")
			continue
		}
		s.consume(ctx, registry, binding.Source, report, log)
	}

	report.Partitions = registry.FinalizeAll(ctx)
	report.Status = StatusCompleted

	if stateKnown {
		state.AccountKey = s.opts.AccountKey
		state.LastSyncAt = now
		state.SyncsPerHour = decision.PassesThisHour
		state.LastVersion = s.opts.Version
		if err := s.deps.State.Save(ctx, state); err != nil {
			log.WithError(err).Warn("Failed to persist sync state")
		}
	}

	s.finish(ctx, report)

	totals := report.Totals()
	log.WithFields(logrus.Fields{
		"added":       totals.Added,
		"modified":    totals.Modified,
		"removed":     totals.Removed,
		"failed":      totals.Failed,
		"events_seen": report.EventsSeen,
		"duration":    report.Duration(),
	}).Info("Sync pass completed")

	return report, nil
}

// consume pages through src and hands every event to the registry. A feed
// error ends this source only; what was already applied stays applied.
func (s *Service) consume(ctx context.Context, registry *reconcile.Registry, src feed.Source, report *PassReport, log *logrus.Entry) {
	log = log.WithField("source", src.Name())

	cursor := ""
	for pages := 1; ; pages++ {
		page, err := src.Fetch(ctx, cursor)
		if err != nil {
			log.WithError(err).WithField("page", pages).Error("Feed fetch failed; source abandoned for this pass")
			report.FeedErrors = append(report.FeedErrors, fmt.Sprintf("%s: %v", src.Name(), err))
			return
		}

		for _, ev := range page.Events {
			report.EventsSeen++
			if !registry.Accept(ctx, ev) {
				report.Unroutable++
			}
		}

		if page.NextCursor == "" || page.NextCursor == cursor {
			return
		}
		cursor = page.NextCursor
	}
}
