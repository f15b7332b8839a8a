package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartSyncScheduler runs a pass on every tick of the cron schedule. It
// blocks until the context is cancelled, so it should be launched in a
// separate goroutine. Ticks that land while a pass is running are dropped by
// the pass guard.
func (s *Service) StartSyncScheduler(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(s.deps.Logger)))

	_, err := c.AddFunc(schedule, func() {
		if _, err := s.RunPass(ctx, TriggerScheduled); err != nil {
			if errors.Is(err, ErrMissingGrants) {
				return
			}
			s.deps.Logger.Errorf("Scheduled sync pass failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}

	c.Start()
	s.deps.Logger.Infof("Sync scheduler started (%s)", schedule)

	<-ctx.Done()

	<-c.Stop().Done()
	s.deps.Logger.Info("Sync scheduler stopped")
	return nil
}
