package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/clock"
	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/feed"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/service"
)

// buildFeeds creates one source per configured feed. The recurring export is
// only read while its category is enabled.
func buildFeeds(cfg *config.Config, log *logrus.Logger) []service.FeedBinding {
	clk := clock.Real{}
	opts := feed.ParseOptions{IncludeLinks: cfg.Feed.IncludeLinks}

	var feeds []service.FeedBinding
	if cfg.Feed.EventsICSURL != "" {
		feeds = append(feeds, service.FeedBinding{
			Source: feed.NewICSSource("events_ics", cfg.Feed.EventsICSURL, opts, clk, log),
		})
	}
	if cfg.Feed.GraphURL != "" {
		feeds = append(feeds, service.FeedBinding{
			Source: feed.NewGraphSource(feed.GraphConfig{
				URL:           cfg.Feed.GraphURL,
				AccessToken:   cfg.Feed.AccessToken,
				PageLimit:     cfg.Feed.PageLimit,
				RatePerSecond: cfg.Feed.RatePerSecond,
				IncludeLinks:  cfg.Feed.IncludeLinks,
			}, clk, log),
		})
	}
	if cfg.Feed.RecurringICSURL != "" {
		feeds = append(feeds, service.FeedBinding{
			Source: feed.NewICSSource("recurring_ics", cfg.Feed.RecurringICSURL, opts, clk, log),
			Gate:   models.CategoryRecurring,
		})
	}
	return feeds
}

func serviceOptions(cfg *config.Config, debug bool) service.Options {
	return service.Options{
		AccountKey: cfg.AccountKey,
		Version:    version,
		Throttle: service.Throttle{
			MinInterval: cfg.Sync.MinPassInterval,
			MaxPerHour:  cfg.Sync.MaxPassesPerHour,
			Bypass:      cfg.Sync.Debug || debug,
		},
		BatchSize: cfg.Sync.BatchSize,
	}
}

// openDatabase connects and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*config.Database, error) {
	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
