package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kerhoff/eventsync/internal/api"
	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/handlers"
	"github.com/Kerhoff/eventsync/internal/metrics"
	"github.com/Kerhoff/eventsync/internal/repository/postgres"
	"github.com/Kerhoff/eventsync/internal/service"
	"github.com/Kerhoff/eventsync/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	*rootOptions
	SyncOnStart bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled sync passes with the HTTP API and Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SyncOnStart, "sync-on-start", true, "run a pass right after startup")

	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	cfg, l := opts.cfg, opts.log
	l.WithField("version", version).Info("Starting eventsync...")

	// Database
	db, err := openDatabase(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer db.Close()

	cats, err := config.NewCategoryStore(cfg.CategoriesFile)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	remediators := service.MultiRemediator{service.LogRemediator{Logger: l}}
	var notifier service.Notifier

	// Telegram bot
	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID, l)
		if err != nil {
			return err
		}
		if cfg.TelegramChatID != 0 {
			n := telegram.NewNotifier(bot, cfg.TelegramChatID, l)
			remediators = append(remediators, n)
			notifier = n
		}
	}

	// Service layer
	svc := service.New(service.Deps{
		Store:      postgres.NewStore(db.DB),
		State:      postgres.NewStateRepository(db.DB),
		Grants:     postgres.NewGrantChecker(db.DB),
		Feeds:      buildFeeds(cfg, l),
		Categories: cats,
		Logger:     l,
		Recorder:   recorder,
		Remediator: remediators,
		Notifier:   notifier,
	}, serviceOptions(cfg, false))

	if bot != nil {
		bot.RegisterCommand("start", handlers.NewStartHandler(l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l))
		bot.RegisterCommand("sync", handlers.NewSyncHandler(svc, l))
		bot.RegisterCommand("stats", handlers.NewStatsHandler(svc, l))
		bot.RegisterCommand("categories", handlers.NewCategoriesHandler(cats, l))

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	// HTTP servers
	apiServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewServer(svc, cats, l).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           recorder.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		go func(srv *http.Server) {
			l.Infof("HTTP server listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Errorf("HTTP server error: %v", err)
			}
		}(srv)
	}

	if opts.SyncOnStart {
		go func() {
			if _, err := svc.RunPass(ctx, service.TriggerScheduled); err != nil {
				l.WithError(err).Warn("Startup sync pass did not run")
			}
		}()
	}

	schedulerDone := make(chan error, 1)
	go func() {
		if cfg.Sync.Schedule == "" {
			l.Info("No sync schedule; passes run on request only")
			<-ctx.Done()
			schedulerDone <- nil
			return
		}
		schedulerDone <- svc.StartSyncScheduler(ctx, cfg.Sync.Schedule)
	}()

	l.Info("eventsync started successfully")

	var schedErr error
	select {
	case <-ctx.Done():
		schedErr = <-schedulerDone
	case schedErr = <-schedulerDone:
	}

	l.Info("Shutting down HTTP servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.WithError(err).Warn("HTTP server shutdown failed")
		}
	}

	l.Info("eventsync stopped")
	return schedErr
}
