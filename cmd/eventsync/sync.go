package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/repository/memory"
	"github.com/Kerhoff/eventsync/internal/repository/postgres"
	"github.com/Kerhoff/eventsync/internal/service"
)

type syncOptions struct {
	*rootOptions
	DryRun bool
	Force  bool
	JSON   bool
}

func newSyncCommand(root *rootOptions) *cobra.Command {
	opts := &syncOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and print its report",
		Long: `Run a single sync pass against the configured feeds.

With --dry-run the pass runs against an empty in-memory store, so the report
shows everything the feeds would produce without touching the database.

Example:
  eventsync sync
  eventsync sync --dry-run --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "run against an in-memory store")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "ignore the pass throttle")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the report as JSON")

	return cmd
}

func runSync(cmd *cobra.Command, opts *syncOptions) error {
	ctx := cmd.Context()
	cfg, log := opts.cfg, opts.log

	cats, err := config.NewCategoryStore(cfg.CategoriesFile)
	if err != nil {
		return err
	}

	deps := service.Deps{
		Feeds:      buildFeeds(cfg, log),
		Categories: cats,
		Logger:     log,
	}

	var store *memory.Store
	if opts.DryRun {
		store = memory.New()
		deps.Store = store
		deps.State = memory.NewStateStore()
		deps.Grants = &memory.Grants{}
	} else {
		db, err := openDatabase(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		deps.Store = postgres.NewStore(db.DB)
		deps.State = postgres.NewStateRepository(db.DB)
		deps.Grants = postgres.NewGrantChecker(db.DB)
	}

	svc := service.New(deps, serviceOptions(cfg, opts.Force || opts.DryRun))

	report, err := svc.RunPass(ctx, service.TriggerCLI)
	if err != nil && !errors.Is(err, service.ErrMissingGrants) {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
		if store != nil {
			printDryRun(out, store, cfg.AccountKey)
		}
	}

	if report.Status == service.StatusAborted {
		return fmt.Errorf("sync pass aborted: %s", report.Reason)
	}
	return nil
}

func printReport(w io.Writer, report *service.PassReport) {
	fmt.Fprintf(w, "pass %s: %s", report.ID, report.Status)
	if report.Reason != "" {
		fmt.Fprintf(w, " (%s)", report.Reason)
	}
	fmt.Fprintln(w)

	for _, grant := range report.MissingGrants {
		fmt.Fprintf(w, "  missing grant: %s\n", grant)
	}
	if report.Status != service.StatusCompleted {
		return
	}

	fmt.Fprintf(w, "  events seen: %d, unroutable: %d, took %s\n",
		report.EventsSeen, report.Unroutable, report.Duration())
	for _, c := range models.Categories {
		if s, ok := report.Partitions[c]; ok {
			fmt.Fprintf(w, "  %-14s added %d, modified %d, removed %d, failed %d\n",
				c, s.Added, s.Modified, s.Removed, s.Failed)
		}
	}
	for _, e := range report.FeedErrors {
		fmt.Fprintf(w, "  feed error: %s\n", e)
	}
}

func printDryRun(w io.Writer, store *memory.Store, accountKey string) {
	for _, c := range models.Categories {
		container, ok := store.ContainerByName(accountKey, c.ContainerName())
		if !ok {
			continue
		}
		records := store.Records(container.ID)
		if len(records) == 0 {
			continue
		}
		sort.Slice(records, func(i, j int) bool {
			return records[i].Fields.Start.Before(records[j].Fields.Start)
		})

		fmt.Fprintf(w, "\n%s:\n", container.Appearance.DisplayName)
		for _, r := range records {
			fmt.Fprintf(w, "  %s  %s\n", r.Fields.Start.Format("2006-01-02 15:04"), r.Fields.Title)
		}
	}
}
