package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sessionwatch/internal/domain"
	"sessionwatch/internal/services"
	"sessionwatch/internal/validate"
)

type syncOptions struct {
	dryRun     bool
	sourceFile string
	strict     bool
	showDiff   bool
}

func newSyncCommand() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync [OPTIONS]",
		Short: "Fetch the session catalog, reconcile it with the store and apply the changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Compute and print the diff without writing or notifying")
	flags.StringVar(&opts.sourceFile, "source-file", "", "Read the catalog from a saved portal response instead of SOURCE_URL")
	flags.BoolVar(&opts.strict, "strict", false, "Abort when any fetched record fails validation")
	flags.BoolVar(&opts.showDiff, "diff", false, "Include the full diff in the printed report")
	return cmd
}

func runSync(cmd *cobra.Command, opts syncOptions) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.sourceFile != "" {
		cfg.Source.File = opts.sourceFile
	}
	logger := cfg.Logger()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	validator, err := validate.New()
	if err != nil {
		return err
	}
	notifier, err := newNotifier(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	repo := services.NewSessionRepository(store, logger)
	applier := services.NewApplier(repo, notifier, logger, cfg.Sync.ApplyConcurrency)
	svc := services.NewSyncService(source, services.NewNormalizer(validator, logger), repo, applier, logger, services.SyncOptions{
		DryRun:           opts.dryRun,
		StrictValidation: opts.strict || cfg.Sync.StrictValidation,
		Timeout:          cfg.Sync.RunTimeout,
	})

	report, runErr := svc.Run(ctx)
	if report != nil {
		if !opts.showDiff && !opts.dryRun {
			report.Diff = nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return errors.Join(runErr, fmt.Errorf("print report: %w", err))
		}
	}
	if errors.Is(runErr, domain.ErrSourceUnavailable) {
		logger.Error("sync aborted, stored sessions left untouched", "error", runErr)
	}
	return runErr
}
