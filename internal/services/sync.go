package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sessionwatch/internal/domain"
)

// SyncOptions controls a reconciliation run.
type SyncOptions struct {
	// DryRun computes the diff without writing or notifying.
	DryRun bool
	// StrictValidation aborts the run when any raw record is invalid.
	StrictValidation bool
	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration
}

type syncService struct {
	source     domain.SessionSource
	normalizer *Normalizer
	repo       domain.SessionRepository
	applier    *Applier
	logger     *slog.Logger
	opts       SyncOptions
}

// NewSyncService returns a SyncService reconciling repo against source.
func NewSyncService(source domain.SessionSource, normalizer *Normalizer, repo domain.SessionRepository, applier *Applier, logger *slog.Logger, opts SyncOptions) domain.SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &syncService{
		source:     source,
		normalizer: normalizer,
		repo:       repo,
		applier:    applier,
		logger:     logger,
		opts:       opts,
	}
}

// Run fetches the current sessions, reconciles them with the stored snapshot and
// applies the result. A fetch failure or an empty snapshot returns an error wrapping
// domain.ErrSourceUnavailable and nothing is written. A stored session whose fetched
// record is invalid is kept rather than removed. Failed writes are reported in
// the returned report and joined into the returned error.
func (s *syncService) Run(ctx context.Context) (*domain.SyncReport, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	raws, err := s.source.Fetch(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	report := &domain.SyncReport{Fetched: len(raws), DryRun: s.opts.DryRun}

	fetched, invalid := s.normalizer.NormalizeAll(raws)
	report.Invalid = invalid
	report.Rejected = len(invalid)
	if s.opts.StrictValidation && len(invalid) > 0 {
		errs := make([]error, len(invalid))
		for i, verr := range invalid {
			errs[i] = verr
		}
		return report, fmt.Errorf("%d invalid session records: %w", len(invalid), errors.Join(errs...))
	}
	if len(fetched) == 0 {
		s.logger.Error("source returned no sessions, refusing to reconcile", "fetched", len(raws), "rejected", len(invalid))
		return report, fmt.Errorf("%w: no valid sessions in source response", domain.ErrSourceUnavailable)
	}

	stored, err := s.repo.ListSessions(ctx)
	if err != nil {
		return report, fmt.Errorf("load stored sessions: %w", err)
	}

	d := Reconcile(stored, fetched)
	report.Retained = s.retainInvalid(d, invalid)
	report.Diff = d
	report.Added = len(d.Added)
	report.Updated = len(d.Updated)
	report.Removed = len(d.Removed)
	report.Unchanged = countUnchanged(stored, d) - report.Retained
	s.logDiff(d)
	s.logger.Info("reconciled sessions",
		"stored", len(stored),
		"fetched", len(fetched),
		"added", report.Added,
		"updated", report.Updated,
		"removed", report.Removed,
		"unchanged", report.Unchanged,
		"retained", report.Retained,
		"dry_run", s.opts.DryRun,
	)

	if s.opts.DryRun || d.Empty() {
		return report, nil
	}

	report.Apply = s.applier.Apply(ctx, d)
	s.logger.Info("applied session changes",
		"inserted", report.Apply.Inserted,
		"updated", report.Apply.Updated,
		"removed", report.Apply.Removed,
		"conflicts", report.Apply.Conflicts,
		"missing", report.Apply.Missing,
		"skipped", report.Apply.Skipped,
		"failed", len(report.Apply.Failures),
	)
	if err := report.Apply.Err(); err != nil {
		return report, fmt.Errorf("apply session changes: %w", err)
	}
	if report.Apply.Skipped > 0 {
		return report, fmt.Errorf("run interrupted with %d writes not applied: %w", report.Apply.Skipped, ctx.Err())
	}
	return report, nil
}

// retainInvalid drops from d.Removed every session the source still lists but
// whose record failed validation, and returns how many were kept.
func (s *syncService) retainInvalid(d *domain.SessionListDiff, invalid []*domain.ValidationError) int {
	retained := 0
	for _, verr := range invalid {
		if verr.SessionID == "" {
			continue
		}
		if _, ok := d.Removed[verr.SessionID]; !ok {
			continue
		}
		delete(d.Removed, verr.SessionID)
		retained++
		s.logger.Warn("keeping stored session, fetched record is invalid", "session_id", verr.SessionID, "field", verr.Field)
	}
	return retained
}

func (s *syncService) logDiff(d *domain.SessionListDiff) {
	for _, id := range sortedKeys(d.Removed) {
		s.logger.Info("session removed", "session_id", id, "third_party_id", d.Removed[id].ThirdPartyID)
	}
	for _, id := range sortedKeys(d.Added) {
		s.logger.Info("session added", "session_id", id, "third_party_id", d.Added[id].ThirdPartyID)
	}
	for _, id := range sortedKeys(d.Updated) {
		sd := d.Updated[id]
		fields := make([]string, len(sd.ChangedFields))
		for i, fd := range sd.ChangedFields {
			fields[i] = fd.Field
		}
		s.logger.Info("session updated", "session_id", id, "third_party_id", sd.NewSession.ThirdPartyID, "fields", fields)
	}
}

// countUnchanged counts stored sessions that were neither removed nor updated.
func countUnchanged(stored []*domain.Session, d *domain.SessionListDiff) int {
	seen := make(map[string]struct{}, len(stored))
	for _, s := range stored {
		seen[s.SessionUid] = struct{}{}
	}
	return len(seen) - len(d.Removed) - len(d.Updated)
}
