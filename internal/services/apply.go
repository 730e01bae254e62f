package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sessionwatch/internal/domain"
)

// Applier persists a SessionListDiff one session at a time and emits a change
// event for every write that took effect.
type Applier struct {
	repo        domain.SessionRepository
	notifier    domain.Notifier
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
	newID       func() string
}

// NewApplier returns an Applier. concurrency below 1 applies writes sequentially.
// A nil notifier discards events.
func NewApplier(repo domain.SessionRepository, notifier domain.Notifier, logger *slog.Logger, concurrency int) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Applier{
		repo:        repo,
		notifier:    notifier,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

type applyOp struct {
	op   domain.ApplyOp
	id   string
	run  func(ctx context.Context) error
	emit func() domain.ChangeEvent
}

// Apply inserts added sessions, overwrites updated ones and deletes removed ones.
// Each write is independent: a failure is recorded in the report and the remaining
// writes still run. Duplicate inserts and removals of absent records are no-ops.
// Writes not yet started when ctx is done are skipped.
func (a *Applier) Apply(ctx context.Context, d *domain.SessionListDiff) *domain.ApplyReport {
	report := &domain.ApplyReport{}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for _, op := range a.plan(d) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return nil
			}
			err := op.run(ctx)

			mu.Lock()
			applied := a.record(report, op, err)
			mu.Unlock()

			if applied {
				a.notify(ctx, op.emit())
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		if report.Failures[i].Op != report.Failures[j].Op {
			return report.Failures[i].Op < report.Failures[j].Op
		}
		return report.Failures[i].SessionID < report.Failures[j].SessionID
	})
	return report
}

// record updates the report for one finished write and reports whether it took effect.
func (a *Applier) record(report *domain.ApplyReport, op applyOp, err error) bool {
	switch {
	case err == nil:
		switch op.op {
		case domain.OpInsert:
			report.Inserted++
		case domain.OpUpdate:
			report.Updated++
		case domain.OpRemove:
			report.Removed++
		}
		return true
	case op.op == domain.OpInsert && errors.Is(err, domain.ErrConflict):
		a.logger.Info("session already stored, skipping insert", "session_id", op.id)
		report.Conflicts++
	case op.op == domain.OpRemove && errors.Is(err, domain.ErrNotFound):
		a.logger.Info("session already removed", "session_id", op.id)
		report.Missing++
	default:
		a.logger.Error("failed to apply session change", "session_id", op.id, "op", op.op, "error", err)
		report.Failures = append(report.Failures, domain.ApplyFailure{
			SessionID: op.id,
			Op:        op.op,
			Err:       err,
			Message:   err.Error(),
		})
	}
	return false
}

func (a *Applier) notify(ctx context.Context, event domain.ChangeEvent) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, event); err != nil {
		a.logger.Warn("failed to deliver change event", "session_id", event.SessionID, "kind", event.Kind, "error", err)
	}
}

// plan lists the writes for d in a stable order: inserts, updates, then removals,
// each sorted by session id.
func (a *Applier) plan(d *domain.SessionListDiff) []applyOp {
	ops := make([]applyOp, 0, len(d.Added)+len(d.Updated)+len(d.Removed))

	for _, id := range sortedKeys(d.Added) {
		s := d.Added[id]
		ops = append(ops, applyOp{
			op:  domain.OpInsert,
			id:  id,
			run: func(ctx context.Context) error { return a.repo.InsertSession(ctx, s) },
			emit: func() domain.ChangeEvent {
				e := a.event(domain.SessionAdded, s)
				e.Session = s
				return e
			},
		})
	}
	for _, id := range sortedKeys(d.Updated) {
		sd := d.Updated[id]
		ops = append(ops, applyOp{
			op:  domain.OpUpdate,
			id:  id,
			run: func(ctx context.Context) error { return a.repo.UpdateSession(ctx, sd.NewSession) },
			emit: func() domain.ChangeEvent {
				e := a.event(domain.SessionUpdated, sd.NewSession)
				e.Old = sd.OldSession
				e.New = sd.NewSession
				e.Changes = sd.ChangedFields
				return e
			},
		})
	}
	for _, id := range sortedKeys(d.Removed) {
		s := d.Removed[id]
		ops = append(ops, applyOp{
			op:  domain.OpRemove,
			id:  id,
			run: func(ctx context.Context) error { return a.repo.RemoveSession(ctx, s) },
			emit: func() domain.ChangeEvent {
				e := a.event(domain.SessionRemoved, s)
				e.Session = s
				return e
			},
		})
	}
	return ops
}

func (a *Applier) event(kind domain.ChangeKind, s *domain.Session) domain.ChangeEvent {
	return domain.ChangeEvent{
		ID:           a.newID(),
		Kind:         kind,
		SessionID:    s.SessionUid,
		ThirdPartyID: s.ThirdPartyID,
		OccurredAt:   a.now().UTC(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
