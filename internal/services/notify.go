package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sessionwatch/internal/domain"
)

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that writes every event to logger.
func NewLogNotifier(logger *slog.Logger) domain.Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(ctx context.Context, event domain.ChangeEvent) error {
	attrs := []any{
		"event_id", event.ID,
		"kind", event.Kind,
		"session_id", event.SessionID,
		"third_party_id", event.ThirdPartyID,
	}
	if len(event.Changes) > 0 {
		fields := make([]string, len(event.Changes))
		for i, c := range event.Changes {
			fields[i] = c.Field
		}
		attrs = append(attrs, "fields", fields)
	}
	n.logger.InfoContext(ctx, "session change", attrs...)
	return nil
}

type multiNotifier struct {
	notifiers []domain.Notifier
}

// NewMultiNotifier returns a Notifier that delivers each event to every notifier,
// joining their errors.
func NewMultiNotifier(notifiers ...domain.Notifier) domain.Notifier {
	return &multiNotifier{notifiers: notifiers}
}

func (m *multiNotifier) Notify(ctx context.Context, event domain.ChangeEvent) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// mutationRecord is the stored shape of a history entry.
type mutationRecord struct {
	MutationType domain.ChangeKind `json:"mutationType"`
	SessionID    string            `json:"sessionID"`
	SessionUid   string            `json:"sessionUid"`
	EventID      string            `json:"eventID"`
	OccurredAt   time.Time         `json:"eventDateTime"`
	MutationData any               `json:"mutationData"`
}

type updateMutation struct {
	Old  *domain.Session    `json:"old"`
	New  *domain.Session    `json:"new"`
	Diff []domain.FieldDiff `json:"diff"`
}

type mutationRecorder struct {
	store domain.RecordStore
}

// NewMutationRecorder returns a Notifier that appends every event to the mutation
// history partition of store.
func NewMutationRecorder(store domain.RecordStore) domain.Notifier {
	return &mutationRecorder{store: store}
}

func (m *mutationRecorder) Notify(ctx context.Context, event domain.ChangeEvent) error {
	rec := mutationRecord{
		MutationType: event.Kind,
		SessionID:    event.ThirdPartyID,
		SessionUid:   event.SessionID,
		EventID:      event.ID,
		OccurredAt:   event.OccurredAt,
		MutationData: event.Session,
	}
	if event.Kind == domain.SessionUpdated {
		rec.MutationData = updateMutation{Old: event.Old, New: event.New, Diff: event.Changes}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode mutation %s: %w", event.ID, err)
	}
	key := domain.RecordKey{
		Partition: domain.PartitionMutation,
		SortKey:   event.OccurredAt.UTC().Format(time.RFC3339Nano) + "#" + event.ID,
	}
	if err := m.store.Insert(ctx, &domain.Record{Key: key, Data: data, UpdatedAt: event.OccurredAt}); err != nil {
		return fmt.Errorf("record mutation %s: %w", event.ID, err)
	}
	return nil
}
