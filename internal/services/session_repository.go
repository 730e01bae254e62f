package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"sessionwatch/internal/domain"
)

type sessionRepository struct {
	store  domain.RecordStore
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionRepository returns a SessionRepository storing sessions as records in
// the session partition, keyed by session id.
func NewSessionRepository(store domain.RecordStore, logger *slog.Logger) domain.SessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionRepository{store: store, logger: logger, now: time.Now}
}

// ListSessions loads every stored session. Classification is re-derived from the
// stored tags so rehydrated sessions match freshly normalized ones.
func (r *sessionRepository) ListSessions(ctx context.Context) ([]*domain.Session, error) {
	records, err := r.store.ListByPartition(ctx, domain.PartitionSession)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	sessions := make([]*domain.Session, 0, len(records))
	for _, rec := range records {
		var s domain.Session
		if err := json.Unmarshal(rec.Data, &s); err != nil {
			return nil, fmt.Errorf("decode session record %s: %w", rec.Key.SortKey, err)
		}
		if s.SessionUid == "" {
			s.SessionUid = rec.Key.SortKey
		}
		sessions = append(sessions, domain.NewSession(s, r.logger))
	}
	return sessions, nil
}

// InsertSession stores a new session. It returns domain.ErrConflict if one with the
// same id already exists.
func (r *sessionRepository) InsertSession(ctx context.Context, s *domain.Session) error {
	rec, err := r.record(s)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, rec)
}

// UpdateSession overwrites the stored session, creating it if it does not exist.
func (r *sessionRepository) UpdateSession(ctx context.Context, s *domain.Session) error {
	rec, err := r.record(s)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, rec)
}

// RemoveSession deletes the stored session. It returns domain.ErrNotFound if none existed.
func (r *sessionRepository) RemoveSession(ctx context.Context, s *domain.Session) error {
	return r.store.Delete(ctx, sessionKey(s.SessionUid))
}

func (r *sessionRepository) record(s *domain.Session) (*domain.Record, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.SessionUid, err)
	}
	return &domain.Record{
		Key:       sessionKey(s.SessionUid),
		Data:      data,
		UpdatedAt: r.now().UTC(),
	}, nil
}

func sessionKey(id string) domain.RecordKey {
	return domain.RecordKey{Partition: domain.PartitionSession, SortKey: id}
}
