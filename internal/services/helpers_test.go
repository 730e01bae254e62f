package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sessionwatch/internal/domain"
)

// memStore is an in-memory RecordStore for tests.
type memStore struct {
	mu      sync.Mutex
	records map[domain.RecordKey]*domain.Record
	fail    map[string]error // if set for a sort key, writes to that key return the error
	listErr error
	writes  int
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[domain.RecordKey]*domain.Record),
		fail:    make(map[string]error),
	}
}

func (m *memStore) ListByPartition(ctx context.Context, partition string) ([]*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domain.Record, 0)
	for k, rec := range m.records {
		if k.Partition == partition {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.SortKey < out[j].Key.SortKey })
	return out, nil
}

func (m *memStore) Insert(ctx context.Context, rec *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[rec.Key.SortKey]; err != nil {
		return err
	}
	if _, ok := m.records[rec.Key]; ok {
		return domain.ErrConflict
	}
	m.records[rec.Key] = rec
	m.writes++
	return nil
}

func (m *memStore) Put(ctx context.Context, rec *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[rec.Key.SortKey]; err != nil {
		return err
	}
	m.records[rec.Key] = rec
	m.writes++
	return nil
}

func (m *memStore) Delete(ctx context.Context, key domain.RecordKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[key.SortKey]; err != nil {
		return err
	}
	if _, ok := m.records[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, key)
	m.writes++
	return nil
}

func (m *memStore) count(partition string) int {
	recs, _ := m.ListByPartition(context.Background(), partition)
	return len(recs)
}

// recordingNotifier collects every event it receives.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (r *recordingNotifier) Notify(ctx context.Context, event domain.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingNotifier) kinds() map[string]domain.ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.ChangeKind, len(r.events))
	for _, e := range r.events {
		out[e.SessionID] = e.Kind
	}
	return out
}

// Portal tag UIDs used by the fixtures.
const (
	roleParentUID  = "22A77ABD-348D-4E44-800F-846017E75A5D"
	levelParentUID = "2634F5B6-B8E0-4208-92C3-FAE426C930F7"
)

var levelTagUIDs = map[int]string{
	100: "0F1F69D2-692C-4B25-AEDA-89A0919B8167",
	200: "79C488FF-B9FC-471C-992C-DE6C35671BDE",
	300: "2CABCC3D-F2BB-490C-9265-8CBB7660C579",
	400: "6F2C43D3-196B-4957-82C5-9F46BAC3DE5E",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func roleTag(name string) map[string]any {
	return map[string]any{
		"scheduleTagUid": "role-" + name,
		"tagName":        name,
		"parentTagName":  "Role",
		"parentTagUid":   roleParentUID,
	}
}

func levelTag(level int) map[string]any {
	return map[string]any{
		"scheduleTagUid": levelTagUIDs[level],
		"tagName":        "level",
		"parentTagName":  "Level",
		"parentTagUid":   levelParentUID,
	}
}

// rawSession returns a valid portal record. Entries in override replace or add
// top-level fields.
func rawSession(t *testing.T, id string, level int, override map[string]any) json.RawMessage {
	t.Helper()
	doc := map[string]any{
		"sessionUid":       id,
		"thirdPartyID":     "SVS" + id,
		"sessionType":      "Breakout Session",
		"title":            "Session " + id,
		"description":      "About " + id,
		"trackName":        "Breakout Session",
		"scheduleTrackUid": "track-1",
		"scheduleUid":      "schedule-1",
		"tags":             []any{levelTag(level), roleTag("Developer")},
		"venueName":        "Venetian",
		"hideTime":         0,
		"speakers":         []any{},
	}
	for k, v := range override {
		doc[k] = v
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return b
}

// session returns the normalized form of rawSession.
func session(t *testing.T, id string, level int, override map[string]any) *domain.Session {
	t.Helper()
	var s domain.Session
	require.NoError(t, json.Unmarshal(rawSession(t, id, level, override), &s))
	return domain.NewSession(s, nil)
}

// seed stores sessions directly.
func seed(t *testing.T, store *memStore, sessions ...*domain.Session) {
	t.Helper()
	repo := NewSessionRepository(store, discardLogger())
	for _, s := range sessions {
		require.NoError(t, repo.InsertSession(context.Background(), s))
	}
	store.writes = 0
}

// staticSource is a SessionSource returning fixed records.
type staticSource struct {
	records []json.RawMessage
	err     error
	calls   int
}

func (s *staticSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	s.calls++
	return s.records, s.err
}
