package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Partitions of the record store.
const (
	PartitionSession  = "ReInventSession"
	PartitionMutation = "SessionMutation"
)

// RecordKey is the two-part key of a stored record.
type RecordKey struct {
	Partition string `json:"PK"`
	SortKey   string `json:"SK"`
}

// Record is a JSON document stored under a RecordKey.
type Record struct {
	Key       RecordKey
	Data      json.RawMessage
	UpdatedAt time.Time
}

// RecordStore is durable key-value storage partitioned by RecordKey.Partition.
type RecordStore interface {
	// ListByPartition returns every record in the partition, ordered by sort key.
	ListByPartition(ctx context.Context, partition string) ([]*Record, error)
	// Insert writes rec only if no record with the same key exists; otherwise it returns ErrConflict.
	Insert(ctx context.Context, rec *Record) error
	// Put writes rec, overwriting any record with the same key.
	Put(ctx context.Context, rec *Record) error
	// Delete removes the record with the given key. It returns ErrNotFound if there was none.
	Delete(ctx context.Context, key RecordKey) error
}

// SessionRepository loads and persists canonical sessions.
type SessionRepository interface {
	ListSessions(ctx context.Context) ([]*Session, error)
	InsertSession(ctx context.Context, s *Session) error
	UpdateSession(ctx context.Context, s *Session) error
	RemoveSession(ctx context.Context, s *Session) error
}
