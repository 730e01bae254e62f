package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sessionwatch/internal/domain"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS session_records (
	pk         TEXT        NOT NULL,
	sk         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pk, sk)
)`

type recordRepository struct {
	DB *sql.DB
}

// NewRecordRepository returns a RecordStore backed by the session_records table.
func NewRecordRepository(db *sql.DB) domain.RecordStore {
	return &recordRepository{
		DB: db,
	}
}

// Open connects to PostgreSQL through the lib/pq driver and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the session_records table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate session_records: %w", err)
	}
	return nil
}

func (r *recordRepository) ListByPartition(ctx context.Context, partition string) ([]*domain.Record, error) {
	query := `
		SELECT pk, sk, data, updated_at
		FROM session_records
		WHERE pk = $1
		ORDER BY sk COLLATE "C"
	`
	rows, err := r.DB.QueryContext(ctx, query, partition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]*domain.Record, 0)
	for rows.Next() {
		rec := &domain.Record{}
		var data []byte
		var updatedAt time.Time
		if err := rows.Scan(&rec.Key.Partition, &rec.Key.SortKey, &data, &updatedAt); err != nil {
			return nil, err
		}
		rec.Data = data
		rec.UpdatedAt = updatedAt
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *recordRepository) Insert(ctx context.Context, rec *domain.Record) error {
	query := `
		INSERT INTO session_records (pk, sk, data, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.DB.ExecContext(ctx, query, rec.Key.Partition, rec.Key.SortKey, []byte(rec.Data), rec.UpdatedAt)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == uniqueViolation {
			return fmt.Errorf("%s/%s: %w", rec.Key.Partition, rec.Key.SortKey, domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *recordRepository) Put(ctx context.Context, rec *domain.Record) error {
	query := `
		INSERT INTO session_records (pk, sk, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pk, sk) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, rec.Key.Partition, rec.Key.SortKey, []byte(rec.Data), rec.UpdatedAt)
	return err
}

func (r *recordRepository) Delete(ctx context.Context, key domain.RecordKey) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM session_records WHERE pk = $1 AND sk = $2`, key.Partition, key.SortKey)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
