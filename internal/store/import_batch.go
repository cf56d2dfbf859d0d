package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ImportBatchStore struct {
	db *sqlx.DB
}

const insertImportBatchQuery = `INSERT INTO import_batches (
	id,
	kind,
	source_file,
	processed,
	created,
	updated,
	errors,
	status,
	started_at
) VALUES (
	:id,
	:kind,
	:source_file,
	:processed,
	:created,
	:updated,
	:errors,
	:status,
	:started_at
)`

func (s *ImportBatchStore) Insert(ctx context.Context, batch *ImportBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.Status == "" {
		batch.Status = BatchStatusInProgress
	}
	if batch.StartedAt.IsZero() {
		batch.StartedAt = time.Now()
	}

	_, err := s.db.NamedExecContext(ctx, insertImportBatchQuery, batch)
	return err
}

func (s *ImportBatchStore) Finalize(ctx context.Context, id uuid.UUID, status string, processed, created, updated, errorCount int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE import_batches SET
		status = $2,
		processed = $3,
		created = $4,
		updated = $5,
		errors = $6,
		finished_at = $7
	WHERE id = $1`, id, status, processed, created, updated, errorCount, time.Now())
	return err
}

func (s *ImportBatchStore) GetLatest(ctx context.Context, limit int) ([]ImportBatch, error) {
	batches := []ImportBatch{}
	err := s.db.SelectContext(ctx, &batches,
		`SELECT * FROM import_batches ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return batches, nil
}
