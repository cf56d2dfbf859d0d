package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Storage struct {
	Invoices interface {
		FindByAccessKey(ctx context.Context, accessKey string) (int64, bool, error)
		Upsert(ctx context.Context, invoice *Invoice, items []InvoiceItem) (int64, string, error)
		GetByAccessKey(ctx context.Context, accessKey string) (*Invoice, []InvoiceItem, error)
		List(ctx context.Context, limit int) ([]Invoice, error)
	}

	Transactions interface {
		Append(ctx context.Context, rows []CostCenterTransaction) error
		List(ctx context.Context, filter TransactionFilter) ([]CostCenterTransaction, error)
		SummaryByCostCenter(ctx context.Context, filter TransactionFilter) ([]CostCenterSummary, error)
	}

	ImportBatches interface {
		Insert(ctx context.Context, batch *ImportBatch) error
		Finalize(ctx context.Context, id uuid.UUID, status string, processed, created, updated, errorCount int) error
		GetLatest(ctx context.Context, limit int) ([]ImportBatch, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Invoices:      &InvoiceStore{db: db},
		Transactions:  &TransactionStore{db: db},
		ImportBatches: &ImportBatchStore{db: db},
	}
}
