package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type TransactionStore struct {
	db *sqlx.DB
}

// Schema-on-first-write: the transactions table is created the first time a
// report run has rows to persist.
const createTransactionsTable = `CREATE TABLE IF NOT EXISTS cost_center_transactions (
	id               BIGSERIAL PRIMARY KEY,
	cost_center_code TEXT NOT NULL DEFAULT '',
	category_code    TEXT NOT NULL DEFAULT '',
	payment_date     TEXT NOT NULL DEFAULT '',
	document_ref     TEXT NOT NULL DEFAULT '',
	issuer_name      TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	amount           NUMERIC(15,2) NOT NULL,
	processed_at     TIMESTAMPTZ NOT NULL
)`

const insertTransactionQuery = `INSERT INTO cost_center_transactions (
	cost_center_code,
	category_code,
	payment_date,
	document_ref,
	issuer_name,
	description,
	amount,
	processed_at
) VALUES (
	:cost_center_code,
	:category_code,
	:payment_date,
	:document_ref,
	:issuer_name,
	:description,
	:amount,
	:processed_at
)`

// Append bulk-inserts one run's rows with no dedup, all under a single
// transaction so a failed run leaves nothing behind.
func (s *TransactionStore) Append(ctx context.Context, rows []CostCenterTransaction) error {
	if _, err := s.db.ExecContext(ctx, createTransactionsTable); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range rows {
		if _, err := tx.NamedExecContext(ctx, insertTransactionQuery, rows[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *TransactionStore) List(ctx context.Context, filter TransactionFilter) ([]CostCenterTransaction, error) {
	query := `SELECT * FROM cost_center_transactions WHERE 1=1`
	args := []interface{}{}

	if filter.CostCenterCode != "" {
		args = append(args, filter.CostCenterCode)
		query += fmt.Sprintf(" AND cost_center_code = $%d", len(args))
	}
	if filter.CategoryCode != "" {
		args = append(args, filter.CategoryCode)
		query += fmt.Sprintf(" AND category_code = $%d", len(args))
	}

	query += " ORDER BY processed_at DESC, id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows := []CostCenterTransaction{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) SummaryByCostCenter(ctx context.Context, filter TransactionFilter) ([]CostCenterSummary, error) {
	query := `SELECT
		cost_center_code,
		COUNT(*) AS transactions,
		SUM(amount) AS total_amount
	FROM cost_center_transactions`
	args := []interface{}{}

	if filter.CategoryCode != "" {
		args = append(args, filter.CategoryCode)
		query += fmt.Sprintf(" WHERE category_code = $%d", len(args))
	}

	query += " GROUP BY cost_center_code ORDER BY total_amount DESC"

	summary := []CostCenterSummary{}
	if err := s.db.SelectContext(ctx, &summary, query, args...); err != nil {
		return nil, err
	}
	return summary, nil
}
