package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type InvoiceStore struct {
	db *sqlx.DB
}

func (s *InvoiceStore) FindByAccessKey(ctx context.Context, accessKey string) (int64, bool, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `SELECT id FROM invoices WHERE access_key = $1`, accessKey)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

const insertInvoiceQuery = `INSERT INTO invoices (
	access_key,
	number,
	emission_date,
	total_value,
	sender_tax_id,
	sender_name,
	receiver_tax_id,
	receiver_name,
	raw_document,
	status,
	imported_at,
	updated_at
) VALUES (
	:access_key,
	:number,
	:emission_date,
	:total_value,
	:sender_tax_id,
	:sender_name,
	:receiver_tax_id,
	:receiver_name,
	:raw_document,
	:status,
	:imported_at,
	:updated_at
) RETURNING id`

const updateInvoiceQuery = `UPDATE invoices SET
	number = :number,
	emission_date = :emission_date,
	total_value = :total_value,
	sender_tax_id = :sender_tax_id,
	sender_name = :sender_name,
	receiver_tax_id = :receiver_tax_id,
	receiver_name = :receiver_name,
	raw_document = :raw_document,
	status = :status,
	updated_at = :updated_at
WHERE id = :id`

const insertInvoiceItemQuery = `INSERT INTO invoice_items (
	invoice_id,
	code,
	description,
	quantity,
	unit_value,
	total_value
) VALUES (
	:invoice_id,
	:code,
	:description,
	:quantity,
	:unit_value,
	:total_value
)`

// Upsert writes one invoice and its items under a single transaction: find
// by access key, update in place or insert, then delete and reinsert the
// item set. A failure anywhere rolls the whole document back, so readers
// never observe an invoice with stale or missing items.
func (s *InvoiceStore) Upsert(ctx context.Context, invoice *Invoice, items []InvoiceItem) (int64, string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	now := time.Now()

	var id int64
	err = tx.GetContext(ctx, &id, `SELECT id FROM invoices WHERE access_key = $1`, invoice.AccessKey)

	status := StatusImported
	switch {
	case err == nil:
		status = StatusUpdated
		invoice.ID = id
		invoice.Status = status
		invoice.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, updateInvoiceQuery, invoice); err != nil {
			return 0, "", err
		}

	case errors.Is(err, sql.ErrNoRows):
		invoice.Status = status
		invoice.ImportedAt = now
		invoice.UpdatedAt = now
		rows, err := tx.NamedQuery(insertInvoiceQuery, invoice)
		if err != nil {
			return 0, "", err
		}
		if rows.Next() {
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return 0, "", err
			}
		}
		rows.Close()
		invoice.ID = id

	default:
		return 0, "", err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return 0, "", err
	}

	for i := range items {
		items[i].InvoiceID = id
		if _, err := tx.NamedExecContext(ctx, insertInvoiceItemQuery, items[i]); err != nil {
			return 0, "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return id, status, nil
}

func (s *InvoiceStore) GetByAccessKey(ctx context.Context, accessKey string) (*Invoice, []InvoiceItem, error) {
	var invoice Invoice
	err := s.db.GetContext(ctx, &invoice, `SELECT * FROM invoices WHERE access_key = $1`, accessKey)
	if err != nil {
		return nil, nil, err
	}

	var items []InvoiceItem
	err = s.db.SelectContext(ctx, &items,
		`SELECT * FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, invoice.ID)
	if err != nil {
		return nil, nil, err
	}

	return &invoice, items, nil
}

func (s *InvoiceStore) List(ctx context.Context, limit int) ([]Invoice, error) {
	invoices := []Invoice{}
	err := s.db.SelectContext(ctx, &invoices,
		`SELECT * FROM invoices ORDER BY imported_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
