package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	StatusImported = "imported"
	StatusUpdated  = "updated"
)

var (
	BatchStatusInProgress = "in_progress"
	BatchStatusSuccess    = "success"
	BatchStatusPartial    = "partial"
	BatchStatusFailure    = "failure"
)

var (
	BatchKindNFe    = "nfe"
	BatchKindNFeZip = "nfe_zip"
	BatchKindERP    = "erp"
)

// Invoice represents the 'invoices' table, keyed naturally by access_key.
type Invoice struct {
	ID            int64           `db:"id" json:"id"`
	AccessKey     string          `db:"access_key" json:"access_key"`
	Number        string          `db:"number" json:"number"`
	EmissionDate  time.Time       `db:"emission_date" json:"emission_date"`
	TotalValue    decimal.Decimal `db:"total_value" json:"total_value"`
	SenderTaxID   string          `db:"sender_tax_id" json:"sender_tax_id"`
	SenderName    string          `db:"sender_name" json:"sender_name"`
	ReceiverTaxID string          `db:"receiver_tax_id" json:"receiver_tax_id"`
	ReceiverName  string          `db:"receiver_name" json:"receiver_name"`
	RawDocument   string          `db:"raw_document" json:"-"`
	Status        string          `db:"status" json:"status"`
	ImportedAt    time.Time       `db:"imported_at" json:"imported_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// InvoiceItem represents the 'invoice_items' table. Items belong to exactly
// one invoice and are replaced wholesale on every reimport.
type InvoiceItem struct {
	ID          int64           `db:"id" json:"id"`
	InvoiceID   int64           `db:"invoice_id" json:"invoice_id"`
	Code        string          `db:"code" json:"code"`
	Description string          `db:"description" json:"description"`
	Quantity    float64         `db:"quantity" json:"quantity"`
	UnitValue   decimal.Decimal `db:"unit_value" json:"unit_value"`
	TotalValue  decimal.Decimal `db:"total_value" json:"total_value"`
}

// CostCenterTransaction represents the 'cost_center_transactions' table.
// Append-only: no natural key, no update path.
type CostCenterTransaction struct {
	ID             int64           `db:"id" json:"id"`
	CostCenterCode string          `db:"cost_center_code" json:"cost_center_code"`
	CategoryCode   string          `db:"category_code" json:"category_code"`
	PaymentDate    string          `db:"payment_date" json:"payment_date"`
	DocumentRef    string          `db:"document_ref" json:"document_ref"`
	IssuerName     string          `db:"issuer_name" json:"issuer_name"`
	Description    string          `db:"description" json:"description"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	ProcessedAt    time.Time       `db:"processed_at" json:"processed_at"`
}

// ImportBatch represents the 'import_batches' table: one row per import run
// with its per-file counters.
type ImportBatch struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	Kind       string       `db:"kind" json:"kind"`
	SourceFile string       `db:"source_file" json:"source_file"`
	Processed  int          `db:"processed" json:"processed"`
	Created    int          `db:"created" json:"created"`
	Updated    int          `db:"updated" json:"updated"`
	Errors     int          `db:"errors" json:"errors"`
	Status     string       `db:"status" json:"status"`
	StartedAt  time.Time    `db:"started_at" json:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at" json:"finished_at"`
}

// CostCenterSummary is the grouped query result for the summary endpoint.
type CostCenterSummary struct {
	CostCenterCode string          `db:"cost_center_code" json:"cost_center_code"`
	Transactions   int64           `db:"transactions" json:"transactions"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
}

// TransactionFilter narrows transaction queries.
type TransactionFilter struct {
	CostCenterCode string
	CategoryCode   string
	Limit          int
}
