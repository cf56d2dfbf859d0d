package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalDocument is one normalized NF-e tax invoice as produced by the
// extraction pipeline, keyed by its 44-digit access key.
type FiscalDocument struct {
	AccessKey     string          `json:"access_key"`
	Number        string          `json:"number"`
	EmissionDate  time.Time       `json:"emission_date"`
	TotalValue    decimal.Decimal `json:"total_value"`
	SenderTaxID   string          `json:"sender_tax_id"`
	SenderName    string          `json:"sender_name"`
	ReceiverTaxID string          `json:"receiver_tax_id"`
	ReceiverName  string          `json:"receiver_name"`
	RawDocument   string          `json:"-"`
	LineItems     []LineItem      `json:"line_items"`
}

// LineItem is owned exclusively by its FiscalDocument. On reimport the
// whole set is replaced, never merged.
type LineItem struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    float64         `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// CostCenterTransaction is one data row lifted from an ERP cost-center
// report. Rows are append-only; there is no natural key.
type CostCenterTransaction struct {
	CostCenterCode string          `json:"cost_center_code"`
	CategoryCode   string          `json:"category_code"`
	PaymentDate    string          `json:"payment_date"`
	DocumentRef    string          `json:"document_ref"`
	IssuerName     string          `json:"issuer_name"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	ProcessedAt    time.Time       `json:"processed_at"`
}
