// Package fiscal orchestrates the two ingestion pipelines: NF-e invoice
// documents (XML, Base64 envelopes, ZIP batches) with idempotent upsert
// semantics, and ERP cost-center reports with append-only semantics.
package fiscal

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/lronetto/fortanks1-sub000/internal/fiscal/decode"
	"github.com/lronetto/fortanks1-sub000/internal/fiscal/erp"
	"github.com/lronetto/fortanks1-sub000/internal/fiscal/nfe"
	"github.com/lronetto/fortanks1-sub000/internal/fiscal/types"
	"github.com/lronetto/fortanks1-sub000/internal/logger"
	"github.com/lronetto/fortanks1-sub000/internal/store"
)

// ErrExtractionFailed marks a document that produced no importable record:
// undecodable bytes or no recoverable access key. It is fatal for that one
// document only; batch processing continues past it.
var ErrExtractionFailed = errors.New("document extraction failed")

type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeFailed
)

// Summary accumulates the per-batch counters reported back to the caller.
// A batch never fails as a whole because individual files failed.
type Summary struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Processed int       `json:"processed"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Errors    int       `json:"errors"`
}

type Importer struct {
	storage   *store.Storage
	appLogger *logger.Logger
}

func NewImporter(storage *store.Storage, appLogger *logger.Logger) *Importer {
	return &Importer{storage: storage, appLogger: appLogger}
}

// ImportDocument runs one raw payload through decode, envelope detection,
// extraction and upsert. Storage errors propagate as-is (the transaction was
// already rolled back); everything else either succeeds or comes back as
// ErrExtractionFailed.
func (imp *Importer) ImportDocument(ctx context.Context, raw []byte) (Outcome, error) {
	const component = "DocumentImporter"

	text, charset, err := decode.DecodeBytes(raw)
	if err != nil {
		imp.appLogger.Error(component, "Undecodable input: %v", err)
		return OutcomeFailed, ErrExtractionFailed
	}
	imp.appLogger.Debug(component, "Input decoded: charset=%s bytes=%d", charset, len(raw))

	text = resolveEmbedded(text, imp.appLogger)

	doc, ok := nfe.Extract(text, imp.appLogger)
	if !ok {
		return OutcomeFailed, ErrExtractionFailed
	}

	// Advisory only: the authoritative exists-check runs inside the upsert
	// transaction. This one just makes reimports visible in the logs before
	// the write happens.
	if existingID, exists, err := imp.storage.Invoices.FindByAccessKey(ctx, doc.AccessKey); err == nil && exists {
		imp.appLogger.Debug(component, "Access key already imported, will update: key=%s id=%d",
			doc.AccessKey, existingID)
	}

	invoice, items := toStoreInvoice(doc)
	id, status, err := imp.storage.Invoices.Upsert(ctx, invoice, items)
	if err != nil {
		imp.appLogger.Error(component, "Upsert failed: key=%s error=%v", doc.AccessKey, err)
		return OutcomeFailed, err
	}

	imp.appLogger.Info(component, "Document persisted: key=%s id=%d status=%s items=%d",
		doc.AccessKey, id, status, len(items))

	if status == store.StatusUpdated {
		return OutcomeUpdated, nil
	}
	return OutcomeCreated, nil
}

// resolveEmbedded swaps the input for an embedded Base64 document when one
// is detected, either inside a JSON envelope or as a bare Base64 string.
// Negative detection leaves the text untouched.
func resolveEmbedded(text string, appLogger *logger.Logger) string {
	const component = "DocumentImporter"
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "{") {
		var env decode.Envelope
		if err := json.Unmarshal([]byte(trimmed), &env); err == nil {
			if embedded, field, ok := decode.FindEmbeddedXML(env); ok {
				appLogger.Debug(component, "Embedded document found in envelope field %q", field)
				return embedded
			}
		}
		return text
	}

	if embedded, ok := decode.FindEmbeddedXMLString(trimmed); ok {
		appLogger.Debug(component, "Bare Base64 payload detected")
		return embedded
	}
	return text
}

// ImportSingle wraps one document import with batch bookkeeping.
func (imp *Importer) ImportSingle(ctx context.Context, raw []byte, sourceName string) (*Summary, error) {
	batch, tracked := imp.beginBatch(ctx, store.BatchKindNFe, sourceName)
	summary := &Summary{BatchID: batch.ID, Processed: 1}

	outcome, err := imp.ImportDocument(ctx, raw)
	switch outcome {
	case OutcomeCreated:
		summary.Created = 1
	case OutcomeUpdated:
		summary.Updated = 1
	default:
		summary.Errors = 1
	}

	imp.finishBatch(ctx, batch.ID, tracked, summary)
	return summary, err
}

// ImportZIP walks the archive's .xml entries strictly sequentially, one
// transaction per document. A failure on entry N never rolls back entries
// 1..N-1, and never aborts the batch.
func (imp *Importer) ImportZIP(ctx context.Context, zipPath, sourceName string) (*Summary, error) {
	const component = "BatchImporter"

	batch, tracked := imp.beginBatch(ctx, store.BatchKindNFeZip, sourceName)
	summary := &Summary{BatchID: batch.ID}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		imp.appLogger.Error(component, "Failed to open zip file: path=%s error=%v", zipPath, err)
		summary.Errors = 1
		imp.finishBatch(ctx, batch.ID, tracked, summary)
		return summary, err
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			continue
		}

		raw, err := readZipEntry(f)
		if err != nil {
			imp.appLogger.Warn(component, "Failed to read zip entry: entry=%s error=%v", f.Name, err)
			summary.Processed++
			summary.Errors++
			continue
		}

		outcome, err := imp.ImportDocument(ctx, raw)
		summary.Processed++
		switch outcome {
		case OutcomeCreated:
			summary.Created++
		case OutcomeUpdated:
			summary.Updated++
		default:
			imp.appLogger.Warn(component, "Entry failed: entry=%s error=%v", f.Name, err)
			summary.Errors++
		}
	}

	imp.appLogger.Info(component, "Batch completed: processed=%d created=%d updated=%d errors=%d",
		summary.Processed, summary.Created, summary.Updated, summary.Errors)

	imp.finishBatch(ctx, batch.ID, tracked, summary)
	return summary, nil
}

// ImportERPReport decodes and extracts one cost-center report and appends
// its transactions. Row counts land in the summary; Processed equals the
// number of rows the report yielded.
func (imp *Importer) ImportERPReport(ctx context.Context, raw []byte, sourceName string) (*Summary, error) {
	const component = "ReportImporter"

	batch, tracked := imp.beginBatch(ctx, store.BatchKindERP, sourceName)
	summary := &Summary{BatchID: batch.ID}

	text, charset, err := decode.DecodeBytes(raw)
	if err != nil {
		imp.appLogger.Error(component, "Undecodable report: %v", err)
		summary.Errors = 1
		imp.finishBatch(ctx, batch.ID, tracked, summary)
		return summary, ErrExtractionFailed
	}
	imp.appLogger.Debug(component, "Report decoded: charset=%s", charset)

	rows := erp.Extract(text, imp.appLogger)
	summary.Processed = len(rows)
	summary.Created = len(rows)

	if len(rows) > 0 {
		storeRows := make([]store.CostCenterTransaction, 0, len(rows))
		for _, row := range rows {
			storeRows = append(storeRows, toStoreTransaction(row))
		}
		if err := imp.storage.Transactions.Append(ctx, storeRows); err != nil {
			imp.appLogger.Error(component, "Failed to append transactions: %v", err)
			summary.Created = 0
			summary.Errors = len(rows)
			imp.finishBatch(ctx, batch.ID, tracked, summary)
			return summary, err
		}
	}

	imp.finishBatch(ctx, batch.ID, tracked, summary)
	return summary, nil
}

func (imp *Importer) beginBatch(ctx context.Context, kind, sourceName string) (*store.ImportBatch, bool) {
	const component = "BatchImporter"

	batch := &store.ImportBatch{
		ID:         uuid.New(),
		Kind:       kind,
		SourceFile: sourceName,
		Status:     store.BatchStatusInProgress,
	}
	if err := imp.storage.ImportBatches.Insert(ctx, batch); err != nil {
		// The import itself still runs; only the run history is lost.
		imp.appLogger.Error(component, "Failed to record batch start: %v", err)
		return batch, false
	}
	return batch, true
}

func (imp *Importer) finishBatch(ctx context.Context, id uuid.UUID, tracked bool, summary *Summary) {
	const component = "BatchImporter"
	if !tracked {
		return
	}

	status := store.BatchStatusSuccess
	if summary.Errors > 0 {
		status = store.BatchStatusPartial
		if summary.Errors == summary.Processed || summary.Processed == 0 {
			status = store.BatchStatusFailure
		}
	}

	err := imp.storage.ImportBatches.Finalize(ctx, id, status,
		summary.Processed, summary.Created, summary.Updated, summary.Errors)
	if err != nil {
		imp.appLogger.Error(component, "Failed to record batch result: id=%s error=%v", id, err)
	}
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func toStoreInvoice(doc *types.FiscalDocument) (*store.Invoice, []store.InvoiceItem) {
	invoice := &store.Invoice{
		AccessKey:     doc.AccessKey,
		Number:        doc.Number,
		EmissionDate:  doc.EmissionDate,
		TotalValue:    doc.TotalValue,
		SenderTaxID:   doc.SenderTaxID,
		SenderName:    doc.SenderName,
		ReceiverTaxID: doc.ReceiverTaxID,
		ReceiverName:  doc.ReceiverName,
		RawDocument:   doc.RawDocument,
	}

	items := make([]store.InvoiceItem, 0, len(doc.LineItems))
	for _, li := range doc.LineItems {
		items = append(items, store.InvoiceItem{
			Code:        li.Code,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitValue:   li.UnitValue,
			TotalValue:  li.TotalValue,
		})
	}
	return invoice, items
}

func toStoreTransaction(row types.CostCenterTransaction) store.CostCenterTransaction {
	return store.CostCenterTransaction{
		CostCenterCode: row.CostCenterCode,
		CategoryCode:   row.CategoryCode,
		PaymentDate:    row.PaymentDate,
		DocumentRef:    row.DocumentRef,
		IssuerName:     row.IssuerName,
		Description:    row.Description,
		Amount:         row.Amount,
		ProcessedAt:    row.ProcessedAt,
	}
}
