package main

import (
	"net/http"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/lronetto/fortanks1-sub000/internal/response"
	"github.com/lronetto/fortanks1-sub000/internal/store"
)

type ListTransactionsResponse = response.APIResponse[[]store.CostCenterTransaction]
type TransactionsSummaryResponse = response.APIResponse[[]store.CostCenterSummary]

func transactionFilterFromQuery(r *http.Request) store.TransactionFilter {
	return store.TransactionFilter{
		CostCenterCode: r.URL.Query().Get("cost_center"),
		CategoryCode:   r.URL.Query().Get("category"),
		Limit:          queryInt(r, "limit", 100),
	}
}

// @Summary		List cost-center transactions
// @Description	Transactions extracted from ERP reports, newest first.
// @Tags			Transactions
// @Produce		json
// @Param			cost_center	query		string	false	"Filter by cost center code (NNNN-NN)"
// @Param			category	query		string	false	"Filter by category code"
// @Param			limit		query		int		false	"Limit the number of results"	default(100)
// @Success		200			{object}	ListTransactionsResponse
// @Failure		500			{object}	response.ErrorResponse
// @Router			/transactions [get]
func (app *application) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	rows, err := app.store.Transactions.List(r.Context(), transactionFilterFromQuery(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list transactions: "+err.Error())
		return
	}

	resp := &ListTransactionsResponse{
		Success: true,
		Data:    rows,
		Message: "Successfully retrieved transactions",
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Cost-center summary
// @Description	Transaction count and amount totals grouped by cost center.
// @Tags			Transactions
// @Produce		json
// @Param			category	query		string	false	"Filter by category code"
// @Success		200			{object}	TransactionsSummaryResponse
// @Failure		500			{object}	response.ErrorResponse
// @Router			/transactions/summary [get]
func (app *application) handleGetTransactionsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := app.store.Transactions.SummaryByCostCenter(r.Context(), transactionFilterFromQuery(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get summary: "+err.Error())
		return
	}

	resp := &TransactionsSummaryResponse{
		Success: true,
		Data:    summary,
		Message: "Successfully retrieved summary",
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Export transactions as CSV
// @Description	Streams the filtered transactions as a CSV file.
// @Tags			Transactions
// @Produce		text/csv
// @Param			cost_center	query	string	false	"Filter by cost center code (NNNN-NN)"
// @Param			category	query	string	false	"Filter by category code"
// @Param			limit		query	int		false	"Limit the number of results"	default(100)
// @Success		200
// @Failure		500	{object}	response.ErrorResponse
// @Router			/transactions/export.csv [get]
func (app *application) handleExportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := app.store.Transactions.List(r.Context(), transactionFilterFromQuery(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list transactions: "+err.Error())
		return
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{
		"cost_center_code", "category_code", "payment_date",
		"document_ref", "issuer_name", "description", "amount", "processed_at",
	})
	for _, row := range rows {
		records = append(records, []string{
			row.CostCenterCode,
			row.CategoryCode,
			row.PaymentDate,
			row.DocumentRef,
			row.IssuerName,
			row.Description,
			row.Amount.StringFixed(2),
			row.ProcessedAt.Format("2006-01-02 15:04:05"),
		})
	}

	df := dataframe.LoadRecords(records, dataframe.DefaultType(series.String))
	if df.Error() != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to build export: "+df.Error().Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="cost_center_transactions.csv"`)

	if err := df.WriteCSV(w); err != nil {
		app.appLogger.Error("TransactionsExport", "CSV write failed: %v", err)
	}
}
