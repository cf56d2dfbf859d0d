package main

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lronetto/fortanks1-sub000/internal/response"
	"github.com/lronetto/fortanks1-sub000/internal/store"
)

type ListInvoicesResponse = response.APIResponse[[]store.Invoice]
type GetInvoiceResponse = response.APIResponse[*InvoiceWithItems]

type InvoiceWithItems struct {
	store.Invoice
	Items []store.InvoiceItem `json:"items"`
}

// @Summary		List invoices
// @Description	Latest imported fiscal documents.
// @Tags			Invoices
// @Produce		json
// @Param			limit	query		int	false	"Limit the number of results"	default(50)
// @Success		200		{object}	ListInvoicesResponse
// @Failure		500		{object}	response.ErrorResponse
// @Router			/invoices [get]
func (app *application) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	invoices, err := app.store.Invoices.List(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list invoices: "+err.Error())
		return
	}

	resp := &ListInvoicesResponse{
		Success: true,
		Data:    invoices,
		Message: "Successfully retrieved invoices",
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get invoice by access key
// @Description	One fiscal document with its line items.
// @Tags			Invoices
// @Produce		json
// @Param			accessKey	path		string	true	"44-digit access key"
// @Success		200			{object}	GetInvoiceResponse
// @Failure		404			{object}	response.ErrorResponse
// @Router			/invoices/{accessKey} [get]
func (app *application) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	accessKey := chi.URLParam(r, "accessKey")

	invoice, items, err := app.store.Invoices.GetByAccessKey(r.Context(), accessKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to get invoice: "+err.Error())
		return
	}

	resp := &GetInvoiceResponse{
		Success: true,
		Data:    &InvoiceWithItems{Invoice: *invoice, Items: items},
		Message: "Successfully retrieved invoice",
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
