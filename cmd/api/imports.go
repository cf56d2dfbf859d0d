package main

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/lronetto/fortanks1-sub000/internal/fiscal"
	"github.com/lronetto/fortanks1-sub000/internal/response"
	"github.com/lronetto/fortanks1-sub000/internal/store"
)

type ImportResponse = response.APIResponse[*fiscal.Summary]
type GetImportHistoryResponse = response.APIResponse[[]store.ImportBatch]

const maxUploadBytes = 50 << 20 // 50 MB

// @Summary		Import NF-e documents
// @Description	Accepts one XML document (optionally a Base64 JSON envelope) or a ZIP batch of XMLs.
// @Tags			Imports
// @Accept			mpfd
// @Produce		json
// @Param			file	formData	file			true	"XML document or ZIP batch"
// @Success		200		{object}	ImportResponse	"Import summary"
// @Failure		400		{object}	response.ErrorResponse
// @Failure		422		{object}	response.ErrorResponse	"No importable document in the upload"
// @Router			/imports/nfe [post]
func (app *application) handleImportNFe(w http.ResponseWriter, r *http.Request) {
	file, header, err := app.openUpload(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	ctx := r.Context()
	var summary *fiscal.Summary

	if strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		// ZIP batches go through a temp file removed on every exit path.
		tmp, err := os.CreateTemp("", "nfe-batch-*.zip")
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to stage upload")
			return
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, file); err != nil {
			tmp.Close()
			writeJSONError(w, http.StatusInternalServerError, "failed to stage upload")
			return
		}
		tmp.Close()

		summary, err = app.importer.ImportZIP(ctx, tmp.Name(), header.Filename)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to read zip archive: "+err.Error())
			return
		}
	} else {
		raw, err := io.ReadAll(file)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read upload")
			return
		}

		summary, err = app.importer.ImportSingle(ctx, raw, header.Filename)
		if err != nil {
			if errors.Is(err, fiscal.ErrExtractionFailed) {
				writeJSONError(w, http.StatusUnprocessableEntity, "no importable document in upload")
				return
			}
			writeJSONError(w, http.StatusInternalServerError, "import failed: "+err.Error())
			return
		}
	}

	resp := &ImportResponse{
		Success: true,
		Data:    summary,
		Message: "Import completed",
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Import ERP cost-center report
// @Description	Accepts the ERP's legacy Excel-HTML export and appends the extracted transactions.
// @Tags			Imports
// @Accept			mpfd
// @Produce		json
// @Param			file	formData	file			true	"ERP report (.xls HTML export)"
// @Success		200		{object}	ImportResponse	"Import summary"
// @Failure		400		{object}	response.ErrorResponse
// @Router			/imports/erp [post]
func (app *application) handleImportERP(w http.ResponseWriter, r *http.Request) {
	file, header, err := app.openUpload(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	summary, err := app.importer.ImportERPReport(r.Context(), raw, header.Filename)
	if err != nil {
		if errors.Is(err, fiscal.ErrExtractionFailed) {
			writeJSONError(w, http.StatusUnprocessableEntity, "report could not be decoded")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "import failed: "+err.Error())
		return
	}

	resp := &ImportResponse{
		Success: true,
		Data:    summary,
		Message: "Report processed",
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get import history
// @Description	Latest import batches with their per-file counters.
// @Tags			Imports
// @Produce		json
// @Param			limit	query		int	false	"Limit the number of results"	default(10)
// @Success		200		{object}	GetImportHistoryResponse
// @Failure		500		{object}	response.ErrorResponse
// @Router			/imports/history [get]
func (app *application) handleGetImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	batches, err := app.store.ImportBatches.GetLatest(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get import history: "+err.Error())
		return
	}

	resp := &GetImportHistoryResponse{
		Success: true,
		Data:    batches,
		Message: "Successfully retrieved latest import batches",
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart payload")
		return nil, nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing file field")
		return nil, nil, err
	}

	return file, header, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return fallback
}
