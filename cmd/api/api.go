package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lronetto/fortanks1-sub000/internal/fiscal"
	"github.com/lronetto/fortanks1-sub000/internal/logger"
	"github.com/lronetto/fortanks1-sub000/internal/store"
)

type application struct {
	config    config
	store     store.Storage
	importer  *fiscal.Importer
	appLogger *logger.Logger
}

type config struct {
	addr     string
	logLevel string
	db       dbConfig
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.Route("/imports", func(r chi.Router) {
			r.Post("/nfe", app.handleImportNFe)
			r.Post("/erp", app.handleImportERP)
			r.Get("/history", app.handleGetImportHistory)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", app.handleListInvoices)
			r.Get("/{accessKey}", app.handleGetInvoice)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", app.handleListTransactions)
			r.Get("/summary", app.handleGetTransactionsSummary)
			r.Get("/export.csv", app.handleExportTransactionsCSV)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	log.Printf("Server started on %s", app.config.addr)
	return srv.ListenAndServe()
}
