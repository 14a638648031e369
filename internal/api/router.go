package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/SNS-EUGENE/busansuper-payments/internal/engine"
	"github.com/SNS-EUGENE/busansuper-payments/internal/ingestion"
	"github.com/SNS-EUGENE/busansuper-payments/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	eng *engine.Engine,
	ingestionSvc *ingestion.Service,
	runRepo *repository.RunRepo,
	log *logrus.Logger,
) http.Handler {
	h := &Handlers{
		engine:       eng,
		ingestionSvc: ingestionSvc,
		runRepo:      runRepo,
		log:          log,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Reconciliation runs.
		r.Post("/runs", h.TriggerRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/runs/{id}/vendors", h.ListRunVendors)
		r.Get("/runs/{id}/unmatched", h.ListRunUnmatched)

		// Vendor settlements.
		r.Get("/vendors/top", h.TopVendors)
	})

	return r
}
