package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/SNS-EUGENE/busansuper-payments/internal/engine"
	"github.com/SNS-EUGENE/busansuper-payments/internal/ingestion"
	"github.com/SNS-EUGENE/busansuper-payments/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	engine       *engine.Engine
	ingestionSvc *ingestion.Service
	runRepo      *repository.RunRepo
	log          *logrus.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithField("component", "api").Errorf("encode error: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- TriggerRun ---

// TriggerRun loads the workbook exports from the configured data directory,
// runs the reconciliation pipeline and persists the report.
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	feeds, directory, err := h.ingestionSvc.LoadFeeds()
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "load feeds: "+err.Error())
		return
	}

	var products engine.ProductDirectory
	if directory != nil {
		products = directory
	}

	report, err := h.engine.Run(feeds, products)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrMissingFeed) {
			status = http.StatusUnprocessableEntity
		}
		h.writeError(w, status, err.Error())
		return
	}

	if err := h.runRepo.InsertRun(report); err != nil {
		h.writeError(w, http.StatusInternalServerError, "persist run: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":    report.RunID,
		"counts":    report.Counts,
		"warnings":  report.Warnings,
		"fee_audit": report.FeeAudit,
	})
}

// --- ListRuns ---

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)

	runs, err := h.runRepo.ListRuns(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"limit": limit,
	})
}

// --- GetRun ---

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}

// --- ListRunVendors ---

func (h *Handlers) ListRunVendors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	vendors, err := h.runRepo.ListVendors(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  id,
		"vendors": vendors,
		"total":   len(vendors),
	})
}

// --- ListRunUnmatched ---

func (h *Handlers) ListRunUnmatched(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	side := r.URL.Query().Get("side")
	if side != "" && side != "pos" && side != "settlement" {
		h.writeError(w, http.StatusBadRequest, "side must be pos or settlement")
		return
	}

	records, err := h.runRepo.ListUnmatched(id, side)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":    id,
		"unmatched": records,
		"total":     len(records),
	})
}

// --- TopVendors ---

func (h *Handlers) TopVendors(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 10)

	vendors, err := h.runRepo.TopVendors(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"vendors": vendors,
		"limit":   limit,
	})
}
