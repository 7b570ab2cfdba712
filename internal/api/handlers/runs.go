package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/valueinvest/valueinvest/internal/storage"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// RunsHandler handles persisted screening run endpoints
type RunsHandler struct {
	repo   *storage.Repository // nil when persistence is not configured
	logger *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(repo *storage.Repository, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		repo:   repo,
		logger: log,
	}
}

// ListRuns returns the most recent screening runs
// GET /api/v1/runs?limit=20
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.repo.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list screening runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(runs),
		"runs":    runs,
	})
}

// GetRun returns one screening run with all of its results
// GET /api/v1/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	out, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load screening run")
		respondError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    out,
	})
}
