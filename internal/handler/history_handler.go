package handler

import (
	"net/http"

	"github.com/textmill/textmill/internal/history"
)

// HistoryHandler serves the terminal job history. The repository is nil when
// history is disabled by configuration.
type HistoryHandler struct {
	repo *history.JobRepository
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(repo *history.JobRepository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// HistoryResponse carries the most recent terminal jobs, newest first.
type HistoryResponse struct {
	APIResponse
	Jobs []history.JobRecord `json:"jobs"`
}

// List handles GET /api/v1/jobs/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "job history is disabled")
		return
	}

	limit := parseQueryInt(r, "limit", 100)
	records, err := h.repo.List(r.Context(), int64(limit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []history.JobRecord{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		APIResponse: APIResponse{Success: true},
		Jobs:        records,
	})
}
