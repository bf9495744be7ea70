package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/textmill/textmill/internal/model"
	"github.com/textmill/textmill/internal/service"
	"github.com/textmill/textmill/pkg/middleware"
)

// OCRHandler handles the recognition job lifecycle endpoints
type OCRHandler struct {
	svc *service.RecognitionService
}

// NewOCRHandler creates a new OCR handler
func NewOCRHandler(svc *service.RecognitionService) *OCRHandler {
	return &OCRHandler{svc: svc}
}

// LanguagesResponse carries the engine's supported language list.
type LanguagesResponse struct {
	APIResponse
	Languages []string `json:"languages,omitempty"`
}

// StatusRequest identifies the session whose job is being polled or aborted.
type StatusRequest struct {
	SessionID string `json:"sessionId"`
}

// StatusResponse carries one job status snapshot.
type StatusResponse struct {
	APIResponse
	Status *model.JobSnapshot `json:"status,omitempty"`
}

// Languages handles POST /api/v1/ocr/languages
func (h *OCRHandler) Languages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.svc.Languages(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LanguagesResponse{
		APIResponse: APIResponse{Success: true},
		Languages:   languages,
	})
}

// Recognize handles POST /api/v1/ocr/recognize
func (h *OCRHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req model.RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	correlationID := middleware.GetCorrelationID(r.Context())
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	if err := h.svc.Recognize(r.Context(), &req, correlationID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, APIResponse{Success: true})
}

// Status handles POST /api/v1/ocr/status. The envelope reports protocol
// success; a job that failed still returns success=true with the failure
// inside the snapshot.
func (h *OCRHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "the session identifier is required")
		return
	}

	snapshot, err := h.svc.Status(req.SessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		APIResponse: APIResponse{Success: true},
		Status:      &snapshot,
	})
}

// Abort handles POST /api/v1/ocr/abort
func (h *OCRHandler) Abort(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "the session identifier is required")
		return
	}

	if err := h.svc.Abort(req.SessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}
