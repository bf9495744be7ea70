package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/textmill/textmill/internal/storage"
)

// maxUploadBytes bounds one uploaded page image.
const maxUploadBytes = 32 << 20

// UploadHandler receives page images into a session's working set
type UploadHandler struct {
	store *storage.Store
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store *storage.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

// UploadResponse carries the server-assigned identifier of a stored file.
type UploadResponse struct {
	APIResponse
	FileID string `json:"fileId,omitempty"`
}

// Upload handles POST /api/v1/files/upload. The request is multipart with a
// sessionId field and a file part; the response carries the identifier pages
// of a later recognition request reference.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request: "+err.Error())
		return
	}

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "the session identifier is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "the file part is missing: "+err.Error())
		return
	}
	defer file.Close()

	fileID := uuid.New().String()
	if err := h.store.Put(sessionID, fileID, file); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store the uploaded file")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		APIResponse: APIResponse{Success: true},
		FileID:      fileID,
	})
}
