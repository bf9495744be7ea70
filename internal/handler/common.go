package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/textmill/textmill/internal/model"
)

// APIResponse is the envelope shared by every API endpoint. Payload fields
// are embedded next to it by the concrete response types.
type APIResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a failed envelope with the status code matching the
// error kind.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, APIResponse{
		Success:      false,
		ErrorMessage: message,
	})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case model.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrAlreadyActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrCapacityExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, model.ErrNoActiveJob):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseQueryInt parses an integer query parameter with a default value
func parseQueryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
