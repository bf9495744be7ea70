package handler

import (
	"net/http"
	"time"

	"github.com/textmill/textmill/internal/service"
)

// HealthHandler handles service health and readiness checks
type HealthHandler struct {
	svc       *service.RecognitionService
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc *service.RecognitionService, version string) *HealthHandler {
	return &HealthHandler{
		svc:       svc,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	ActiveJobs    int    `json:"active_jobs"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Ready      bool `json:"ready"`
	ActiveJobs int  `json:"active_jobs"`
}

// Health returns the service health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ActiveJobs:    h.svc.ActiveJobs(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	writeJSON(w, http.StatusOK, response)
}

// Ready returns the service readiness status
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	response := ReadyResponse{
		Ready:      true,
		ActiveJobs: h.svc.ActiveJobs(),
	}

	writeJSON(w, http.StatusOK, response)
}
