package handler

import (
	"net/http"

	"github.com/textmill/textmill/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	ocrHandler     *OCRHandler
	uploadHandler  *UploadHandler
	historyHandler *HistoryHandler
	healthHandler  *HealthHandler
	corsConfig     middleware.CORSConfig
	filesRoot      http.FileSystem
}

// NewRouter creates a new router. filesRoot is the storage root served as
// static result downloads.
func NewRouter(
	ocrHandler *OCRHandler,
	uploadHandler *UploadHandler,
	historyHandler *HistoryHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
	filesRoot http.FileSystem,
) *Router {
	return &Router{
		ocrHandler:     ocrHandler,
		uploadHandler:  uploadHandler,
		historyHandler: historyHandler,
		healthHandler:  healthHandler,
		corsConfig:     corsConfig,
		filesRoot:      filesRoot,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/v1/ocr/languages", rt.post(rt.ocrHandler.Languages))
	mux.HandleFunc("/api/v1/ocr/recognize", rt.post(rt.ocrHandler.Recognize))
	mux.HandleFunc("/api/v1/ocr/status", rt.post(rt.ocrHandler.Status))
	mux.HandleFunc("/api/v1/ocr/abort", rt.post(rt.ocrHandler.Abort))
	mux.HandleFunc("/api/v1/files/upload", rt.post(rt.uploadHandler.Upload))
	mux.HandleFunc("/api/v1/jobs/history", rt.get(rt.historyHandler.List))

	// Result artifact downloads
	mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(rt.filesRoot)))

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// post restricts a handler to the POST method
func (rt *Router) post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

// get restricts a handler to the GET method
func (rt *Router) get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}
