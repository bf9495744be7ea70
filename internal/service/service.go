// Package service coordinates text recognition jobs: synchronous admission
// against the session registry, the background runner that drives a job
// through its lifecycle, and the status and abort operations clients poll
// with.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/textmill/textmill/internal/history"
	"github.com/textmill/textmill/internal/model"
	"github.com/textmill/textmill/internal/notify"
	"github.com/textmill/textmill/internal/ocr"
	"github.com/textmill/textmill/internal/registry"
	"github.com/textmill/textmill/internal/storage"
)

// ResultPathPrefix is prepended to the store-relative artifact path published
// in the job status; the router serves the store root under the same prefix.
const ResultPathPrefix = "/files/"

// HistoryRecorder persists one record per terminal job.
type HistoryRecorder interface {
	Record(ctx context.Context, record history.JobRecord) error
}

// RecognitionService is the application core behind the HTTP handlers.
type RecognitionService struct {
	registry *registry.Registry
	store    *storage.Store
	engine   ocr.Engine

	// Optional integrations; nil disables them.
	notifier    notify.Notifier
	historyRepo HistoryRecorder
}

// NewRecognitionService wires the service. notifier and historyRepo may be
// nil.
func NewRecognitionService(
	reg *registry.Registry,
	store *storage.Store,
	engine ocr.Engine,
	notifier notify.Notifier,
	historyRepo HistoryRecorder,
) *RecognitionService {
	return &RecognitionService{
		registry:    reg,
		store:       store,
		engine:      engine,
		notifier:    notifier,
		historyRepo: historyRepo,
	}
}

// Languages returns the engine's supported language list.
func (s *RecognitionService) Languages(ctx context.Context) ([]string, error) {
	return s.engine.SupportedLanguages(ctx)
}

// Recognize validates the request, admits the job into the registry and
// launches the background runner. The call returns as soon as the job is
// admitted; clients observe everything after that through status polls.
func (s *RecognitionService) Recognize(ctx context.Context, req *model.RecognizeRequest, correlationID string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	req.Normalize()

	// Reject references to files that were never uploaded before admitting
	// the job, so a bad request does not occupy the session's single slot.
	for i, page := range req.Pages {
		if !s.store.Contains(req.SessionID, page.FileID) {
			return model.NewValidationError("page %d references unknown file %q", i, page.FileID)
		}
	}

	status, err := s.registry.Register(req.SessionID, correlationID)
	if err != nil {
		return err
	}

	slog.Info("Recognition job admitted",
		"correlation_id", correlationID,
		"session_id", req.SessionID,
		"pages", len(req.Pages),
		"languages", strings.Join(req.Languages, ","),
		"result_format", string(req.ResultFormat),
	)

	// The request context dies with the HTTP response; the job runs on its
	// own context and is stopped through the cooperative abort flag.
	go s.run(context.Background(), &job{
		req:           req,
		status:        status,
		correlationID: correlationID,
		startedAt:     time.Now().UTC(),
	})

	return nil
}

// Status returns a snapshot of the session's job and evicts the entry once
// the snapshot shows the terminal phase, freeing the session for its next
// submission.
func (s *RecognitionService) Status(sessionID string) (model.JobSnapshot, error) {
	status, err := s.registry.Lookup(sessionID)
	if err != nil {
		return model.JobSnapshot{}, err
	}
	snapshot := status.Snapshot()
	s.registry.EvictIfFinished(sessionID)
	return snapshot, nil
}

// Abort requests cooperative cancellation of the session's job. The runner
// observes the flag at the engine's next progress checkpoint.
func (s *RecognitionService) Abort(sessionID string) error {
	if err := s.registry.RequestAbort(sessionID); err != nil {
		return err
	}
	slog.Info("Abort requested",
		"correlation_id", s.registry.CorrelationID(sessionID),
		"session_id", sessionID,
	)
	return nil
}

// ActiveJobs returns the number of live registry entries, exposed through the
// readiness endpoint.
func (s *RecognitionService) ActiveJobs() int {
	return s.registry.Len()
}

// sanitizeError strips server filesystem locations from an error message
// before it becomes visible to polling clients.
func (s *RecognitionService) sanitizeError(err error) string {
	msg := err.Error()
	msg = strings.ReplaceAll(msg, s.store.Root(), "")
	if dir := s.engine.DataDirectory(); dir != "" {
		msg = strings.ReplaceAll(msg, dir, "")
	}
	return msg
}
