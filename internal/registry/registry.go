// Package registry tracks the at-most-one recognition job each client
// session may have in flight, and enforces the process-wide ceiling on
// concurrently admitted jobs.
package registry

import (
	"sync"

	"github.com/textmill/textmill/internal/model"
)

// entry pairs a session with its job status and the per-request context the
// asynchronous runner needs.
type entry struct {
	status        *model.JobStatus
	correlationID string
}

// Registry maps a session identifier to at most one JobStatus. All operations
// run under a single mutex held only for O(1) map work; this is the sole
// serialization point between request threads and background runners.
type Registry struct {
	mu      sync.Mutex
	ceiling int
	jobs    map[string]*entry
}

// New creates a registry admitting at most ceiling concurrent jobs. A ceiling
// below one admits a single job at a time.
func New(ceiling int) *Registry {
	if ceiling < 1 {
		ceiling = 1
	}
	return &Registry{
		ceiling: ceiling,
		jobs:    make(map[string]*entry),
	}
}

// Register admits a new job for the session and returns its fresh status
// record. An existing aborted or terminal entry is evicted first; an existing
// live entry fails the call with ErrAlreadyActive. When the number of live
// entries has reached the ceiling the call fails with ErrCapacityExceeded.
func (r *Registry) Register(sessionID, correlationID string) (*model.JobStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[sessionID]; ok {
		phase := existing.status.Phase()
		if phase != model.PhaseAborted && !phase.Terminal() {
			return nil, model.ErrAlreadyActive
		}
		delete(r.jobs, sessionID)
	}

	if len(r.jobs) >= r.ceiling {
		return nil, model.ErrCapacityExceeded
	}

	status := model.NewJobStatus()
	r.jobs[sessionID] = &entry{
		status:        status,
		correlationID: correlationID,
	}
	return status, nil
}

// Lookup returns the session's job status, or ErrNoActiveJob when absent.
func (r *Registry) Lookup(sessionID string) (*model.JobStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.jobs[sessionID]
	if !ok {
		return nil, model.ErrNoActiveJob
	}
	return existing.status, nil
}

// CorrelationID returns the correlation identifier recorded at admission.
func (r *Registry) CorrelationID(sessionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[sessionID]; ok {
		return existing.correlationID
	}
	return ""
}

// EvictIfFinished removes the session's entry iff its phase is Finished.
// Called after every successful status poll.
func (r *Registry) EvictIfFinished(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.jobs[sessionID]
	if !ok {
		return
	}
	if existing.status.Phase().Terminal() {
		delete(r.jobs, sessionID)
	}
}

// RequestAbort flips the cooperative abort flag on the session's job. The
// flag is observed by the runner at the engine's next progress report.
func (r *Registry) RequestAbort(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.jobs[sessionID]
	if !ok {
		return model.ErrNoActiveJob
	}
	existing.status.RequestAbort()
	return nil
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
