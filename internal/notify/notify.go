// Package notify delivers terminal job events to interested parties outside
// the polling protocol: a webhook endpoint, a NATS subject, or both.
package notify

import (
	"context"
	"time"
)

// JobEvent describes one recognition job reaching a terminal state.
type JobEvent struct {
	SessionID     string    `json:"session_id"`
	CorrelationID string    `json:"correlation_id"`
	Phase         string    `json:"phase"`
	PageCount     int       `json:"page_count"`
	ResultPath    string    `json:"result_path,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Notifier receives terminal job events. Implementations must not block the
// runner beyond their own delivery timeouts and must swallow delivery
// failures after logging them.
type Notifier interface {
	JobFinished(ctx context.Context, event JobEvent)
}

// Multi fans one event out to several notifiers.
type Multi []Notifier

// JobFinished delivers the event to every notifier in order.
func (m Multi) JobFinished(ctx context.Context, event JobEvent) {
	for _, n := range m {
		n.JobFinished(ctx, event)
	}
}
