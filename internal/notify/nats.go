package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectJobFinished is the subject terminal job events are published on.
const SubjectJobFinished = "ocr.job.finished"

// NATSNotifier publishes terminal job events as JSON messages.
type NATSNotifier struct {
	nc *nats.Conn
}

// ConnectNATS dials the NATS server and returns a notifier over the
// connection.
func ConnectNATS(url string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSNotifier{nc: nc}, nil
}

// JobFinished publishes the event; publish failures are logged and dropped.
func (n *NATSNotifier) JobFinished(ctx context.Context, event JobEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal job event", "error", err)
		return
	}
	if err := n.nc.Publish(SubjectJobFinished, b); err != nil {
		slog.Error("Failed to publish job event",
			"subject", SubjectJobFinished,
			"correlation_id", event.CorrelationID,
			"error", err,
		)
	}
}

// Close drains the connection.
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		_ = n.nc.Drain()
	}
}
