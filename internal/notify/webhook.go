package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// WebhookNotifier posts terminal job events to a configured URL with retry
// logic and a circuit breaker in front of the endpoint.
type WebhookNotifier struct {
	url            string
	httpClient     *http.Client
	retry          *RetryStrategy
	circuitBreaker *CircuitBreaker
}

// NewWebhookNotifier creates a webhook notifier for the given endpoint.
func NewWebhookNotifier(url string, timeout time.Duration, retryConfig RetryConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry:          NewRetryStrategy(retryConfig),
		circuitBreaker: NewCircuitBreaker(),
	}
}

// JobFinished delivers the event, retrying with exponential backoff.
// Delivery failures are logged, never surfaced to the runner.
func (n *WebhookNotifier) JobFinished(ctx context.Context, event JobEvent) {
	// Check circuit breaker
	if !n.circuitBreaker.CanAttempt() {
		slog.Warn("Circuit breaker is open, skipping webhook delivery",
			"correlation_id", event.CorrelationID,
			"webhook_url", n.url,
			"circuit_state", n.circuitBreaker.GetStateName(),
		)
		return
	}

	for attempt := 1; attempt <= n.retry.GetMaxAttempts(); attempt++ {
		statusCode, err := n.deliver(ctx, event)

		if err == nil && statusCode >= 200 && statusCode < 300 {
			slog.Info("Webhook delivered successfully",
				"correlation_id", event.CorrelationID,
				"webhook_url", n.url,
				"attempt", attempt,
				"status_code", statusCode,
			)
			n.circuitBreaker.RecordSuccess()
			return
		}

		if !n.retry.ShouldRetry(attempt, statusCode, err) {
			slog.Error("Webhook delivery failed, no retry",
				"correlation_id", event.CorrelationID,
				"webhook_url", n.url,
				"attempt", attempt,
				"status_code", statusCode,
				"error", err,
			)
			n.circuitBreaker.RecordFailure()
			return
		}

		if attempt < n.retry.GetMaxAttempts() {
			delay := n.retry.CalculateDelay(attempt)
			slog.Warn("Webhook delivery failed, retrying",
				"correlation_id", event.CorrelationID,
				"webhook_url", n.url,
				"attempt", attempt,
				"next_retry_ms", delay.Milliseconds(),
				"error", err,
			)

			select {
			case <-time.After(delay):
				// Continue to next attempt
			case <-ctx.Done():
				return
			}
		}
	}

	slog.Error("Webhook delivery failed after all retries",
		"correlation_id", event.CorrelationID,
		"webhook_url", n.url,
		"attempts", n.retry.GetMaxAttempts(),
	)
	n.circuitBreaker.RecordFailure()
}

// deliver performs a single delivery attempt.
func (n *WebhookNotifier) deliver(ctx context.Context, event JobEvent) (int, error) {
	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount of the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// CircuitBreakerState returns the current circuit breaker state name.
func (n *WebhookNotifier) CircuitBreakerState() string {
	return n.circuitBreaker.GetStateName()
}
