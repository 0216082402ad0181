package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncHTTPRequest is a no-op.
func (n *NoopRecorder) IncHTTPRequest(status int) {}

// IncAIRequest is a no-op.
func (n *NoopRecorder) IncAIRequest(model, status string) {}

// ObserveAIRequestDuration is a no-op.
func (n *NoopRecorder) ObserveAIRequestDuration(model string, duration time.Duration) {}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncConversationCreated is a no-op.
func (n *NoopRecorder) IncConversationCreated() {}

// IncMessageSaved is a no-op.
func (n *NoopRecorder) IncMessageSaved(role string) {}
