// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// HTTP surface metrics
	IncHTTPRequest(status int)

	// AI provider metrics
	IncAIRequest(model, status string) // status: "success" or "error"
	ObserveAIRequestDuration(model string, duration time.Duration)

	// Account and persistence metrics
	IncUserRegistered()
	IncConversationCreated()
	IncMessageSaved(role string) // role: "user" or "assistant"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
