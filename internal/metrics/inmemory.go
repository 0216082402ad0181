package metrics

import (
	"sync"
	"time"
)

// DurationStat accumulates a count and total for a duration series.
type DurationStat struct {
	Count   uint64
	TotalNs int64
}

// Snapshot captures current in-memory counters.
// Map keys are metric label values (status class, model name, role).
type Snapshot struct {
	HTTPRequests         map[string]uint64
	AIRequests           map[string]map[string]uint64
	AIRequestDurations   map[string]DurationStat
	UsersRegistered      uint64
	ConversationsCreated uint64
	MessagesSaved        map[string]uint64
}

// InMemoryRecorder stores metrics in memory behind a mutex.
// Labelled counters need map access, so a single lock replaces the
// atomic-per-field approach used for unlabelled counters.
type InMemoryRecorder struct {
	mu                   sync.Mutex
	httpRequests         map[string]uint64
	aiRequests           map[string]map[string]uint64
	aiRequestDurations   map[string]DurationStat
	usersRegistered      uint64
	conversationsCreated uint64
	messagesSaved        map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		httpRequests:       make(map[string]uint64),
		aiRequests:         make(map[string]map[string]uint64),
		aiRequestDurations: make(map[string]DurationStat),
		messagesSaved:      make(map[string]uint64),
	}
}

// Snapshot returns a deep copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		HTTPRequests:         make(map[string]uint64, len(m.httpRequests)),
		AIRequests:           make(map[string]map[string]uint64, len(m.aiRequests)),
		AIRequestDurations:   make(map[string]DurationStat, len(m.aiRequestDurations)),
		UsersRegistered:      m.usersRegistered,
		ConversationsCreated: m.conversationsCreated,
		MessagesSaved:        make(map[string]uint64, len(m.messagesSaved)),
	}

	for k, v := range m.httpRequests {
		snap.HTTPRequests[k] = v
	}
	for model, byStatus := range m.aiRequests {
		inner := make(map[string]uint64, len(byStatus))
		for status, count := range byStatus {
			inner[status] = count
		}
		snap.AIRequests[model] = inner
	}
	for k, v := range m.aiRequestDurations {
		snap.AIRequestDurations[k] = v
	}
	for k, v := range m.messagesSaved {
		snap.MessagesSaved[k] = v
	}

	return snap
}

// IncHTTPRequest increments the request counter for a status class ("2xx").
func (m *InMemoryRecorder) IncHTTPRequest(status int) {
	class := statusClass(status)
	m.mu.Lock()
	m.httpRequests[class]++
	m.mu.Unlock()
}

// IncAIRequest increments the AI request counter for a model and outcome.
func (m *InMemoryRecorder) IncAIRequest(model, status string) {
	m.mu.Lock()
	byStatus, ok := m.aiRequests[model]
	if !ok {
		byStatus = make(map[string]uint64)
		m.aiRequests[model] = byStatus
	}
	byStatus[status]++
	m.mu.Unlock()
}

// ObserveAIRequestDuration records one AI call duration for a model.
func (m *InMemoryRecorder) ObserveAIRequestDuration(model string, duration time.Duration) {
	m.mu.Lock()
	stat := m.aiRequestDurations[model]
	stat.Count++
	stat.TotalNs += duration.Nanoseconds()
	m.aiRequestDurations[model] = stat
	m.mu.Unlock()
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	m.mu.Lock()
	m.usersRegistered++
	m.mu.Unlock()
}

// IncConversationCreated increments the conversation counter.
func (m *InMemoryRecorder) IncConversationCreated() {
	m.mu.Lock()
	m.conversationsCreated++
	m.mu.Unlock()
}

// IncMessageSaved increments the persisted message counter for a role.
func (m *InMemoryRecorder) IncMessageSaved(role string) {
	m.mu.Lock()
	m.messagesSaved[role]++
	m.mu.Unlock()
}

// statusClass maps an HTTP status code to its class label.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
