package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry pairs a limiter with its last access time for cleanup.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterStore keeps per-key token bucket limiters in memory. It backs
// rate limiting when Redis is not configured; state is per-process.
type LimiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	done    chan struct{}
	once    sync.Once
}

// NewLimiterStore creates a store and starts its cleanup loop.
func NewLimiterStore() *LimiterStore {
	s := &LimiterStore{
		entries: make(map[string]*limiterEntry),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Allow reports whether the request for key is within perMinute/burst.
func (s *LimiterStore) Allow(key string, perMinute, burst int) bool {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		}
		s.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	s.mu.Unlock()

	return entry.limiter.Allow()
}

// Stop terminates the cleanup loop.
func (s *LimiterStore) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

// cleanupLoop evicts limiters idle for more than 10 minutes.
func (s *LimiterStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			s.mu.Lock()
			for key, entry := range s.entries {
				if entry.lastSeen.Before(cutoff) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
