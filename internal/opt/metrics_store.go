package opt

import "sync"

var (
	mu    sync.Mutex
	store = map[string]Metrics{}
)

// RecordMetrics keeps the latest solve metrics for a job in memory so the
// API can report them without a store round trip.
func RecordMetrics(jobID string, m Metrics) {
	mu.Lock()
	store[jobID] = m
	mu.Unlock()
}

// GetMetrics returns the recorded metrics for a job, if any.
func GetMetrics(jobID string) (Metrics, bool) {
	mu.Lock()
	defer mu.Unlock()
	m, ok := store[jobID]
	return m, ok
}
