package metrics

import "sync"

// MemoryCounters records increments in memory, for tests that assert
// on exact counter values.
type MemoryCounters struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryCounters builds an empty MemoryCounters.
func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{counts: make(map[string]int)}
}

func (m *MemoryCounters) Incr(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
}

// Get returns the current value of a named counter.
func (m *MemoryCounters) Get(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}
