package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	KittensCreated       uint64
	KittensDeleted       uint64
	KittenCacheHits      uint64
	KittenCacheMisses    uint64
	AuthFailures         map[string]uint64
	RequestCount         uint64
	RequestDurationTotal time.Duration
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	kittensCreated    uint64
	kittensDeleted    uint64
	kittenCacheHits   uint64
	kittenCacheMisses uint64
	requestCount      uint64
	requestDurationNs int64

	mu           sync.Mutex
	authFailures map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{authFailures: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	failures := make(map[string]uint64, len(m.authFailures))
	for reason, n := range m.authFailures {
		failures[reason] = n
	}
	m.mu.Unlock()

	return Snapshot{
		KittensCreated:       atomic.LoadUint64(&m.kittensCreated),
		KittensDeleted:       atomic.LoadUint64(&m.kittensDeleted),
		KittenCacheHits:      atomic.LoadUint64(&m.kittenCacheHits),
		KittenCacheMisses:    atomic.LoadUint64(&m.kittenCacheMisses),
		AuthFailures:         failures,
		RequestCount:         atomic.LoadUint64(&m.requestCount),
		RequestDurationTotal: time.Duration(atomic.LoadInt64(&m.requestDurationNs)),
	}
}

// IncKittenCreated increments kitten created counter.
func (m *InMemoryRecorder) IncKittenCreated() {
	atomic.AddUint64(&m.kittensCreated, 1)
}

// IncKittenDeleted increments kitten deleted counter.
func (m *InMemoryRecorder) IncKittenDeleted() {
	atomic.AddUint64(&m.kittensDeleted, 1)
}

// IncKittenCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncKittenCacheHit() {
	atomic.AddUint64(&m.kittenCacheHits, 1)
}

// IncKittenCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncKittenCacheMiss() {
	atomic.AddUint64(&m.kittenCacheMisses, 1)
}

// IncAuthFailure counts a rejected request by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.mu.Lock()
	m.authFailures[reason]++
	m.mu.Unlock()
}

// ObserveRequestDuration records request duration.
func (m *InMemoryRecorder) ObserveRequestDuration(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddInt64(&m.requestDurationNs, duration.Nanoseconds())
}
