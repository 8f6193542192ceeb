package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncKittenCreated is a no-op.
func (n *NoopRecorder) IncKittenCreated() {}

// IncKittenDeleted is a no-op.
func (n *NoopRecorder) IncKittenDeleted() {}

// IncKittenCacheHit is a no-op.
func (n *NoopRecorder) IncKittenCacheHit() {}

// IncKittenCacheMiss is a no-op.
func (n *NoopRecorder) IncKittenCacheMiss() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(reason string) {}

// ObserveRequestDuration is a no-op.
func (n *NoopRecorder) ObserveRequestDuration(method, route string, status int, duration time.Duration) {
}
