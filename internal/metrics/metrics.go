// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Auth failure reasons reported to IncAuthFailure.
const (
	ReasonMissingToken = "missing_token"
	ReasonInvalidToken = "invalid_token"
	ReasonUnknownUser  = "unknown_user"
	ReasonBadLogin     = "bad_login"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Kitten metrics
	IncKittenCreated()
	IncKittenDeleted()
	IncKittenCacheHit()
	IncKittenCacheMiss()

	// Auth metrics
	IncAuthFailure(reason string)

	// HTTP metrics
	ObserveRequestDuration(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
