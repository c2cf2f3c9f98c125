package engine

import "time"

// DefaultMinSendInterval is the global spacing between any two notifications
// to the same recipient when the alarm does not configure its own.
const DefaultMinSendInterval = 60 * time.Second

// RateLimiter enforces a minimum spacing between notifications to the same
// recipient, regardless of which band fired. It is a secondary gate applied
// after the cooldown store permits a send; its purpose is to stop a burst of
// different bands firing within one scan (typical on first run, when several
// forecast hours cross several bands back to back).
//
// Like CooldownStore, it is per-alarm state touched only from serialized
// scheduler callbacks.
type RateLimiter struct {
	minInterval time.Duration
	lastSend    map[string]time.Time
}

// NewRateLimiter creates a limiter with the given minimum interval.
// A non-positive interval falls back to DefaultMinSendInterval.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = DefaultMinSendInterval
	}
	return &RateLimiter{
		minInterval: minInterval,
		lastSend:    make(map[string]time.Time),
	}
}

// Allowed reports whether a send to recipient is permitted at time now.
// True when no prior send exists or now-last >= the minimum interval.
func (r *RateLimiter) Allowed(recipient string, now time.Time) bool {
	last, ok := r.lastSend[recipient]
	if !ok {
		return true
	}
	return now.Sub(last) >= r.minInterval
}

// Record notes a successful send to recipient at time now. Entries are never
// pruned; the map is bounded by the recipient count.
func (r *RateLimiter) Record(recipient string, now time.Time) {
	r.lastSend[recipient] = now
}
