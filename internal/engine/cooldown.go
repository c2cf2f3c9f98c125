package engine

import "time"

// CooldownStore tracks the last successful send per (recipient, band message)
// key. A key with no entry counts as "cooldown already elapsed", so the first
// send for any key is always permitted.
//
// The store is owned by exactly one alarm instance and is only touched from
// scheduler callbacks, which run serialized; no locking needed.
type CooldownStore struct {
	lastSent map[string]map[string]time.Time
}

// NewCooldownStore creates an empty store.
func NewCooldownStore() *CooldownStore {
	return &CooldownStore{lastSent: make(map[string]map[string]time.Time)}
}

// Elapsed reports whether the cooldown for (recipient, message) has passed at
// time now. True when no prior send exists or now-last >= cooldown.
func (s *CooldownStore) Elapsed(recipient, message string, cooldown time.Duration, now time.Time) bool {
	last, ok := s.lastSent[recipient][message]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}

// Remaining returns how much of the cooldown is left at time now. Zero when
// the cooldown has elapsed or no entry exists.
func (s *CooldownStore) Remaining(recipient, message string, cooldown time.Duration, now time.Time) time.Duration {
	last, ok := s.lastSent[recipient][message]
	if !ok {
		return 0
	}
	remaining := cooldown - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Record upserts now as the last-sent time for (recipient, message). Called
// only after a successful dispatch; failed or suppressed sends leave the
// entry untouched so the next scan retries.
func (s *CooldownStore) Record(recipient, message string, now time.Time) {
	byMessage, ok := s.lastSent[recipient]
	if !ok {
		byMessage = make(map[string]time.Time)
		s.lastSent[recipient] = byMessage
	}
	byMessage[message] = now
}

// Prune drops entries whose last-sent time is older than maxAge, and drops
// recipients left with no entries. Pure housekeeping for long-running
// processes; correctness does not depend on it.
func (s *CooldownStore) Prune(now time.Time, maxAge time.Duration) {
	for recipient, byMessage := range s.lastSent {
		for message, last := range byMessage {
			if now.Sub(last) > maxAge {
				delete(byMessage, message)
			}
		}
		if len(byMessage) == 0 {
			delete(s.lastSent, recipient)
		}
	}
}

// Len returns the number of tracked (recipient, message) keys.
func (s *CooldownStore) Len() int {
	n := 0
	for _, byMessage := range s.lastSent {
		n += len(byMessage)
	}
	return n
}
