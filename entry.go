package caqtipool

import "time"

// entry wraps a live resource with the bookkeeping the pool needs to
// enforce reuse limits and idle-age expiry. One entry owns exactly one
// resource; it is created on first acquisition and discarded (never
// reused) once its resource is freed.
type entry[R any] struct {
	resource   R
	usedCount  int
	usedLatest time.Time
}

func newEntry[R any](resource R, now time.Time) *entry[R] {
	return &entry[R]{resource: resource, usedCount: 0, usedLatest: now}
}

// expiry returns the instant at which this entry becomes eligible for
// idle-age expiry, and whether that instant is representable at all
// (false on overflow, in which case the caller should log and leave the
// entry un-expired rather than schedule a bogus alarm).
func (e *entry[R]) expiry(maxIdleAge time.Duration) (time.Time, bool) {
	t := e.usedLatest.Add(maxIdleAge)
	if t.Before(e.usedLatest) {
		// time.Time.Add wrapped around; treat as unrepresentable.
		return time.Time{}, false
	}
	return t, true
}
