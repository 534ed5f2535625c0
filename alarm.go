package caqtipool

import "time"

// AlarmHandle identifies one scheduled callback so it can be cancelled.
// Unschedule must be idempotent and, once it returns, guarantee no
// further observable effect from the callback it cancelled.
type AlarmHandle interface {
	Unschedule()
}

// Alarm schedules at most one pending callback at a wall-clock instant.
// The pool assumes at most one alarm is in flight per Pool at a time.
// A conforming implementation without timers may use NoopAlarm, at the
// cost of idle-age expiry degrading to opportunistic (only reconciled
// on the next release).
type Alarm interface {
	Schedule(instant time.Time, callback func()) AlarmHandle
}

// TimerAlarm is the default Alarm, backed by time.AfterFunc.
type TimerAlarm struct{}

func (TimerAlarm) Schedule(instant time.Time, callback func()) AlarmHandle {
	d := time.Until(instant)
	if d < 0 {
		d = 0
	}
	return &timerHandle{t: time.AfterFunc(d, callback)}
}

type timerHandle struct {
	t *time.Timer
}

func (h *timerHandle) Unschedule() {
	h.t.Stop()
}

// NoopAlarm never fires; idle-age expiry then only runs opportunistically,
// triggered by subsequent releases.
type NoopAlarm struct{}

func (NoopAlarm) Schedule(time.Time, func()) AlarmHandle { return noopHandle{} }

type noopHandle struct{}

func (noopHandle) Unschedule() {}
