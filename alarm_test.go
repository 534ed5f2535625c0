package caqtipool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerAlarmFires(t *testing.T) {
	a := TimerAlarm{}
	fired := make(chan struct{})
	a.Schedule(time.Now().Add(20*time.Millisecond), func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("alarm did not fire in time")
	}
}

func TestTimerAlarmUnschedule(t *testing.T) {
	a := TimerAlarm{}
	fired := make(chan struct{})
	h := a.Schedule(time.Now().Add(50*time.Millisecond), func() { close(fired) })
	h.Unschedule()

	select {
	case <-fired:
		t.Fatal("alarm fired after unschedule")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNoopAlarmNeverFires(t *testing.T) {
	a := NoopAlarm{}
	fired := false
	h := a.Schedule(time.Now(), func() { fired = true })
	h.Unschedule()
	time.Sleep(20 * time.Millisecond)
	require.False(t, fired)
}
