package service

import "time"

// Clock provides the time passes are stamped with, so tests can fix it.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock returns FixedTime and then advances it by Step on each call.
type TestClock struct {
	FixedTime time.Time
	Step      time.Duration
}

// Now returns the current fixed time and advances it.
func (t *TestClock) Now() time.Time {
	now := t.FixedTime
	t.FixedTime = t.FixedTime.Add(t.Step)
	return now
}
