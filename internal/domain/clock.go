package domain

import "time"

// Clock provides the current time. Credential expiry is always evaluated
// against an injected Clock so tests can move time instead of minting new
// credentials.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// FromUnix converts epoch seconds, the unit of JWT NumericDate claims, to a
// UTC time without a monotonic reading.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

var (
	_ Clock = RealClock{}
	_ Clock = ClockFunc(nil)
)
