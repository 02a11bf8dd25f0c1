package service

import "time"

// Clock supplies the current time to every advance/ceiling check so
// tests can pin "now" without touching global state.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock used in production wiring.
func SystemClock() Clock { return systemClock{} }
