package core

import "time"

// Clock abstracts "now" so time-dependent logic (the overtime sweep) can be
// tested deterministically and deployed across time zones.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func NewClock() Clock { return realClock{} }
