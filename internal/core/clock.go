package core

import "time"

// Millis is a monotonic millisecond timestamp. It wraps roughly every 49
// days, so elapsed time must always be computed with wrapping subtraction
// (uint32 arithmetic) rather than by comparing two timestamps directly.
type Millis uint32

// Since returns the milliseconds elapsed from start to now, tolerating wrap.
func Since(now, start Millis) int32 {
	return int32(now - start)
}

// Clock provides the current animation timestamp.
type Clock interface {
	Now() Millis
}

type systemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock counting milliseconds since its creation.
func NewSystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() Millis {
	return Millis(time.Since(c.start).Milliseconds())
}
