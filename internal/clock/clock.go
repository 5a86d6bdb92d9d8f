package clock

import "time"

// Clock supplies the processing time used for ledger entries and date fallbacks
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// New returns the wall clock
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}
