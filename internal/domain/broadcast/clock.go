package broadcast

import "time"

// Clock abstracts the processing instant so freshness math is testable.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
