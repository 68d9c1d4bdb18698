package schedule

import "time"

// SystemClock reads the wall clock. The production default; tests inject
// frozen clocks instead.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
