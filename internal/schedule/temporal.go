package schedule

import (
	"time"

	"velora/internal/domain"
)

// TemporalValidator answers "has this date/time already elapsed?" relative
// to the injected clock.
type TemporalValidator struct {
	clock domain.Clock
}

func NewTemporalValidator(clock domain.Clock) *TemporalValidator {
	return &TemporalValidator{clock: clock}
}

// IsPast reports whether isoDate+slot is strictly earlier than the current
// instant. The clock is read on every call: a booking can become past while
// idle in the store. Malformed inputs resolve to false so a broken value
// cannot block unrelated flows; structural validation catches those before
// submission.
func (v *TemporalValidator) IsPast(isoDate, slot string) bool {
	now := v.clock.Now()

	day, err := time.ParseInLocation(isoLayout, isoDate, now.Location())
	if err != nil {
		return false
	}

	tod, ok := ParseSlot(slot)
	if !ok {
		return false
	}

	instant := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, now.Location())
	return instant.Before(now)
}
