package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTemporalValidator_IsPast(t *testing.T) {
	// Monday, 2 March 2026, 10:30 local.
	v := NewTemporalValidator(mondayClock())

	t.Run("YesterdayIsPast", func(t *testing.T) {
		assert.True(t, v.IsPast("2026-03-01", "09:00 AM"))
	})

	t.Run("TomorrowIsNotPast", func(t *testing.T) {
		assert.False(t, v.IsPast("2026-03-03", "09:00 AM"))
	})

	t.Run("EarlierToday", func(t *testing.T) {
		assert.True(t, v.IsPast("2026-03-02", "9:00 AM"))
		assert.False(t, v.IsPast("2026-03-02", "11:00 AM"))
	})

	t.Run("ExactInstantIsNotPast", func(t *testing.T) {
		assert.False(t, v.IsPast("2026-03-02", "10:30 AM"))
	})

	// Documented limitation, not a bug: malformed inputs resolve to
	// "not past" so a broken value cannot block unrelated flows.
	// Structural validation rejects them before submission.
	t.Run("MalformedInputsFailOpen", func(t *testing.T) {
		assert.False(t, v.IsPast("not-a-date", "09:00 AM"))
		assert.False(t, v.IsPast("2026-03-01", "quarter past nine"))
		assert.False(t, v.IsPast("", ""))
	})

	t.Run("ReevaluatedPerCall", func(t *testing.T) {
		clock := &tickingClock{t: time.Date(2026, 3, 2, 9, 59, 0, 0, time.Local)}
		v := NewTemporalValidator(clock)

		assert.False(t, v.IsPast("2026-03-02", "10:00 AM"))
		clock.t = clock.t.Add(2 * time.Minute)
		assert.True(t, v.IsPast("2026-03-02", "10:00 AM"))
	})
}

type tickingClock struct {
	t time.Time
}

func (c *tickingClock) Now() time.Time { return c.t }
