package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeOfDay is a parsed display slot in 24-hour form.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var slotRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?$`)

// ParseSlot parses a display slot like "10:00 AM", "2:30pm", "14:00" or
// "9:15:00". The second return value is false when the format is unknown;
// callers must treat that as "cannot compare", not as an error.
func ParseSlot(slot string) (TimeOfDay, bool) {
	m := slotRe.FindStringSubmatch(strings.TrimSpace(slot))
	if m == nil {
		return TimeOfDay{}, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return TimeOfDay{}, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return TimeOfDay{}, false
	}

	meridiem := strings.ToUpper(m[4])
	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, false
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return TimeOfDay{}, false
		}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, true
}

// NormalizeSlot returns the 24-hour "HH:MM" form of a slot. In lenient mode
// an unparseable slot comes back trimmed but otherwise untouched.
func NormalizeSlot(slot string) string {
	tod, ok := ParseSlot(slot)
	if !ok {
		return strings.TrimSpace(slot)
	}
	return fmt.Sprintf("%02d:%02d", tod.Hour, tod.Minute)
}

// IsWellFormedSlot is the strict check used before trusting a slot string
// for comparisons.
func IsWellFormedSlot(slot string) bool {
	_, ok := ParseSlot(slot)
	return ok
}
