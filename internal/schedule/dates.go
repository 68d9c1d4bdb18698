package schedule

import (
	"math"
	"regexp"
	"strings"
	"time"

	"velora/internal/domain"
)

const isoLayout = "2006-01-02"

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// looseLayouts are tried in order for the best-effort fallback parse.
var looseLayouts = []string{
	isoLayout,
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// Normalizer converts between relative date labels ("today", "next monday")
// and canonical ISO dates. Pure over calendar dates; no time-of-day.
type Normalizer struct {
	clock domain.Clock
}

func NewNormalizer(clock domain.Clock) *Normalizer {
	return &Normalizer{clock: clock}
}

// ToISO resolves a human date label to YYYY-MM-DD. An already-canonical
// value passes through unchanged. Unrecognized input falls back to today's
// date: a bad label must never abort the booking flow.
func (n *Normalizer) ToISO(label string) string {
	trimmed := strings.TrimSpace(label)
	if isoDateRe.MatchString(trimmed) {
		return trimmed
	}

	today := n.today()
	lower := strings.ToLower(trimmed)

	switch lower {
	case "today":
		return today.Format(isoLayout)
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format(isoLayout)
	case "yesterday":
		return today.AddDate(0, 0, -1).Format(isoLayout)
	}

	if target, ok := weekdayFromLabel(lower); ok {
		days := int(target) - int(today.Weekday())
		if days <= 0 {
			days += 7
		}
		// "next <weekday>" stacks a full week on top of the computed
		// offset, so "next monday" asked on a Monday lands 14 days out.
		// Matches the storefront's historical behavior; see DESIGN.md.
		if strings.Contains(lower, "next") {
			days += 7
		}
		return today.AddDate(0, 0, days).Format(isoLayout)
	}

	for _, layout := range looseLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, today.Location()); err == nil {
			return t.Format(isoLayout)
		}
	}

	return today.Format(isoLayout)
}

// ToRelativeLabel renders an ISO date as the shortest human label: Today,
// Tomorrow, Yesterday, a weekday name within the coming week, otherwise an
// absolute short-form date. Unparseable input is returned as-is.
func (n *Normalizer) ToRelativeLabel(iso string) string {
	today := n.today()
	t, err := time.ParseInLocation(isoLayout, strings.TrimSpace(iso), today.Location())
	if err != nil {
		return iso
	}

	diffDays := int(math.Round(t.Sub(today).Hours() / 24))
	switch {
	case diffDays == 0:
		return "Today"
	case diffDays == 1:
		return "Tomorrow"
	case diffDays == -1:
		return "Yesterday"
	case diffDays > 1 && diffDays <= 7:
		return t.Weekday().String()
	default:
		return t.Format("Jan 2, 2006")
	}
}

func (n *Normalizer) today() time.Time {
	now := n.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func weekdayFromLabel(lower string) (time.Weekday, bool) {
	for name, wd := range weekdayNames {
		if strings.Contains(lower, name) {
			return wd, true
		}
	}
	return 0, false
}
