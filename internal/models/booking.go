package models

// Booking is a single prospective reservation of a service at a date/time,
// pending confirmation. Service fields are copied in as snapshots so later
// catalog changes do not retroactively alter existing bookings.
type Booking struct {
	BookingID       string  `json:"booking_id"`
	ServiceID       string  `json:"service_id"`
	Name            string  `json:"name"`
	GuestName       string  `json:"guest_name"`
	GuestEmail      string  `json:"guest_email"`
	GuestPhone      string  `json:"guest_phone"`
	ServiceCategory string  `json:"service_category"`
	Duration        int     `json:"duration"`
	BasePrice       float64 `json:"base_price"`
	Currency        string  `json:"currency"`
	TherapistLevel  string  `json:"therapist_level"`
	Image           string  `json:"image,omitempty"`
	Date            string  `json:"date"`       // canonical YYYY-MM-DD
	DateLabel       string  `json:"date_label"` // derived, not authoritative
	Time            string  `json:"time"`       // display string, e.g. "10:00 AM"
	AddOns          []AddOn `json:"add_ons"`
	AddOnTotal      float64 `json:"add_on_total"`
	TotalPrice      float64 `json:"total_price"`
	Notes           string  `json:"notes,omitempty"`
}

// SlotKey is the dedup key: no two bookings in a store may share it.
func (b *Booking) SlotKey() string {
	return b.ServiceID + "|" + b.Date + "|" + b.Time
}

// Selection carries the guest's choices for one booking.
type Selection struct {
	Date       string
	Time       string
	AddOnIDs   []string
	Notes      string
	GuestName  string
	GuestEmail string
	GuestPhone string
}

// GuestInfo is contact info shared across the whole reservation set: a
// single guest books multiple services.
type GuestInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
