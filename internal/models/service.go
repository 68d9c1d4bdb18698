package models

// Service is a catalog offering. The catalog is read-only for the booking
// engine: services are declared in config and never mutated at runtime.
type Service struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	ServiceCategory string   `yaml:"category" json:"service_category"`
	Duration        int      `yaml:"duration" json:"duration"`
	BasePrice       float64  `yaml:"base_price" json:"base_price"`
	Currency        string   `yaml:"currency" json:"currency"`
	TherapistLevel  string   `yaml:"therapist_level" json:"therapist_level"`
	Image           string   `yaml:"image" json:"image,omitempty"`
	TimeSlots       []string `yaml:"time_slots" json:"time_slots"`
	AddOns          []AddOn  `yaml:"add_ons" json:"add_ons"`

	// BookableDates is derived by the catalog from the booking horizon,
	// not declared in config.
	BookableDates []BookableDate `yaml:"-" json:"bookable_dates,omitempty"`
}

// AddOn is an optional paid enhancement to a service.
type AddOn struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Price    float64 `yaml:"price" json:"price"`
	Duration int     `yaml:"duration" json:"duration"`
}

// BookableDate pairs a human label ("Today", "Monday") with its canonical
// ISO date.
type BookableDate struct {
	Label    string `json:"label"`
	ISOValue string `json:"iso_value"`
}

// FindAddOn returns the add-on with the given id, or false when the service
// does not offer it.
func (s *Service) FindAddOn(id string) (AddOn, bool) {
	for _, a := range s.AddOns {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}
