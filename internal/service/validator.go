package service

import (
	"fmt"
	"strings"

	"velora/internal/models"

	"github.com/go-playground/validator/v10"
)

// bookingChecks mirrors the fields a booking must carry before submission.
// Tag-based so every violation is collected, not fail-fast.
type bookingChecks struct {
	ServiceID  string  `validate:"required"`
	Name       string  `validate:"required"`
	Date       string  `validate:"required,datetime=2006-01-02"`
	Time       string  `validate:"required"`
	GuestEmail string  `validate:"required,email"`
	TotalPrice float64 `validate:"gt=0"`
}

var fieldMessages = map[string]string{
	"ServiceID":  "service reference is missing",
	"Name":       "service name is missing",
	"Date":       "date is missing or not a valid calendar date",
	"Time":       "time slot is empty",
	"GuestEmail": "guest email is missing or invalid",
	"TotalPrice": "total price must be positive",
}

// BookingValidator runs the structural (Phase A) checks over a reservation
// set.
type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{validate: validator.New()}
}

// Collect returns one human-readable message per violation across all
// bookings, in store order. An empty result means the set is submittable.
func (v *BookingValidator) Collect(bookings []models.Booking) []string {
	var violations []string
	for i, b := range bookings {
		checks := bookingChecks{
			ServiceID:  strings.TrimSpace(b.ServiceID),
			Name:       strings.TrimSpace(b.Name),
			Date:       strings.TrimSpace(b.Date),
			Time:       strings.TrimSpace(b.Time),
			GuestEmail: strings.TrimSpace(b.GuestEmail),
			TotalPrice: b.TotalPrice,
		}

		err := v.validate.Struct(checks)
		if err == nil {
			continue
		}

		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			violations = append(violations, fmt.Sprintf("booking %d (%s): %v", i+1, b.Name, err))
			continue
		}

		for _, fe := range validationErrs {
			msg, ok := fieldMessages[fe.StructField()]
			if !ok {
				msg = fmt.Sprintf("field %s is invalid", fe.StructField())
			}
			label := b.Name
			if label == "" {
				label = "unnamed service"
			}
			violations = append(violations, fmt.Sprintf("booking %d (%s): %s", i+1, label, msg))
		}
	}
	return violations
}
