package service

import (
	"strings"

	"velora/internal/domain"
	"velora/internal/models"
	"velora/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingBuilder assembles a booking from a catalog service and the guest's
// selection. Service fields are copied by value: a booking is a snapshot,
// later catalog changes must not reach into it.
type BookingBuilder struct {
	normalizer *schedule.Normalizer
	logger     *zerolog.Logger
}

func NewBookingBuilder(clock domain.Clock, logger *zerolog.Logger) *BookingBuilder {
	return &BookingBuilder{
		normalizer: schedule.NewNormalizer(clock),
		logger:     logger,
	}
}

// Build creates a booking satisfying the engine invariants: canonical ISO
// date, totals derived from the resolved add-ons. Guest email may still be
// empty here; it is enforced at confirmation, not at creation.
func (b *BookingBuilder) Build(svc *models.Service, sel models.Selection) *models.Booking {
	iso := b.normalizer.ToISO(sel.Date)

	addOns := make([]models.AddOn, 0, len(sel.AddOnIDs))
	var addOnTotal float64
	for _, id := range sel.AddOnIDs {
		addOn, ok := svc.FindAddOn(id)
		if !ok {
			// The guest picked something the catalog no longer offers;
			// drop it rather than failing the whole booking.
			b.logger.Debug().Str("service_id", svc.ID).Str("add_on_id", id).Msg("unknown add-on dropped")
			continue
		}
		addOns = append(addOns, addOn)
		addOnTotal += addOn.Price
	}

	return &models.Booking{
		BookingID:       uuid.NewString(),
		ServiceID:       svc.ID,
		Name:            svc.Name,
		GuestName:       strings.TrimSpace(sel.GuestName),
		GuestEmail:      strings.TrimSpace(sel.GuestEmail),
		GuestPhone:      strings.TrimSpace(sel.GuestPhone),
		ServiceCategory: svc.ServiceCategory,
		Duration:        svc.Duration,
		BasePrice:       svc.BasePrice,
		Currency:        strings.ToUpper(svc.Currency),
		TherapistLevel:  svc.TherapistLevel,
		Image:           svc.Image,
		Date:            iso,
		DateLabel:       b.normalizer.ToRelativeLabel(iso),
		Time:            strings.TrimSpace(sel.Time),
		AddOns:          addOns,
		AddOnTotal:      addOnTotal,
		TotalPrice:      svc.BasePrice + addOnTotal,
		Notes:           sel.Notes,
	}
}
