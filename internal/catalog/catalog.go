package catalog

import (
	"time"

	"velora/internal/domain"
	"velora/internal/models"
	"velora/internal/schedule"

	"github.com/rs/zerolog"
)

// Catalog serves the read-only service list declared in config. Bookable
// dates are generated per call from the booking horizon so the window
// rolls forward with the clock.
type Catalog struct {
	services    []models.Service
	byID        map[string]int
	horizonDays int
	normalizer  *schedule.Normalizer
	clock       domain.Clock
	logger      *zerolog.Logger
}

func New(services []models.Service, horizonDays int, clock domain.Clock, logger *zerolog.Logger) *Catalog {
	byID := make(map[string]int, len(services))
	for i, svc := range services {
		byID[svc.ID] = i
	}

	return &Catalog{
		services:    services,
		byID:        byID,
		horizonDays: horizonDays,
		normalizer:  schedule.NewNormalizer(clock),
		clock:       clock,
		logger:      logger,
	}
}

// ListServices returns snapshots of every service with current bookable
// dates attached, in declaration order.
func (c *Catalog) ListServices() []models.Service {
	dates := c.bookableDates()
	out := make([]models.Service, len(c.services))
	for i, svc := range c.services {
		out[i] = c.snapshot(svc, dates)
	}
	return out
}

// GetService returns a snapshot of one service by id.
func (c *Catalog) GetService(id string) (*models.Service, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	svc := c.snapshot(c.services[i], c.bookableDates())
	return &svc, true
}

// snapshot deep-copies the mutable slices so callers cannot reach the
// catalog's backing data.
func (c *Catalog) snapshot(svc models.Service, dates []models.BookableDate) models.Service {
	svc.TimeSlots = append([]string(nil), svc.TimeSlots...)
	svc.AddOns = append([]models.AddOn(nil), svc.AddOns...)
	svc.BookableDates = append([]models.BookableDate(nil), dates...)
	return svc
}

func (c *Catalog) bookableDates() []models.BookableDate {
	now := c.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	dates := make([]models.BookableDate, 0, c.horizonDays)
	for i := 0; i < c.horizonDays; i++ {
		iso := today.AddDate(0, 0, i).Format("2006-01-02")
		dates = append(dates, models.BookableDate{
			Label:    c.normalizer.ToRelativeLabel(iso),
			ISOValue: iso,
		})
	}
	return dates
}
