package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"velora/internal/config"
	"velora/internal/models"

	"github.com/rs/zerolog"
)

// ErrMalformedResponse means the upstream answered 2xx but the body did not
// carry the expected envelope.
var ErrMalformedResponse = errors.New("malformed booking api response")

// StatusError carries the upstream HTTP status for failure classification.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("booking api returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("booking api returned %d", e.StatusCode)
}

// Client submits confirmed reservation sets to the external booking API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zerolog.Logger
}

func NewClient(cfg config.BookingAPIConfig, logger *zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// bookingPayload is the upstream wire shape. Field names follow the booking
// API contract, not the internal snake_case serialization.
type bookingPayload struct {
	ID              string         `json:"id"`
	ServiceID       string         `json:"serviceId"`
	Name            string         `json:"name"`
	GuestName       string         `json:"guestName"`
	GuestEmail      string         `json:"guestEmail"`
	GuestPhone      string         `json:"guestPhone,omitempty"`
	ServiceCategory string         `json:"serviceCategory,omitempty"`
	Duration        int            `json:"duration,omitempty"`
	BasePrice       float64        `json:"basePrice"`
	TotalPrice      float64        `json:"totalPrice"`
	Currency        string         `json:"currency"`
	Date            string         `json:"date"`
	Time            string         `json:"time"`
	TherapistLevel  string         `json:"therapistLevel,omitempty"`
	AddOns          []addOnPayload `json:"addOns"`
	AddOnTotal      float64        `json:"addOnTotal"`
	Notes           string         `json:"notes,omitempty"`
	Image           string         `json:"image,omitempty"`
}

type addOnPayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type submitRequest struct {
	Bookings []bookingPayload `json:"bookings"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Bookings []struct {
			ID string `json:"id"`
		} `json:"bookings"`
	} `json:"data"`
}

// CreateBookings posts the whole reservation set in one request. The upstream
// treats the set atomically, so partial acceptance is not a case we handle.
func (c *Client) CreateBookings(ctx context.Context, bookings []models.Booking) error {
	payload := submitRequest{Bookings: make([]bookingPayload, 0, len(bookings))}
	for _, b := range bookings {
		payload.Bookings = append(payload.Bookings, toPayload(b))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal bookings: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit bookings: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("count", len(bookings)).
		Dur("elapsed", time.Since(start)).
		Msg("booking api response")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
	}

	var parsed submitResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !parsed.Success {
		return fmt.Errorf("%w: success flag not set (%s)", ErrMalformedResponse, parsed.Message)
	}
	return nil
}

func toPayload(b models.Booking) bookingPayload {
	addOns := make([]addOnPayload, 0, len(b.AddOns))
	for _, a := range b.AddOns {
		addOns = append(addOns, addOnPayload{Name: a.Name, Price: a.Price})
	}

	return bookingPayload{
		ID:              b.BookingID,
		ServiceID:       b.ServiceID,
		Name:            b.Name,
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		GuestPhone:      b.GuestPhone,
		ServiceCategory: b.ServiceCategory,
		Duration:        b.Duration,
		BasePrice:       b.BasePrice,
		TotalPrice:      b.TotalPrice,
		Currency:        b.Currency,
		Date:            b.Date,
		Time:            b.Time,
		TherapistLevel:  b.TherapistLevel,
		AddOns:          addOns,
		AddOnTotal:      b.AddOnTotal,
		Notes:           b.Notes,
		Image:           b.Image,
	}
}

// upstreamMessage pulls a human message out of an error body when one exists.
func upstreamMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
