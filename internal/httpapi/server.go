package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"velora/internal/catalog"
	"velora/internal/config"
	"velora/internal/domain"
	"velora/internal/metrics"
	"velora/internal/models"
	"velora/internal/notify"
	"velora/internal/service"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Server exposes the booking engine over HTTP for the storefront.
type Server struct {
	cfg      config.APIConfig
	catalog  *catalog.Catalog
	store    *service.BookingStore
	builder  *service.BookingBuilder
	coord    *service.ConfirmationCoordinator
	center   *notify.Center
	exporter domain.ExportWorker
	logger   *zerolog.Logger
	server   *http.Server
	auth     *Auth
}

func NewServer(
	cfg config.APIConfig,
	cat *catalog.Catalog,
	store *service.BookingStore,
	builder *service.BookingBuilder,
	coord *service.ConfirmationCoordinator,
	center *notify.Center,
	exporter domain.ExportWorker,
	logger *zerolog.Logger,
) *Server {
	srv := &Server{
		cfg:      cfg,
		catalog:  cat,
		store:    store,
		builder:  builder,
		coord:    coord,
		center:   center,
		exporter: exporter,
		logger:   logger,
	}
	srv.auth = NewAuth(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/services", srv.handleServices)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/api/v1/guest", srv.handleGuest)
	mux.HandleFunc("/api/v1/confirm", srv.handleConfirm)
	mux.HandleFunc("/api/v1/notifications", srv.handleNotifications)
	mux.HandleFunc("/api/v1/export", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the composed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("services")

	writeJSON(w, http.StatusOK, map[string]any{"services": s.catalog.ListServices()})
}

type createBookingRequest struct {
	ServiceID  string   `json:"service_id"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	AddOnIDs   []string `json:"add_on_ids"`
	Notes      string   `json:"notes"`
	GuestName  string   `json:"guest_name"`
	GuestEmail string   `json:"guest_email"`
	GuestPhone string   `json:"guest_phone"`
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("bookings_list")
		writeJSON(w, http.StatusOK, map[string]any{"bookings": s.store.List()})

	case http.MethodPost:
		metrics.IncHTTP("bookings_create")
		s.createBooking(w, r)

	case http.MethodDelete:
		metrics.IncHTTP("bookings_clear")
		s.store.Clear(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"cleared": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(body.ServiceID) == "" {
		writeError(w, http.StatusBadRequest, "service_id is required")
		return
	}
	if strings.TrimSpace(body.Date) == "" || strings.TrimSpace(body.Time) == "" {
		writeError(w, http.StatusBadRequest, "date and time are required")
		return
	}

	svc, ok := s.catalog.GetService(body.ServiceID)
	if !ok {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}

	booking := s.builder.Build(svc, models.Selection{
		Date:       body.Date,
		Time:       body.Time,
		AddOnIDs:   body.AddOnIDs,
		Notes:      body.Notes,
		GuestName:  body.GuestName,
		GuestEmail: body.GuestEmail,
		GuestPhone: body.GuestPhone,
	})

	if err := s.store.Add(r.Context(), booking); err != nil {
		if conflict, ok := err.(*service.ConflictError); ok {
			writeError(w, http.StatusConflict, conflict.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add booking")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking})
}

func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("bookings_remove")

	const prefix = "/api/v1/bookings/"
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	if err := s.store.Remove(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": id})
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("guest")

	var info models.GuestInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.store.UpdateGuestInfo(r.Context(), info)
	writeJSON(w, http.StatusOK, map[string]any{"bookings": s.store.List()})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("confirm")

	// A pending submission runs to completion: a storefront disconnect
	// must not cancel Phase C mid-flight and leave the upstream and the
	// local set disagreeing.
	err := s.coord.Confirm(context.WithoutCancel(r.Context()))
	resp := map[string]any{
		"state":    s.coord.State().String(),
		"bookings": s.store.Len(),
	}
	if err != nil {
		resp["error"] = err.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("notifications")

	writeJSON(w, http.StatusOK, map[string]any{"notifications": s.center.Active()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("export")

	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are disabled")
		return
	}

	bookings := s.store.List()
	if len(bookings) == 0 {
		writeError(w, http.StatusBadRequest, "no bookings to export")
		return
	}

	if err := s.exporter.EnqueueExport(r.Context(), bookings); err != nil {
		writeError(w, http.StatusServiceUnavailable, "export queue is full")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": len(bookings)})
}

// Auth provides API-key auth and per-key rate limiting.
type Auth struct {
	cfg      config.APIConfig
	clients  map[string]config.APIClientKey
	limiters sync.Map // map[string]*rate.Limiter
}

func NewAuth(cfg config.APIConfig) *Auth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &Auth{cfg: cfg, clients: m}
}

func (a *Auth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled && r.URL.Path != "/healthz" {
			if err := a.checkAuth(r); err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Auth) checkAuth(r *http.Request) error {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}

	apiKey := strings.TrimSpace(r.Header.Get(header))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return fmt.Errorf("invalid api key")
	}
	if subtle.ConstantTimeCompare([]byte(client.Key), []byte(apiKey)) != 1 {
		return fmt.Errorf("invalid api key")
	}
	return nil
}

func (a *Auth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	lim := a.getLimiter(a.clientKey(r))
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (a *Auth) clientKey(r *http.Request) string {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}

	if apiKey := strings.TrimSpace(r.Header.Get(header)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *Auth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
