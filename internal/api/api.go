// Package api provides the HTTP server for TripConcierge.
//
// It exposes the airport identification endpoint, stateless chat, and RESTful
// endpoints to drive concierge sessions and edit their travel plans.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/itinerary"
	"github.com/BTreeMap/TripConcierge/internal/messaging"
	"github.com/BTreeMap/TripConcierge/internal/models"
)

const (
	// DefaultServerAddress is the default address for the API server
	DefaultServerAddress = ":8080"
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultReadHeaderTimeout bounds reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
)

// AirportIdentifier identifies the airport a free-text location refers to.
type AirportIdentifier interface {
	IdentifyAirport(ctx context.Context, location string) (models.AirportRecord, error)
}

// Chatter answers free-form chat.
type Chatter interface {
	Chat(ctx context.Context, systemPrompt string, history []models.Message) (string, error)
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr          string
	Sessions      *flow.Registry
	Identifier    AirportIdentifier
	Chatter       Chatter
	Courses       course.Provider
	DefaultCourse string
	Itinerary     *itinerary.Builder
	Sharer        *messaging.Sharer
	TwilioWebhook http.HandlerFunc
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithSessions sets the session registry.
func WithSessions(r *flow.Registry) Option {
	return func(o *Opts) {
		o.Sessions = r
	}
}

// WithIdentifier sets the airport identifier behind /api/identify-airport.
func WithIdentifier(id AirportIdentifier) Option {
	return func(o *Opts) {
		o.Identifier = id
	}
}

// WithChatter sets the language model behind /api/chat.
func WithChatter(c Chatter) Option {
	return func(o *Opts) {
		o.Chatter = c
	}
}

// WithCourses sets where course details are looked up, and the course used when a
// session is created without one.
func WithCourses(p course.Provider, defaultID string) Option {
	return func(o *Opts) {
		o.Courses = p
		o.DefaultCourse = defaultID
	}
}

// WithItinerary sets the calendar builder.
func WithItinerary(b *itinerary.Builder) Option {
	return func(o *Opts) {
		o.Itinerary = b
	}
}

// WithSharer enables plan sharing.
func WithSharer(s *messaging.Sharer) Option {
	return func(o *Opts) {
		o.Sharer = s
	}
}

// WithTwilioWebhook mounts the inbound SMS webhook.
func WithTwilioWebhook(h http.HandlerFunc) Option {
	return func(o *Opts) {
		o.TwilioWebhook = h
	}
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	addr          string
	sessions      *flow.Registry
	identifier    AirportIdentifier
	chatter       Chatter
	courses       course.Provider
	defaultCourse string
	itinerary     *itinerary.Builder
	sharer        *messaging.Sharer
	twilioWebhook http.HandlerFunc
	router        *mux.Router
}

// NewServer creates a Server. A session registry is created when none is given.
func NewServer(opts ...Option) *Server {
	cfg := Opts{Addr: DefaultServerAddress}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = flow.NewRegistry(flow.DefaultSessionTTL)
	}
	if cfg.Itinerary == nil {
		cfg.Itinerary = itinerary.NewBuilder()
	}
	slog.Debug("Creating API server",
		"addr", cfg.Addr,
		"identifier_set", cfg.Identifier != nil,
		"chatter_set", cfg.Chatter != nil,
		"courses_set", cfg.Courses != nil,
		"sharer_set", cfg.Sharer != nil,
		"twilio_webhook_set", cfg.TwilioWebhook != nil)

	s := &Server{
		addr:          cfg.Addr,
		sessions:      cfg.Sessions,
		identifier:    cfg.Identifier,
		chatter:       cfg.Chatter,
		courses:       cfg.Courses,
		defaultCourse: cfg.DefaultCourse,
		itinerary:     cfg.Itinerary,
		sharer:        cfg.Sharer,
		twilioWebhook: cfg.TwilioWebhook,
	}
	s.router = s.routes()
	return s
}

// Handler returns the router serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/identify-airport", s.identifyAirportHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/chat", s.chatHandler).Methods(http.MethodPost)
	r.HandleFunc("/courses/{id}", s.getCourseHandler).Methods(http.MethodGet)

	r.HandleFunc("/sessions", s.createSessionHandler).Methods(http.MethodPost)
	sr := r.PathPrefix("/sessions/{id}").Subrouter()
	sr.HandleFunc("", s.getSessionHandler).Methods(http.MethodGet)
	sr.HandleFunc("", s.deleteSessionHandler).Methods(http.MethodDelete)
	sr.HandleFunc("/reset", s.resetSessionHandler).Methods(http.MethodPost)
	sr.HandleFunc("/messages", s.listMessagesHandler).Methods(http.MethodGet)
	sr.HandleFunc("/messages", s.postMessageHandler).Methods(http.MethodPost)
	sr.HandleFunc("/offers", s.offersHandler).Methods(http.MethodGet)
	sr.HandleFunc("/hotels", s.searchHotelsHandler).Methods(http.MethodGet)
	sr.HandleFunc("/entertainment", s.searchEntertainmentHandler).Methods(http.MethodGet)
	sr.HandleFunc("/itinerary.ics", s.itineraryHandler).Methods(http.MethodGet)

	sr.HandleFunc("/plan", s.getPlanHandler).Methods(http.MethodGet)
	sr.HandleFunc("/plan/flights/{leg}", s.selectFlightHandler).Methods(http.MethodPut)
	sr.HandleFunc("/plan/flights/{leg}", s.removeFlightHandler).Methods(http.MethodDelete)
	sr.HandleFunc("/plan/hotel", s.selectHotelHandler).Methods(http.MethodPut)
	sr.HandleFunc("/plan/hotel", s.removeHotelHandler).Methods(http.MethodDelete)
	sr.HandleFunc("/plan/entertainment", s.toggleEntertainmentHandler).Methods(http.MethodPost)
	sr.HandleFunc("/plan/entertainment/{name}", s.removeEntertainmentHandler).Methods(http.MethodDelete)
	sr.HandleFunc("/plan/budget", s.getBudgetHandler).Methods(http.MethodGet)
	sr.HandleFunc("/plan/budget", s.setBudgetHandler).Methods(http.MethodPut)
	sr.HandleFunc("/plan/share", s.sharePlanHandler).Methods(http.MethodPost)

	if s.twilioWebhook != nil {
		r.HandleFunc("/webhooks/twilio", s.twilioWebhook).Methods(http.MethodPost)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	})
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("TripConcierge API running", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("API server failed", "error", err)
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("API server shutdown failed", "error", err)
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]int{"sessions": s.sessions.Len()}))
}
