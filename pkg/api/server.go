// Package api is the HTTP front of the venue gateway: venue operations as
// JSON endpoints under /api/v1, guarded by an X-API-Key header, plus
// Prometheus metrics on /metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires every route of s.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// unprotected for scraping
	r.Handle("/metrics", promhttp.Handler())

	m := s.metrics
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Route("/venue", func(r chi.Router) {
			r.Get("/handshake", m.InstrumentHandler("GET", "/api/v1/venue/handshake", s.handleHandshake))
			r.Get("/data", m.InstrumentHandler("GET", "/api/v1/venue/data", s.handleGetData))
			r.Get("/sessions/{session}/seats",
				m.InstrumentHandler("GET", "/api/v1/venue/sessions/{session}/seats", s.handleSessionSeats))
			r.Get("/sessions/{session}/free-seats",
				m.InstrumentHandler("GET", "/api/v1/venue/sessions/{session}/free-seats", s.handleFreeSeats))
			r.Post("/transactions", m.InstrumentHandler("POST", "/api/v1/venue/transactions", s.handleInitTransaction))
			r.Post("/transactions/commit",
				m.InstrumentHandler("POST", "/api/v1/venue/transactions/commit", s.handleCommitTransaction))
			r.Get("/bookings/verify/{alternate_key}",
				m.InstrumentHandler("GET", "/api/v1/venue/bookings/verify/{alternate_key}", s.handleVerifyBooking))
			r.Get("/bookings/{key}", m.InstrumentHandler("GET", "/api/v1/venue/bookings/{key}", s.handleLookupBooking))
		})

		r.Post("/vif/decode", m.InstrumentHandler("POST", "/api/v1/vif/decode", s.handleDecode))

		if s.journal != nil {
			r.Get("/journal", m.InstrumentHandler("GET", "/api/v1/journal", s.handleJournalList))
			r.Get("/journal/{id}", m.InstrumentHandler("GET", "/api/v1/journal/{id}", s.handleJournalGet))
		}
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, deps Dependencies, config ServerConfig) error {
	if deps.Venue == nil {
		return errors.New("api: venue is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}

	s := NewServer(deps, config)
	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting vifgate API server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down vifgate API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
