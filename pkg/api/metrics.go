package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/vifgate/pkg/gateway"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Venue host exchanges
	exchangesTotal   *prometheus.CounterVec
	exchangeDuration *prometheus.HistogramVec

	authRequestsTotal *prometheus.CounterVec
	cacheLookupsTotal *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vifgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vifgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vifgate_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		exchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vifgate_exchanges_total",
				Help: "Total number of venue host exchanges",
			},
			[]string{"request_code", "outcome"},
		),

		exchangeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vifgate_exchange_duration_seconds",
				Help:    "Venue host exchange duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
			},
			[]string{"request_code"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vifgate_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vifgate_catalog_cache_lookups_total",
				Help: "Catalog cache lookups by result",
			},
			[]string{"result"},
		),

		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vifgate_booking_events_total",
				Help: "Booking events published",
			},
			[]string{"status"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveExchange records a gateway exchange. Metrics is passed to
// gateway.WithObserver.
func (m *Metrics) ObserveExchange(_ context.Context, ex gateway.Exchange) {
	code := strconv.Itoa(ex.RequestCode)
	m.exchangesTotal.WithLabelValues(code, exchangeOutcome(ex.Err)).Inc()
	m.exchangeDuration.WithLabelValues(code).Observe(ex.Duration.Seconds())
}

func exchangeOutcome(err error) string {
	var hostErr *gateway.HostError
	var connErr *gateway.ConnectionError
	var respErr *gateway.ResponseError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &hostErr):
		return "host_error"
	case errors.As(err, &respErr):
		return "response_error"
	case errors.As(err, &connErr):
		return "connection_error"
	}
	return statusError
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(status(success)).Inc()
}

// RecordCacheLookup records a catalog cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordBookingEvent records a booking event publish attempt
func (m *Metrics) RecordBookingEvent(success bool) {
	m.eventsTotal.WithLabelValues(status(success)).Inc()
}

func status(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
