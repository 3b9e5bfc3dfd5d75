package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	outreachMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_messages_total",
			Help: "Outreach messages by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	outreachFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_failures_total",
			Help: "Failed deliveries by channel and failure kind",
		},
		[]string{"channel", "kind"},
	)

	outreachResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_responses_total",
			Help: "Coach replies recorded",
		},
	)

	sheetRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_retries_total",
			Help: "Spreadsheet API calls retried",
		},
		[]string{"op", "rate_limited"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		// route pattern keeps {row}/{role} out of the label set
		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordEvent counts one batch event. Chain it with other event sinks.
func RecordEvent(e usecase.Event) {
	switch e.Type {
	case usecase.EventSent:
		outreachMessages.WithLabelValues(string(e.Channel), "sent").Inc()
	case usecase.EventError, usecase.EventInvalidEmail, usecase.EventCoachRemoved:
		outreachMessages.WithLabelValues(string(e.Channel), "failed").Inc()
		kind := string(e.Kind)
		if kind == "" {
			kind = string(e.Type)
		}
		outreachFailures.WithLabelValues(string(e.Channel), kind).Inc()
	case usecase.EventResponse:
		outreachResponses.Inc()
	}
}

// ObserveEvents wraps an event sink so every event is also counted.
func ObserveEvents(next usecase.EventFunc) usecase.EventFunc {
	return func(e usecase.Event) {
		RecordEvent(e)
		if next != nil {
			next(e)
		}
	}
}

func RecordResponses(n int) {
	outreachResponses.Add(float64(n))
}

// RecordSheetRetry matches the sheets.Retrier OnRetry hook.
func RecordSheetRetry(op string, rateLimited bool) {
	sheetRetries.WithLabelValues(op, strconv.FormatBool(rateLimited)).Inc()
}
