package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func TestRecordEvent(t *testing.T) {
	sent := outreachMessages.WithLabelValues("email", "sent")
	blocked := outreachFailures.WithLabelValues("email", "blocked")
	invalid := outreachFailures.WithLabelValues("twitter", "invalid_email")
	beforeSent, beforeBlocked, beforeInvalid := testutil.ToFloat64(sent), testutil.ToFloat64(blocked), testutil.ToFloat64(invalid)

	var forwarded []usecase.Event
	sink := ObserveEvents(func(e usecase.Event) { forwarded = append(forwarded, e) })
	sink(usecase.Event{Type: usecase.EventSent, Channel: entity.ChannelEmail})
	sink(usecase.Event{Type: usecase.EventError, Channel: entity.ChannelEmail, Kind: usecase.FailureBlocked})
	sink(usecase.Event{Type: usecase.EventInvalidEmail, Channel: entity.ChannelTwitter})
	sink(usecase.Event{Type: usecase.EventLimitReached, Channel: entity.ChannelEmail})

	assert.Len(t, forwarded, 4)
	assert.Equal(t, beforeSent+1, testutil.ToFloat64(sent))
	assert.Equal(t, beforeBlocked+1, testutil.ToFloat64(blocked))
	assert.Equal(t, beforeInvalid+1, testutil.ToFloat64(invalid))
}

func TestRecordSheetRetryAndResponses(t *testing.T) {
	retry := sheetRetries.WithLabelValues("read", "true")
	before := testutil.ToFloat64(retry)
	beforeResp := testutil.ToFloat64(outreachResponses)

	RecordSheetRetry("read", true)
	RecordResponses(2)
	ObserveEvents(nil)(usecase.Event{Type: usecase.EventResponse})

	assert.Equal(t, before+1, testutil.ToFloat64(retry))
	assert.Equal(t, beforeResp+3, testutil.ToFloat64(outreachResponses))
}

// TestMetricsUsesRoutePattern - path params do not explode label cardinality
func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/twitter/{row}/{role}/{status}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	counter := httpRequestsTotal.WithLabelValues("POST", "/twitter/{row}/{role}/{status}", "202")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/twitter/4/rc/followed", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/twitter/5/ol/wrong", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
