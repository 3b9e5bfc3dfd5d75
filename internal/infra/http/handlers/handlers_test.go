package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type mockEmails struct {
	mock.Mock
	// started is closed when Execute begins; Execute then waits on release.
	started chan struct{}
	release chan struct{}
}

func (m *mockEmails) Execute(ctx context.Context, in usecase.SendEmailsInput, onEvent usecase.EventFunc) (*usecase.BatchSummary, error) {
	if m.started != nil {
		close(m.started)
		<-m.release
	}
	args := m.Called(ctx, in)
	onEvent(usecase.Event{Type: usecase.EventSent, Channel: entity.ChannelEmail, School: "Alpha"})
	return args.Get(0).(*usecase.BatchSummary), args.Error(1)
}

func (m *mockEmails) Preview(ctx context.Context, limit int) (*usecase.PreviewOutput, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).(*usecase.PreviewOutput)
	return out, args.Error(1)
}

func (m *mockEmails) TestConnection(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockDMs struct{ mock.Mock }

func (m *mockDMs) Execute(ctx context.Context, in usecase.SendDMsInput, _ usecase.EventFunc) (*usecase.BatchSummary, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.BatchSummary)
	return out, args.Error(1)
}

type mockResponses struct{ mock.Mock }

func (m *mockResponses) Scan(ctx context.Context) (*usecase.ScanResponsesOutput, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.ScanResponsesOutput)
	return out, args.Error(1)
}

func (m *mockResponses) Record(ctx context.Context, in usecase.RecordResponseInput) (*entity.Response, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*entity.Response)
	return out, args.Error(1)
}

type mockSheet struct{ mock.Mock }

func (m *mockSheet) MarkTwitter(ctx context.Context, in usecase.MarkTwitterInput) error {
	return m.Called(ctx, in).Error(0)
}

type twitterFunc func(ctx context.Context, in usecase.MarkTwitterInput) error

func (f twitterFunc) Execute(ctx context.Context, in usecase.MarkTwitterInput) error { return f(ctx, in) }

type mockNotes struct{ mock.Mock }

func (m *mockNotes) Execute(ctx context.Context, dryRun bool) (*usecase.MigrateNotesOutput, error) {
	args := m.Called(ctx, dryRun)
	out, _ := args.Get(0).(*usecase.MigrateNotesOutput)
	return out, args.Error(1)
}

func (m *mockNotes) AddHeaders(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

type mockStats struct{ mock.Mock }

func (m *mockStats) Execute(ctx context.Context) (*usecase.StatsOutput, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.StatsOutput)
	return out, args.Error(1)
}

func (m *mockStats) SheetStats(ctx context.Context) (*usecase.SheetStats, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.SheetStats)
	return out, args.Error(1)
}

type fixture struct {
	emails    *mockEmails
	dms       *mockDMs
	responses *mockResponses
	sheet     *mockSheet
	notes     *mockNotes
	stats     *mockStats
	router    http.Handler
	found     int
}

func newFixture() *fixture {
	f := &fixture{
		emails:    &mockEmails{},
		dms:       &mockDMs{},
		responses: &mockResponses{},
		sheet:     &mockSheet{},
		notes:     &mockNotes{},
		stats:     &mockStats{},
	}
	guard := &BatchGuard{}
	f.router = NewRouter(Routes{
		Outreach:       NewOutreachHandler(f.emails, f.dms, guard, nil),
		Responses:      NewResponsesHandler(f.responses, func(n int) { f.found += n }),
		Sheet:          NewSheetHandler(twitterFunc(f.sheet.MarkTwitter), f.notes, f.stats, guard),
		Health:         NewHealthHandler(nil, nil, nil, "test"),
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSendEmailsReturnsSummaryAndEvents(t *testing.T) {
	f := newFixture()
	f.emails.On("Execute", mock.Anything, usecase.SendEmailsInput{Limit: 3}).
		Return(&usecase.BatchSummary{Channel: entity.ChannelEmail, Sent: 1}, nil)

	rec := f.do(http.MethodPost, "/outreach/emails", `{"limit":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[batchResponse](t, rec)
	assert.Equal(t, 1, body.Summary.Sent)
	require.Len(t, body.Events, 1)
	assert.Equal(t, "Alpha", body.Events[0].School)
}

// TestSecondBatchGetsConflict - one batch at a time across emails and DMs
func TestSecondBatchGetsConflict(t *testing.T) {
	f := newFixture()
	f.emails.started = make(chan struct{})
	f.emails.release = make(chan struct{})
	f.emails.On("Execute", mock.Anything, mock.Anything).Return(&usecase.BatchSummary{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var first *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		first = f.do(http.MethodPost, "/outreach/emails", "")
	}()
	<-f.emails.started

	rec := f.do(http.MethodPost, "/outreach/dms", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, usecase.CodeBatchRunning, decode[errorResponse](t, rec).Error)

	close(f.emails.release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
	f.dms.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestSendDMsErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&usecase.DomainError{Code: usecase.CodeValidation, Message: "limit must not be negative"}, http.StatusBadRequest},
		{&usecase.DomainError{Code: usecase.CodeMissingCols, Message: "no columns"}, http.StatusUnprocessableEntity},
		{&usecase.TechnicalError{Code: usecase.CodeSheetUnavailable, Message: "read", Err: errors.New("x")}, http.StatusServiceUnavailable},
		{&usecase.TechnicalError{Code: usecase.CodeBrowser, Message: "launch", Err: errors.New("x")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		f := newFixture()
		f.dms.On("Execute", mock.Anything, mock.Anything).Return(nil, tc.err)

		rec := f.do(http.MethodPost, "/outreach/dms", `{"limit":1}`)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestInvalidJSON(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/outreach/emails", `{"limit":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.emails.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestPreviewLimit(t *testing.T) {
	f := newFixture()
	f.emails.On("Preview", mock.Anything, 5).Return(&usecase.PreviewOutput{RemainingToday: 50}, nil)
	f.emails.On("Preview", mock.Anything, 2).Return(&usecase.PreviewOutput{RemainingToday: 10}, nil)

	rec := f.do(http.MethodGet, "/outreach/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, decode[usecase.PreviewOutput](t, rec).RemainingToday)

	rec = f.do(http.MethodGet, "/outreach/preview?limit=2", "")
	assert.Equal(t, 10, decode[usecase.PreviewOutput](t, rec).RemainingToday)

	rec = f.do(http.MethodGet, "/outreach/preview?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailConnectionTest(t *testing.T) {
	f := newFixture()
	f.emails.On("TestConnection", mock.Anything).
		Return(&usecase.TechnicalError{Code: usecase.CodeSMTPConnect, Message: "smtp login failed"}).Once()
	f.emails.On("TestConnection", mock.Anything).Return(nil).Once()

	rec := f.do(http.MethodPost, "/email/test", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, usecase.CodeSMTPConnect, decode[errorResponse](t, rec).Error)

	rec = f.do(http.MethodPost, "/email/test", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResponsesScanAndRecord(t *testing.T) {
	f := newFixture()
	f.responses.On("Scan", mock.Anything).Return(&usecase.ScanResponsesOutput{
		Checked: 4, NewResponses: []entity.Response{{CoachEmail: "a@x.edu"}, {CoachEmail: "b@x.edu"}},
	}, nil)
	in := usecase.RecordResponseInput{CoachEmail: "rc@alpha.edu", Subject: "Re: hi"}
	f.responses.On("Record", mock.Anything, in).Return(&entity.Response{CoachEmail: "rc@alpha.edu"}, nil)

	rec := f.do(http.MethodPost, "/responses/scan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[usecase.ScanResponsesOutput](t, rec).Checked)

	rec = f.do(http.MethodPost, "/responses", `{"coach_email":"rc@alpha.edu","subject":"Re: hi"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, f.found)
}

func TestMarkTwitterRoute(t *testing.T) {
	f := newFixture()
	want := usecase.MarkTwitterInput{Row: 7, Role: entity.RoleOL, Status: "followed"}
	f.sheet.On("MarkTwitter", mock.Anything, want).Return(nil)
	f.sheet.On("MarkTwitter", mock.Anything, mock.Anything).
		Return(&usecase.DomainError{Code: usecase.CodeNotFound, Message: "row 99 does not exist"})

	rec := f.do(http.MethodPost, "/twitter/7/ol/followed", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/twitter/99/ol/followed", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/twitter/x/ol/followed", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestMigrateNotesDefaultsToDryRun - writes only with apply=true
func TestMigrateNotesDefaultsToDryRun(t *testing.T) {
	f := newFixture()
	f.notes.On("Execute", mock.Anything, true).Return(&usecase.MigrateNotesOutput{DryRun: true, RowsChanged: 2}, nil)
	f.notes.On("Execute", mock.Anything, false).Return(&usecase.MigrateNotesOutput{Applied: 5}, nil)
	f.notes.On("AddHeaders", mock.Anything).Return(nil, nil)

	rec := f.do(http.MethodPost, "/migrations/notes", "")
	assert.True(t, decode[usecase.MigrateNotesOutput](t, rec).DryRun)

	rec = f.do(http.MethodPost, "/migrations/notes?apply=true", "")
	assert.Equal(t, 5, decode[usecase.MigrateNotesOutput](t, rec).Applied)

	rec = f.do(http.MethodPost, "/migrations/notes/headers", "")
	assert.JSONEq(t, `{"added":[]}`, rec.Body.String())
}

func TestStatsRoutes(t *testing.T) {
	f := newFixture()
	f.stats.On("Execute", mock.Anything).Return(&usecase.StatsOutput{Summary: usecase.OutreachStats{ResponseRate: 25}}, nil)
	f.stats.On("SheetStats", mock.Anything).Return(&usecase.SheetStats{Total: 3, Emails: 2}, nil)

	rec := f.do(http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25.0, decode[usecase.StatsOutput](t, rec).Summary.ResponseRate)

	rec = f.do(http.MethodGet, "/sheet/stats", "")
	assert.Equal(t, 2, decode[usecase.SheetStats](t, rec).Emails)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "not configured", health.Dependencies["redis"])

	rec = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
