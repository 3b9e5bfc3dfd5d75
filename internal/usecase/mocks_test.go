package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

// fakeSheet is an in-memory sheet that applies writes, so tests can run the
// builder again on the result.
type fakeSheet struct {
	mu        sync.Mutex
	headers   []string
	rows      [][]string
	updates   []entity.CellUpdate
	deleted   []int
	failRead  error
	failWrite error
	// display, when set, rewrites stored values the way Sheets renders them.
	display func(string) string
}

func newFakeSheet(rows ...[]string) *fakeSheet {
	return &fakeSheet{headers: entity.DefaultHeaders, rows: rows}
}

func (f *fakeSheet) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead != nil {
		return entity.Snapshot{}, f.failRead
	}
	rows := make([][]string, len(f.rows))
	for i, r := range f.rows {
		rows[i] = append([]string(nil), r...)
	}
	return entity.Snapshot{Headers: f.headers, Rows: rows}, nil
}

func (f *fakeSheet) UpdateCells(ctx context.Context, updates []entity.CellUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	for _, u := range updates {
		idx := u.Row - 2
		for len(f.rows[idx]) <= u.Col {
			f.rows[idx] = append(f.rows[idx], "")
		}
		v := u.Value
		if f.display != nil {
			v = f.display(v)
		}
		f.rows[idx][u.Col] = v
	}
	f.updates = append(f.updates, updates...)
	return nil
}

func (f *fakeSheet) DeleteRow(ctx context.Context, row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := row - 2
	f.rows = append(f.rows[:idx], f.rows[idx+1:]...)
	f.deleted = append(f.deleted, row)
	return nil
}

func (f *fakeSheet) EnsureHeaders(ctx context.Context, headers []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var added []string
	for _, h := range headers {
		if entity.FindColumn(f.headers, []string{strings.ToLower(h)}) == entity.NotFound {
			f.headers = append(f.headers, h)
			added = append(added, h)
		}
	}
	return added, nil
}

func (f *fakeSheet) cell(row int, header string) string {
	col := entity.FindColumn(f.headers, []string{strings.ToLower(header)})
	r := f.rows[row-2]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// sheetsDateDisplay mimics the default locale rendering of a USER_ENTERED
// date: 03/05/2026 reads back as 3/5/2026.
func sheetsDateDisplay(v string) string {
	t, err := time.Parse(entity.DateLayout, v)
	if err != nil {
		return v
	}
	return t.Format("1/2/2006")
}

// sheetRow builds a data row in the default header layout.
func sheetRow(values map[string]string) []string {
	row := make([]string, len(entity.DefaultHeaders))
	for i, h := range entity.DefaultHeaders {
		if v, ok := values[h]; ok {
			row[i] = v
		}
	}
	return row
}

// MockMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Open(ctx context.Context) (MailSession, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(MailSession), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailSession
type MockMailSession struct {
	mock.Mock
}

func (m *MockMailSession) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func (m *MockMailSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDMSender
type MockDMSender struct {
	mock.Mock
}

func (m *MockDMSender) Open(ctx context.Context) (DMSession, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(DMSession), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDMSession
type MockDMSession struct {
	mock.Mock
}

func (m *MockDMSession) Send(ctx context.Context, handle, message string) error {
	args := m.Called(ctx, handle, message)
	return args.Error(0)
}

func (m *MockDMSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockOutreachLog
type MockOutreachLog struct {
	mock.Mock
}

func (m *MockOutreachLog) AppendSent(ctx context.Context, sent entity.SentEmail) error {
	args := m.Called(ctx, sent)
	return args.Error(0)
}

func (m *MockOutreachLog) AppendDM(ctx context.Context, dm entity.DMRecord) error {
	args := m.Called(ctx, dm)
	return args.Error(0)
}

func (m *MockOutreachLog) AppendResponse(ctx context.Context, resp entity.Response) error {
	args := m.Called(ctx, resp)
	return args.Error(0)
}

func (m *MockOutreachLog) ListSent(ctx context.Context) ([]entity.SentEmail, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.SentEmail), args.Error(1)
}

func (m *MockOutreachLog) ListDMs(ctx context.Context) ([]entity.DMRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.DMRecord), args.Error(1)
}

func (m *MockOutreachLog) ListResponses(ctx context.Context) ([]entity.Response, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.Response), args.Error(1)
}

// MockQuota
type MockQuota struct {
	mock.Mock
}

func (m *MockQuota) Count(ctx context.Context, channel entity.Channel, day time.Time) (int, error) {
	args := m.Called(ctx, channel, day)
	return args.Int(0), args.Error(1)
}

func (m *MockQuota) Incr(ctx context.Context, channel entity.Channel, day time.Time) error {
	args := m.Called(ctx, channel, day)
	return args.Error(0)
}

// MockInbox
type MockInbox struct {
	mock.Mock
}

func (m *MockInbox) FetchReplies(ctx context.Context, from []string, since time.Time) ([]InboundMessage, error) {
	args := m.Called(ctx, from, since)
	return args.Get(0).([]InboundMessage), args.Error(1)
}

var errBoom = errors.New("boom")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
