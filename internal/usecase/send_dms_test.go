package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

func newDMUseCase(sheet SheetStore, sender DMSender, log *MockOutreachLog, quota QuotaCounter) *SendDMsUseCase {
	uc := NewSendDMsUseCase(sheet, sender, log, log, quota, DMSettings{
		Athlete:    entity.Athlete{Name: "Sam Carter", GraduationYear: "2026"},
		DailyLimit: 20,
		MinDelay:   30 * time.Second,
		MaxDelay:   90 * time.Second,
	}, zap.NewNop())
	uc.Now = fixedClock(today)
	uc.Sleep = noSleep
	uc.Jitter = func(lo, hi time.Duration) time.Duration { return lo }
	return uc
}

func dmDeps(history []entity.DMRecord) (*MockDMSender, *MockDMSession, *MockOutreachLog, *MockQuota) {
	session := new(MockDMSession)
	session.On("Close").Return(nil)

	sender := new(MockDMSender)
	sender.On("Open", mock.Anything).Return(session, nil)

	log := new(MockOutreachLog)
	log.On("AppendDM", mock.Anything, mock.Anything).Return(nil)
	log.On("ListDMs", mock.Anything).Return(history, nil)

	quota := new(MockQuota)
	quota.On("Count", mock.Anything, entity.ChannelTwitter, mock.Anything).Return(0, nil)
	quota.On("Incr", mock.Anything, entity.ChannelTwitter, mock.Anything).Return(nil)

	return sender, session, log, quota
}

func twitterSheet() *fakeSheet {
	return newFakeSheet(
		sheetRow(map[string]string{"School": "Alpha", "recruiting coordinator name": "Pat Rivers", "RC twitter": "@PatRivers", "OC twitter": "@stoneOL"}),
		sheetRow(map[string]string{"School": "Beta", "RC twitter": "@betaRC"}),
	)
}

// TestSendDMsMarksMessaged - each sent DM sets the role's twitter status
func TestSendDMsMarksMessaged(t *testing.T) {
	sheet := twitterSheet()
	sender, session, log, quota := dmDeps([]entity.DMRecord{})
	session.On("Send", mock.Anything, "PatRivers", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "Hey Coach Rivers!")
	})).Return(nil)
	session.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	uc := newDMUseCase(sheet, sender, log, quota)
	var delays []time.Duration
	uc.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	summary, err := uc.Execute(context.Background(), SendDMsInput{}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Candidates)
	assert.Equal(t, 3, summary.Sent)
	assert.False(t, summary.Halted)
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, delays)
	assert.Equal(t, "messaged", sheet.cell(2, "RC Twitter Status"))
	assert.Equal(t, "messaged", sheet.cell(2, "OL Twitter Status"))
	assert.Equal(t, "messaged", sheet.cell(3, "RC Twitter Status"))
	log.AssertNumberOfCalls(t, "AppendDM", 3)
	quota.AssertNumberOfCalls(t, "Incr", 3)
}

// TestSendDMsSkipsLoggedHandles - the log is checked even if the sheet was not updated
func TestSendDMsSkipsLoggedHandles(t *testing.T) {
	sheet := twitterSheet()
	sender, session, log, quota := dmDeps([]entity.DMRecord{{Handle: "@BetaRC"}})
	session.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	summary, err := newDMUseCase(sheet, sender, log, quota).Execute(context.Background(), SendDMsInput{}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)
	session.AssertNotCalled(t, "Send", mock.Anything, "betaRC", mock.Anything)
}

// TestSendDMsBlockedHaltsWithoutDeleting
func TestSendDMsBlockedHaltsWithoutDeleting(t *testing.T) {
	sheet := twitterSheet()
	sender, session, log, quota := dmDeps([]entity.DMRecord{})
	session.On("Send", mock.Anything, "PatRivers", mock.Anything).Return(errors.New("account suspended"))

	summary, err := newDMUseCase(sheet, sender, log, quota).Execute(context.Background(), SendDMsInput{}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 2, summary.NotAttempted)
	assert.True(t, summary.Halted)
	assert.Empty(t, sheet.deleted)
	assert.Empty(t, sheet.updates)
}

func TestSendDMsInvalidRecipientMarksWrong(t *testing.T) {
	sheet := newFakeSheet(sheetRow(map[string]string{"School": "Alpha", "RC twitter": "@gone"}))
	sender, session, log, quota := dmDeps([]entity.DMRecord{})
	session.On("Send", mock.Anything, "gone", mock.Anything).Return(errors.New("user does not exist"))

	summary, err := newDMUseCase(sheet, sender, log, quota).Execute(context.Background(), SendDMsInput{}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
	assert.False(t, summary.Halted)
	assert.Equal(t, "wrong", sheet.cell(2, "RC Twitter Status"))
}

func TestSendDMsNotLoggedIn(t *testing.T) {
	sheet := twitterSheet()
	_, _, log, quota := dmDeps([]entity.DMRecord{})
	sender := new(MockDMSender)
	sender.On("Open", mock.Anything).Return(nil, errors.New("login page shown"))

	var events []Event
	summary, err := newDMUseCase(sheet, sender, log, quota).Execute(context.Background(), SendDMsInput{}, func(e Event) { events = append(events, e) })

	require.NoError(t, err)
	assert.True(t, summary.Halted)
	assert.Equal(t, 3, summary.Skipped)
	require.Len(t, events, 1)
	assert.Equal(t, EventConnectFailed, events[0].Type)
}

func TestSendDMsRespectsLimit(t *testing.T) {
	sheet := twitterSheet()
	sender, session, log, quota := dmDeps([]entity.DMRecord{})
	session.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	summary, err := newDMUseCase(sheet, sender, log, quota).Execute(context.Background(), SendDMsInput{Limit: 1}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, 1, summary.Sent)
}

func TestSendDMsCancelled(t *testing.T) {
	sheet := twitterSheet()
	sender, session, log, quota := dmDeps([]entity.DMRecord{})
	session.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	uc := newDMUseCase(sheet, sender, log, quota)
	uc.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	summary, err := uc.Execute(ctx, SendDMsInput{}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 2, summary.NotAttempted)
	assert.Equal(t, "cancelled", summary.HaltReason)
}

func TestUniformDelay(t *testing.T) {
	for range 50 {
		d := uniformDelay(30*time.Second, 90*time.Second)
		assert.GreaterOrEqual(t, d, 30*time.Second)
		assert.Less(t, d, 90*time.Second)
	}
	assert.Equal(t, 5*time.Second, uniformDelay(5*time.Second, time.Second))
}

func TestMarkTwitter(t *testing.T) {
	sheet := twitterSheet()
	uc := NewMarkTwitterUseCase(sheet)

	require.NoError(t, uc.Execute(context.Background(), MarkTwitterInput{Row: 3, Role: entity.RoleRC, Status: "followed"}))
	assert.Equal(t, "followed", sheet.cell(3, "RC Twitter Status"))

	err := uc.Execute(context.Background(), MarkTwitterInput{Row: 9, Role: entity.RoleRC, Status: "followed"})
	assert.Equal(t, CodeNotFound, ErrorCode(err))

	err = uc.Execute(context.Background(), MarkTwitterInput{Row: 1, Role: "coach", Status: "liked"})
	require.True(t, IsDomainError(err))
	assert.Contains(t, err.Error(), "row")
	assert.Contains(t, err.Error(), "role")
	assert.Contains(t, err.Error(), "status")
}
