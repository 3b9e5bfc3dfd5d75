package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

type EventType string

const (
	EventSent          EventType = "sent"
	EventError         EventType = "error"
	EventInvalidEmail  EventType = "invalid_email"
	EventCoachRemoved  EventType = "coach_removed"
	EventLimitReached  EventType = "limit_reached"
	EventConnectFailed EventType = "connect_failed"
	EventSheetWarning  EventType = "sheet_warning"
	EventResponse      EventType = "response"
)

// Event reports the outcome of a single item while a batch runs.
type Event struct {
	Type      EventType      `json:"type"`
	Channel   entity.Channel `json:"channel"`
	School    string         `json:"school,omitempty"`
	Role      entity.Role    `json:"role,omitempty"`
	Recipient string         `json:"recipient,omitempty"`
	Template  string         `json:"template,omitempty"`
	Kind      FailureKind    `json:"kind,omitempty"`
	Message   string         `json:"message,omitempty"`
	At        time.Time      `json:"at"`
}

// EventFunc may be nil.
type EventFunc func(Event)

func (f EventFunc) emit(e Event) {
	if f != nil {
		f(e)
	}
}

// BatchSummary is what every send batch returns; per-item failures never
// surface as Go errors.
type BatchSummary struct {
	Channel      entity.Channel `json:"channel"`
	Candidates   int            `json:"candidates"`
	Sent         int            `json:"sent"`
	Errors       int            `json:"errors"`
	Skipped      int            `json:"skipped"`
	NotAttempted int            `json:"not_attempted"`
	Halted       bool           `json:"halted"`
	HaltReason   string         `json:"halt_reason,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}

func (s *BatchSummary) halt(reason string) {
	s.Halted = true
	s.HaltReason = reason
}

type SendEmailsInput struct {
	Limit int `json:"limit"`
}

type SendDMsInput struct {
	Limit int `json:"limit"`
}

// PreviewItem is a rendered message that would be sent.
type PreviewItem struct {
	Row        int         `json:"row"`
	School     string      `json:"school"`
	Role       entity.Role `json:"role"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Stage      int         `json:"stage"`
	IsFollowup bool        `json:"is_followup"`
	TemplateID string      `json:"template_id"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
}

type PreviewOutput struct {
	Items            []PreviewItem `json:"items"`
	SkippedContacted int           `json:"skipped_contacted"`
	SkippedResponded int           `json:"skipped_responded"`
	SkippedBadEmail  int           `json:"skipped_bad_email"`
	SkippedInvalid   int           `json:"skipped_invalid"`
	RemainingToday   int           `json:"remaining_today"`
}

// Sleeper waits between sends and returns early with ctx.Err() on cancel.
type Sleeper func(ctx context.Context, d time.Duration) error

func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
