package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/logging"
)

type EmailSettings struct {
	Templates  entity.TemplateBook
	Athlete    entity.Athlete
	DailyLimit int
	Delay      time.Duration
}

type SendEmailsUseCase struct {
	Sheet     SheetStore
	Mailer    Mailer
	Log       OutreachLogWriter
	Quota     QuotaCounter
	Scheduler *Scheduler
	Settings  EmailSettings
	Logger    *zap.Logger

	Now   func() time.Time
	Sleep Sleeper
}

func NewSendEmailsUseCase(
	sheet SheetStore,
	mailer Mailer,
	log OutreachLogWriter,
	quota QuotaCounter,
	settings EmailSettings,
	logger *zap.Logger,
) *SendEmailsUseCase {
	settings.Templates = settings.Templates.WithDefaults()
	return &SendEmailsUseCase{
		Sheet:     sheet,
		Mailer:    mailer,
		Log:       log,
		Quota:     quota,
		Scheduler: NewScheduler(),
		Settings:  settings,
		Logger:    logger.Named("emails"),
		Now:       time.Now,
		Sleep:     ContextSleep,
	}
}

// loadCandidates reads the sheet once and builds the email list.
func (uc *SendEmailsUseCase) loadCandidates(ctx context.Context, today time.Time) (CoachList, error) {
	snap, err := uc.Sheet.Snapshot(ctx)
	if err != nil {
		return CoachList{}, &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to read sheet", Err: err}
	}

	cols := entity.ResolveColumns(snap.Headers)
	if !cols.Has(entity.FieldSchool) || (!cols.Has(entity.FieldRCEmail) && !cols.Has(entity.FieldOLEmail)) {
		return CoachList{}, &DomainError{Code: CodeMissingCols, Message: "sheet has no school or email columns"}
	}

	list := BuildEmailCoachList(snap, cols, NewSeenSet(), today)
	for _, w := range list.Warnings {
		uc.Logger.Warn("invalid email in sheet", zap.String("detail", w))
	}
	uc.Logger.Info("coach list built",
		zap.Int("candidates", len(list.Entries)),
		zap.Int("skipped_contacted", list.SkippedContacted),
		zap.Int("skipped_responded", list.SkippedResponded),
		zap.Int("skipped_bad_email", list.SkippedBadEmail),
		zap.Int("skipped_invalid", list.SkippedInvalid),
	)
	return list, nil
}

func (uc *SendEmailsUseCase) remainingToday(ctx context.Context, now time.Time) int {
	count, err := uc.Quota.Count(ctx, entity.ChannelEmail, now)
	if err != nil {
		// a broken counter must not lift the cap, so assume nothing is left
		uc.Logger.Error("quota counter unavailable", zap.Error(err))
		return 0
	}
	return uc.Settings.DailyLimit - count
}

func (uc *SendEmailsUseCase) render(entry entity.CoachEntry) (entity.Template, string, string) {
	tpl := uc.Settings.Templates.Pick(entry.Role, entry.School)
	subject, body := tpl.Render(uc.Settings.Athlete.Variables(entry.LastName, entry.School))
	return tpl, subject, body
}

// TestConnection authenticates against SMTP without sending anything.
func (uc *SendEmailsUseCase) TestConnection(ctx context.Context) error {
	session, err := uc.Mailer.Open(ctx)
	if err != nil {
		return &TechnicalError{Code: CodeSMTPConnect, Message: "failed to connect to email server", Err: err}
	}
	return session.Close()
}

// Preview renders the messages the next batch would send, without sending.
func (uc *SendEmailsUseCase) Preview(ctx context.Context, limit int) (*PreviewOutput, error) {
	now := uc.Now()
	list, err := uc.loadCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	entries := list.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := &PreviewOutput{
		Items:            make([]PreviewItem, 0, len(entries)),
		SkippedContacted: list.SkippedContacted,
		SkippedResponded: list.SkippedResponded,
		SkippedBadEmail:  list.SkippedBadEmail,
		SkippedInvalid:   list.SkippedInvalid,
		RemainingToday:   max(uc.remainingToday(ctx, now), 0),
	}
	for _, e := range entries {
		tpl, subject, body := uc.render(e)
		out.Items = append(out.Items, PreviewItem{
			Row:        e.Row,
			School:     e.School,
			Role:       e.Role,
			Email:      e.Email,
			Name:       e.Name,
			Stage:      e.Stage,
			IsFollowup: e.IsFollowup,
			TemplateID: tpl.ID,
			Subject:    subject,
			Body:       body,
		})
	}
	return out, nil
}

// Execute sends one batch. Per-item failures are reported in the summary and
// through onEvent; the returned error is only for a batch that could not start
// because the sheet itself is unreadable or malformed.
func (uc *SendEmailsUseCase) Execute(ctx context.Context, input SendEmailsInput, onEvent EventFunc) (*BatchSummary, error) {
	now := uc.Now()
	summary := &BatchSummary{Channel: entity.ChannelEmail, StartedAt: now}
	defer func() { summary.FinishedAt = uc.Now() }()

	if input.Limit < 0 {
		return nil, &DomainError{Code: CodeValidation, Message: "limit must not be negative"}
	}

	list, err := uc.loadCandidates(ctx, now)
	if err != nil {
		if IsTechnicalError(err) {
			summary.Errors = 1
			summary.halt(err.Error())
			onEvent.emit(Event{Type: EventConnectFailed, Channel: entity.ChannelEmail, Message: err.Error(), At: now})
			return summary, nil
		}
		return nil, err
	}

	entries := list.Entries
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[:input.Limit]
	}
	summary.Candidates = len(entries)

	remaining := uc.remainingToday(ctx, now)
	if remaining <= 0 {
		summary.Skipped = len(entries)
		summary.halt(fmt.Sprintf("daily limit reached (%d)", uc.Settings.DailyLimit))
		onEvent.emit(Event{Type: EventLimitReached, Channel: entity.ChannelEmail, Message: summary.HaltReason, At: now})
		uc.Logger.Warn("daily email limit reached", zap.Int("limit", uc.Settings.DailyLimit))
		return summary, nil
	}

	if len(entries) == 0 {
		return summary, nil
	}

	session, err := uc.Mailer.Open(ctx)
	if err != nil {
		summary.Errors = 1
		summary.Skipped = len(entries)
		summary.halt("failed to connect to email server: " + err.Error())
		onEvent.emit(Event{Type: EventConnectFailed, Channel: entity.ChannelEmail, Message: summary.HaltReason, At: now})
		uc.Logger.Error("smtp connect failed", zap.Error(err))
		return summary, nil
	}
	defer session.Close()

	for i, entry := range entries {
		if summary.Sent >= remaining {
			summary.Skipped += len(entries) - i
			summary.halt(fmt.Sprintf("daily limit reached (%d)", uc.Settings.DailyLimit))
			onEvent.emit(Event{Type: EventLimitReached, Channel: entity.ChannelEmail, Message: summary.HaltReason, At: uc.Now()})
			break
		}
		if ctx.Err() != nil {
			summary.NotAttempted += len(entries) - i
			summary.halt("cancelled")
			break
		}

		outcome := uc.deliver(ctx, session, entry, onEvent)
		switch outcome.Status {
		case OutcomeSent:
			summary.Sent++
		case OutcomeSkipped:
			summary.Errors++
			continue
		case OutcomeFailed:
			summary.Errors++
		}

		if outcome.Kind == FailureBlocked {
			summary.NotAttempted += len(entries) - i - 1
			summary.halt("account blocked: " + outcome.Reason)
			uc.Logger.Error("account appears blocked, stopping batch", zap.String("reason", outcome.Reason))
			break
		}

		if i < len(entries)-1 {
			if err := uc.Sleep(ctx, uc.Settings.Delay); err != nil {
				summary.NotAttempted += len(entries) - i - 1
				summary.halt("cancelled")
				break
			}
		}
	}

	uc.Logger.Info("email batch finished",
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
		zap.Int("skipped", summary.Skipped),
		zap.Int("not_attempted", summary.NotAttempted),
		zap.Bool("halted", summary.Halted),
	)
	return summary, nil
}

func (uc *SendEmailsUseCase) deliver(ctx context.Context, session MailSession, entry entity.CoachEntry, onEvent EventFunc) Outcome {
	email := strings.ToLower(strings.TrimSpace(entry.Email))
	base := Event{Channel: entity.ChannelEmail, School: entry.School, Role: entry.Role, Recipient: email}

	if !entity.IsSingleValidEmail(email) {
		uc.Logger.Error("invalid email blocked before send", logging.Email("email", email), zap.String("school", entry.School))
		ev := base
		ev.Type, ev.Message, ev.At = EventInvalidEmail, "invalid email format: "+email, uc.Now()
		onEvent.emit(ev)
		return skippedOutcome("invalid email format")
	}

	tpl, subject, body := uc.render(entry)
	base.Template = tpl.ID

	if err := session.Send(ctx, email, subject, body); err != nil {
		outcome := failedOutcome(err)
		uc.onFailure(ctx, entry, outcome, onEvent, base)
		return outcome
	}

	now := uc.Now()
	stage := uc.Scheduler.NextStage(entry)
	followup := 0
	if entry.IsFollowup {
		followup = stage
	}

	if err := uc.Quota.Incr(ctx, entity.ChannelEmail, now); err != nil {
		uc.Logger.Warn("failed to increment quota", zap.Error(err))
	}
	if err := uc.Log.AppendSent(ctx, entity.NewSentEmail(entry, tpl.ID, followup, now)); err != nil {
		uc.Logger.Warn("failed to append sent log", zap.Error(err))
	}
	if err := uc.Sheet.UpdateCells(ctx, uc.Scheduler.AfterSend(entry, now)); err != nil {
		uc.Logger.Warn("failed to update sheet after send", zap.String("school", entry.School), zap.Error(err))
		ev := base
		ev.Type, ev.Message, ev.At = EventSheetWarning, err.Error(), now
		onEvent.emit(ev)
	}

	uc.Logger.Info("email sent",
		logging.Email("email", email),
		zap.String("school", entry.School),
		zap.String("role", string(entry.Role)),
		zap.Int("stage", stage),
		zap.String("template", tpl.ID),
	)
	ev := base
	ev.Type, ev.At = EventSent, now
	onEvent.emit(ev)
	return sentOutcome()
}

func (uc *SendEmailsUseCase) onFailure(ctx context.Context, entry entity.CoachEntry, outcome Outcome, onEvent EventFunc, base Event) {
	var sheetErr error

	switch outcome.Kind {
	case FailureBlocked:
		del := uc.Scheduler.OnBlocked(entry)
		uc.Logger.Error("blocked sending, removing row", zap.String("school", entry.School), zap.Int("row", del.Row))
		sheetErr = uc.Sheet.DeleteRow(ctx, del.Row)
		removed := base
		removed.Type, removed.Kind, removed.Message, removed.At = EventCoachRemoved, outcome.Kind, outcome.Reason, uc.Now()
		onEvent.emit(removed)
	case FailureInvalidRecipient:
		uc.Logger.Warn("invalid recipient, marking email wrong", zap.String("school", entry.School))
		sheetErr = uc.Sheet.UpdateCells(ctx, uc.Scheduler.OnInvalidRecipient(entry))
	default:
		uc.Logger.Warn("email send failed", zap.String("school", entry.School), zap.String("reason", outcome.Reason))
	}

	if sheetErr != nil && !errors.Is(sheetErr, context.Canceled) {
		uc.Logger.Warn("failed to update sheet for error", zap.Error(sheetErr))
	}

	ev := base
	ev.Type, ev.Kind, ev.Message, ev.At = EventError, outcome.Kind, outcome.Reason, uc.Now()
	onEvent.emit(ev)
}
