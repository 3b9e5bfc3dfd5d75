package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/logging"
)

type DMSettings struct {
	Template   entity.Template
	Athlete    entity.Athlete
	DailyLimit int
	MinDelay   time.Duration
	MaxDelay   time.Duration
}

type SendDMsUseCase struct {
	Sheet     SheetStore
	Sender    DMSender
	Log       OutreachLogWriter
	History   OutreachLogReader
	Quota     QuotaCounter
	Scheduler *Scheduler
	Settings  DMSettings
	Logger    *zap.Logger

	Now    func() time.Time
	Sleep  Sleeper
	Jitter func(min, max time.Duration) time.Duration
}

func NewSendDMsUseCase(
	sheet SheetStore,
	sender DMSender,
	log OutreachLogWriter,
	history OutreachLogReader,
	quota QuotaCounter,
	settings DMSettings,
	logger *zap.Logger,
) *SendDMsUseCase {
	if settings.Template.Body == "" {
		settings.Template = entity.DefaultTemplateBook().DM
	}
	return &SendDMsUseCase{
		Sheet:     sheet,
		Sender:    sender,
		Log:       log,
		History:   history,
		Quota:     quota,
		Scheduler: NewScheduler(),
		Settings:  settings,
		Logger:    logger.Named("dms"),
		Now:       time.Now,
		Sleep:     ContextSleep,
		Jitter:    uniformDelay,
	}
}

func uniformDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func (uc *SendDMsUseCase) alreadyMessaged(ctx context.Context) map[string]bool {
	done := make(map[string]bool)
	if uc.History == nil {
		return done
	}
	dms, err := uc.History.ListDMs(ctx)
	if err != nil {
		uc.Logger.Warn("failed to read dm history", zap.Error(err))
		return done
	}
	for _, dm := range dms {
		key, _ := entity.NormalizeHandle(dm.Handle)
		done[key] = true
	}
	return done
}

// Execute sends one DM batch with a random pause between messages.
func (uc *SendDMsUseCase) Execute(ctx context.Context, input SendDMsInput, onEvent EventFunc) (*BatchSummary, error) {
	now := uc.Now()
	summary := &BatchSummary{Channel: entity.ChannelTwitter, StartedAt: now}
	defer func() { summary.FinishedAt = uc.Now() }()

	if input.Limit < 0 {
		return nil, &DomainError{Code: CodeValidation, Message: "limit must not be negative"}
	}

	snap, err := uc.Sheet.Snapshot(ctx)
	if err != nil {
		summary.Errors = 1
		summary.halt("failed to read sheet: " + err.Error())
		onEvent.emit(Event{Type: EventConnectFailed, Channel: entity.ChannelTwitter, Message: summary.HaltReason, At: now})
		return summary, nil
	}
	cols := entity.ResolveColumns(snap.Headers)
	if !cols.Has(entity.FieldRCTwitter) && !cols.Has(entity.FieldOLTwitter) {
		return nil, &DomainError{Code: CodeMissingCols, Message: "sheet has no twitter columns"}
	}

	entries := BuildTwitterCoachList(snap, cols, NewSeenSet())
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[:input.Limit]
	}
	summary.Candidates = len(entries)
	uc.Logger.Info("twitter list built", zap.Int("candidates", len(entries)))

	count, err := uc.Quota.Count(ctx, entity.ChannelTwitter, now)
	if err != nil {
		uc.Logger.Error("quota counter unavailable", zap.Error(err))
		count = uc.Settings.DailyLimit
	}
	remaining := uc.Settings.DailyLimit - count
	if remaining <= 0 {
		summary.Skipped = len(entries)
		summary.halt(fmt.Sprintf("daily DM limit reached (%d)", uc.Settings.DailyLimit))
		onEvent.emit(Event{Type: EventLimitReached, Channel: entity.ChannelTwitter, Message: summary.HaltReason, At: now})
		return summary, nil
	}

	if len(entries) == 0 {
		return summary, nil
	}

	session, err := uc.Sender.Open(ctx)
	if err != nil {
		summary.Errors = 1
		summary.Skipped = len(entries)
		summary.halt("not logged into twitter: " + err.Error())
		onEvent.emit(Event{Type: EventConnectFailed, Channel: entity.ChannelTwitter, Message: summary.HaltReason, At: now})
		uc.Logger.Error("browser session failed", zap.Error(err))
		return summary, nil
	}
	defer session.Close()

	done := uc.alreadyMessaged(ctx)

	for i, entry := range entries {
		if done[entry.Handle] {
			summary.Skipped++
			continue
		}
		if summary.Sent >= remaining {
			summary.Skipped += len(entries) - i
			summary.halt(fmt.Sprintf("daily DM limit reached (%d)", uc.Settings.DailyLimit))
			onEvent.emit(Event{Type: EventLimitReached, Channel: entity.ChannelTwitter, Message: summary.HaltReason, At: uc.Now()})
			break
		}
		if ctx.Err() != nil {
			summary.NotAttempted += len(entries) - i
			summary.halt("cancelled")
			break
		}

		outcome := uc.deliver(ctx, session, entry, onEvent)
		if outcome.Status == OutcomeSent {
			summary.Sent++
			done[entry.Handle] = true
		} else {
			summary.Errors++
		}

		if outcome.Kind == FailureBlocked {
			summary.NotAttempted += len(entries) - i - 1
			summary.halt("account blocked: " + outcome.Reason)
			uc.Logger.Error("twitter account appears blocked, stopping batch", zap.String("reason", outcome.Reason))
			break
		}

		if i < len(entries)-1 {
			delay := uc.Jitter(uc.Settings.MinDelay, uc.Settings.MaxDelay)
			if err := uc.Sleep(ctx, delay); err != nil {
				summary.NotAttempted += len(entries) - i - 1
				summary.halt("cancelled")
				break
			}
		}
	}

	uc.Logger.Info("dm batch finished",
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("halted", summary.Halted),
	)
	return summary, nil
}

func (uc *SendDMsUseCase) deliver(ctx context.Context, session DMSession, entry entity.TwitterEntry, onEvent EventFunc) Outcome {
	base := Event{Channel: entity.ChannelTwitter, School: entry.School, Role: entry.Role, Recipient: "@" + entry.Display, Template: uc.Settings.Template.ID}

	vars := uc.Settings.Athlete.Variables(entity.LastNameOf(entry.Name), entry.School)
	message := entity.Substitute(uc.Settings.Template.Body, vars)

	if err := session.Send(ctx, entry.Display, message); err != nil {
		outcome := failedOutcome(err)
		if outcome.Kind == FailureInvalidRecipient {
			updates := uc.Scheduler.MarkTwitter(entry.Row, entity.RoleColumns{TwitterStatus: entry.StatusCol}, TwitterWrong)
			if err := uc.Sheet.UpdateCells(ctx, updates); err != nil {
				uc.Logger.Warn("failed to mark twitter wrong", zap.Error(err))
			}
		}
		uc.Logger.Warn("dm failed", logging.Handle("handle", entry.Display), zap.String("kind", string(outcome.Kind)), zap.String("reason", outcome.Reason))
		ev := base
		ev.Type, ev.Kind, ev.Message, ev.At = EventError, outcome.Kind, outcome.Reason, uc.Now()
		onEvent.emit(ev)
		return outcome
	}

	now := uc.Now()
	if err := uc.Quota.Incr(ctx, entity.ChannelTwitter, now); err != nil {
		uc.Logger.Warn("failed to increment quota", zap.Error(err))
	}
	if err := uc.Log.AppendDM(ctx, entity.NewDMRecord(entry, now)); err != nil {
		uc.Logger.Warn("failed to append dm log", zap.Error(err))
	}
	if err := uc.Sheet.UpdateCells(ctx, uc.Scheduler.AfterDM(entry)); err != nil {
		uc.Logger.Warn("failed to update twitter status", zap.String("school", entry.School), zap.Error(err))
	}

	uc.Logger.Info("dm sent", logging.Handle("handle", entry.Display), zap.String("school", entry.School))
	ev := base
	ev.Type, ev.At = EventSent, now
	onEvent.emit(ev)
	return sentOutcome()
}

type MarkTwitterInput struct {
	Row    int         `json:"row"`
	Role   entity.Role `json:"role"`
	Status string      `json:"status"`
}

// MarkTwitterUseCase records a manual Twitter status (followed, wrong, messaged).
type MarkTwitterUseCase struct {
	Sheet     SheetStore
	Scheduler *Scheduler
}

func NewMarkTwitterUseCase(sheet SheetStore) *MarkTwitterUseCase {
	return &MarkTwitterUseCase{Sheet: sheet, Scheduler: NewScheduler()}
}

func (uc *MarkTwitterUseCase) Execute(ctx context.Context, input MarkTwitterInput) error {
	if err := ValidateMarkTwitter(input); err != nil {
		return err
	}

	snap, err := uc.Sheet.Snapshot(ctx)
	if err != nil {
		return &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to read sheet", Err: err}
	}
	if input.Row-2 >= len(snap.Rows) {
		return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("row %d does not exist", input.Row)}
	}

	cols := entity.ResolveColumns(snap.Headers)
	updates := uc.Scheduler.MarkTwitter(input.Row, entity.ColumnsFor(cols, input.Role), input.Status)
	if len(updates) == 0 {
		return &DomainError{Code: CodeMissingCols, Message: "sheet has no twitter status column for " + string(input.Role)}
	}
	if err := uc.Sheet.UpdateCells(ctx, updates); err != nil {
		return &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to update twitter status", Err: err}
	}
	return nil
}
