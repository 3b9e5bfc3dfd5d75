package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/logging"
)

// ScanWindow is how far back an inbox scan looks for replies.
const ScanWindow = 30 * 24 * time.Hour

type RecordResponseInput struct {
	CoachEmail string `json:"coach_email"`
	Subject    string `json:"subject"`
	Snippet    string `json:"snippet"`
	ReceivedAt string `json:"received_at"` // MM/DD/YYYY, defaults to today
}

type ScanResponsesOutput struct {
	Checked      int               `json:"checked"`
	NewResponses []entity.Response `json:"new_responses"`
	RowsUpdated  int               `json:"rows_updated"`
}

type ResponsesUseCase struct {
	Sheet     SheetStore
	Inbox     Inbox
	Log       OutreachLogWriter
	History   OutreachLogReader
	Scheduler *Scheduler
	Logger    *zap.Logger
	Now       func() time.Time

	// appended holds keys logged by this process; with the queue enabled the
	// response log can lag behind them.
	mu       sync.Mutex
	appended map[string]bool
}

func NewResponsesUseCase(sheet SheetStore, inbox Inbox, log OutreachLogWriter, history OutreachLogReader, logger *zap.Logger) *ResponsesUseCase {
	return &ResponsesUseCase{
		Sheet:     sheet,
		Inbox:     inbox,
		Log:       log,
		History:   history,
		Scheduler: NewScheduler(),
		Logger:    logger.Named("responses"),
		Now:       time.Now,
	}
}

// Scan looks for replies from every coach in the sent log and records the
// ones not seen before.
func (uc *ResponsesUseCase) Scan(ctx context.Context) (*ScanResponsesOutput, error) {
	sent, err := uc.History.ListSent(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeLogStore, Message: "failed to read sent log", Err: err}
	}
	known, err := uc.History.ListResponses(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeLogStore, Message: "failed to read response log", Err: err}
	}

	coaches := make(map[string]entity.SentEmail)
	var addrs []string
	for _, s := range sent {
		addr := strings.ToLower(strings.TrimSpace(s.CoachEmail))
		if _, ok := coaches[addr]; !ok {
			addrs = append(addrs, addr)
		}
		coaches[addr] = s
	}

	out := &ScanResponsesOutput{Checked: len(addrs), NewResponses: []entity.Response{}}
	if len(addrs) == 0 {
		return out, nil
	}

	seen := uc.appendedKeys()
	for _, r := range known {
		seen[r.Key()] = true
	}

	msgs, err := uc.Inbox.FetchReplies(ctx, addrs, uc.Now().Add(-ScanWindow))
	if err != nil {
		return nil, &TechnicalError{Code: CodeIMAPConnect, Message: "failed to scan inbox", Err: err}
	}

	var responders []string
	for _, m := range msgs {
		from := strings.ToLower(strings.TrimSpace(m.From))
		coach, ok := coaches[from]
		if !ok {
			continue
		}

		resp := entity.NewResponse(from, coach.CoachName, coach.School, m.Subject, m.Snippet, m.ReceivedAt)
		if seen[resp.Key()] {
			continue
		}
		seen[resp.Key()] = true

		if err := uc.Log.AppendResponse(ctx, resp); err != nil {
			uc.Logger.Warn("failed to append response", zap.Error(err))
		} else {
			uc.remember(resp.Key())
		}
		out.NewResponses = append(out.NewResponses, resp)
		responders = append(responders, from)
		uc.Logger.Info("new response", logging.Email("email", from), zap.String("school", coach.School))
	}

	if len(responders) > 0 {
		n, err := uc.markResponded(ctx, responders, uc.Now())
		if err != nil {
			return out, err
		}
		out.RowsUpdated = n
	}
	return out, nil
}

// Record stores a manually entered reply and stops contact for that coach.
func (uc *ResponsesUseCase) Record(ctx context.Context, input RecordResponseInput) (*entity.Response, error) {
	if err := ValidateRecordResponse(input); err != nil {
		return nil, err
	}

	email := entity.CleanEmail(input.CoachEmail)
	when := uc.Now()
	if input.ReceivedAt != "" {
		when, _ = entity.ParseDate(input.ReceivedAt)
	}

	var name, school string
	if uc.History != nil {
		if sent, err := uc.History.ListSent(ctx); err == nil {
			for i := len(sent) - 1; i >= 0; i-- {
				if strings.EqualFold(sent[i].CoachEmail, email) {
					name, school = sent[i].CoachName, sent[i].School
					break
				}
			}
		}
	}

	resp := entity.NewResponse(email, name, school, input.Subject, input.Snippet, when)
	if err := uc.Log.AppendResponse(ctx, resp); err != nil {
		return nil, &TechnicalError{Code: CodeLogStore, Message: "failed to append response", Err: err}
	}
	uc.remember(resp.Key())

	n, err := uc.markResponded(ctx, []string{email}, when)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		uc.Logger.Warn("response recorded but coach not found on sheet", logging.Email("email", email))
	}
	return &resp, nil
}

func (uc *ResponsesUseCase) remember(key string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.appended == nil {
		uc.appended = make(map[string]bool)
	}
	uc.appended[key] = true
}

// appendedKeys returns a copy the caller may extend.
func (uc *ResponsesUseCase) appendedKeys() map[string]bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make(map[string]bool, len(uc.appended))
	for k := range uc.appended {
		out[k] = true
	}
	return out
}

// markResponded stamps every row/role carrying one of the addresses. Roles
// already marked keep their original date.
func (uc *ResponsesUseCase) markResponded(ctx context.Context, emails []string, when time.Time) (int, error) {
	snap, err := uc.Sheet.Snapshot(ctx)
	if err != nil {
		return 0, &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to read sheet", Err: err}
	}
	cols := entity.ResolveColumns(snap.Headers)

	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[e] = true
	}

	var updates []entity.CellUpdate
	rows := 0
	for i, row := range snap.Rows {
		var targets []entity.RoleColumns
		for _, role := range []entity.Role{entity.RoleRC, entity.RoleOL} {
			f := roleFields(role)
			if !want[entity.CleanEmail(cols.Value(row, f.email))] {
				continue
			}
			if entity.HasResponded(cols.Value(row, f.responded)) {
				continue
			}
			targets = append(targets, entity.ColumnsFor(cols, role))
		}
		if len(targets) == 0 {
			continue
		}
		rows++
		updates = append(updates, uc.Scheduler.OnResponse(entity.SheetRow(i), targets, when)...)
	}

	if len(updates) == 0 {
		return rows, nil
	}
	if err := uc.Sheet.UpdateCells(ctx, updates); err != nil {
		return 0, &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to mark responded", Err: err}
	}
	return rows, nil
}
