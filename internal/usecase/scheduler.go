package usecase

import (
	"strconv"
	"time"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

const (
	TwitterMessaged = "messaged"
	TwitterFollowed = "followed"
	TwitterWrong    = "wrong"

	EmailStatusWrong = "wrong"
)

// Scheduler turns outcomes into sheet writes. It never talks to the sheet.
type Scheduler struct{}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// NextStage is 0 for an intro and climbs to MaxStage on follow-ups.
func (s *Scheduler) NextStage(entry entity.CoachEntry) int {
	if !entry.IsFollowup {
		return 0
	}
	return min(entry.Stage+1, entity.MaxStage)
}

// AfterSend stamps contacted, stage and next contact on every role the entry covers.
func (s *Scheduler) AfterSend(entry entity.CoachEntry, today time.Time) []entity.CellUpdate {
	day := entity.Day(today)
	todayStr := entity.FormatDate(day)
	nextStr := entity.FormatDate(day.Add(entity.FollowupInterval))
	stage := strconv.Itoa(s.NextStage(entry))

	var out []entity.CellUpdate
	for _, t := range entry.Targets {
		out = appendCell(out, entry.Row, t.Contacted, todayStr)
		out = appendCell(out, entry.Row, t.Stage, stage)
		out = appendCell(out, entry.Row, t.NextContact, nextStr)
	}
	return out
}

// OnResponse marks the roles responded and clears their follow-up schedule.
func (s *Scheduler) OnResponse(row int, targets []entity.RoleColumns, when time.Time) []entity.CellUpdate {
	dateStr := entity.FormatDate(when)

	var out []entity.CellUpdate
	for _, t := range targets {
		out = appendCell(out, row, t.Responded, dateStr)
		out = appendCell(out, row, t.Stage, "")
		out = appendCell(out, row, t.NextContact, "")
	}
	return out
}

func (s *Scheduler) OnInvalidRecipient(entry entity.CoachEntry) []entity.CellUpdate {
	var out []entity.CellUpdate
	for _, t := range entry.Targets {
		out = appendCell(out, entry.Row, t.EmailStatus, EmailStatusWrong)
	}
	return out
}

func (s *Scheduler) OnBlocked(entry entity.CoachEntry) entity.RowDeletion {
	return entity.RowDeletion{Row: entry.Row, Reason: string(FailureBlocked)}
}

func (s *Scheduler) AfterDM(entry entity.TwitterEntry) []entity.CellUpdate {
	return appendCell(nil, entry.Row, entry.StatusCol, TwitterMessaged)
}

func (s *Scheduler) MarkTwitter(row int, cols entity.RoleColumns, status string) []entity.CellUpdate {
	return appendCell(nil, row, cols.TwitterStatus, status)
}

func appendCell(out []entity.CellUpdate, row, col int, value string) []entity.CellUpdate {
	if col == entity.NotFound || row < 2 {
		return out
	}
	return append(out, entity.CellUpdate{Row: row, Col: col, Value: value})
}
