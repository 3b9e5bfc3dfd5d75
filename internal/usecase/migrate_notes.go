package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

const notesDate = `(\d{1,2}/\d{1,2}(?:/\d{2,4})?)?`

var (
	respondedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)RESPONDED\s*` + notesDate),
		regexp.MustCompile(`(?i)Response received\s*` + notesDate),
	}
	dmSentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)DM sent\s*` + notesDate),
		regexp.MustCompile(`(?i)messaged\s*` + notesDate),
	}
	followedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Followed only`),
		regexp.MustCompile(`(?i)can only follow`),
	}
	wrongTwitterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Wrong Twitter[:\s]*(https?://[^\s;]+)?`),
		regexp.MustCompile(`(?i)Twitter wrong`),
	}
	legacyFollowupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Intro sent\s*\d{1,2}/\d{1,2}(?:/\d{2,4})?`),
		regexp.MustCompile(`(?i)Follow-up \d+ sent\s*\d{1,2}/\d{1,2}(?:/\d{2,4})?`),
		regexp.MustCompile(`(?i)Follow-up \d+\s*\d{1,2}/\d{1,2}(?:/\d{2,4})?`),
		regexp.MustCompile(`(?i)Skipped\s*\d{1,2}/\d{1,2}(?:/\d{2,4})?`),
	}

	separatorRun = regexp.MustCompile(`[;\s]+`)
	alphaNum     = regexp.MustCompile(`[a-zA-Z0-9]`)
)

// ParsedNotes is what a free-text notes cell turns into.
type ParsedNotes struct {
	Responded     string
	TwitterStatus string
	Remaining     string
}

// ParseNotes pulls tracking markers out of a notes cell. Each marker family
// stops at its first matching pattern and removes every occurrence of it.
func ParseNotes(notes string) ParsedNotes {
	if notes == "" {
		return ParsedNotes{}
	}
	out := ParsedNotes{Remaining: notes}

	for _, re := range respondedPatterns {
		m := re.FindStringSubmatch(notes)
		if m == nil {
			continue
		}
		out.Responded = "yes"
		if len(m) > 1 && m[1] != "" {
			out.Responded = m[1]
		}
		out.Remaining = re.ReplaceAllString(out.Remaining, "")
		break
	}

	families := []struct {
		status   string
		patterns []*regexp.Regexp
	}{
		{TwitterMessaged, dmSentPatterns},
		{TwitterFollowed, followedPatterns},
		{TwitterWrong, wrongTwitterPatterns},
	}
	for _, fam := range families {
		if out.TwitterStatus != "" {
			break
		}
		for _, re := range fam.patterns {
			if re.MatchString(notes) {
				out.TwitterStatus = fam.status
				out.Remaining = re.ReplaceAllString(out.Remaining, "")
				break
			}
		}
	}

	for _, re := range legacyFollowupPatterns {
		out.Remaining = re.ReplaceAllString(out.Remaining, "")
	}

	out.Remaining = strings.TrimSpace(separatorRun.ReplaceAllString(out.Remaining, " "))
	if out.Remaining != "" && !alphaNum.MatchString(out.Remaining) {
		out.Remaining = ""
	}
	return out
}

// NoteChange is one planned cell write.
type NoteChange struct {
	Row    int    `json:"row"`
	School string `json:"school"`
	Column string `json:"column"`
	Col    int    `json:"col"`
	Value  string `json:"value"`
}

type MigrateNotesOutput struct {
	DryRun         bool           `json:"dry_run"`
	Rows           int            `json:"rows"`
	RowsChanged    int            `json:"rows_changed"`
	Changes        []NoteChange   `json:"changes"`
	Stats          map[string]int `json:"stats"`
	MissingHeaders []string       `json:"missing_headers,omitempty"`
	Applied        int            `json:"applied"`
	Unchanged      int            `json:"unchanged"`
}

var trackingHeaders = []string{
	"RC Stage", "RC Next Contact", "OL Stage", "OL Next Contact",
	"RC Responded", "OL Responded", "RC Twitter Status", "OL Twitter Status",
	"RC Email Status", "OL Email Status",
}

// MigrateNotesUseCase moves tracking data out of the notes columns into the
// dedicated ones. Dry run plans only; apply writes the plan.
type MigrateNotesUseCase struct {
	Sheet  SheetStore
	Logger *zap.Logger
}

func NewMigrateNotesUseCase(sheet SheetStore, logger *zap.Logger) *MigrateNotesUseCase {
	return &MigrateNotesUseCase{Sheet: sheet, Logger: logger.Named("migrate-notes")}
}

func (uc *MigrateNotesUseCase) Execute(ctx context.Context, dryRun bool) (*MigrateNotesOutput, error) {
	snap, err := uc.Sheet.Snapshot(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to read sheet", Err: err}
	}
	if len(snap.Rows) == 0 {
		return nil, &DomainError{Code: CodeNotFound, Message: "no data in sheet"}
	}

	out := &MigrateNotesOutput{DryRun: dryRun, Rows: len(snap.Rows), Stats: map[string]int{}, Changes: []NoteChange{}}

	present := make(map[string]bool, len(snap.Headers))
	for _, h := range snap.Headers {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}
	for _, h := range trackingHeaders {
		if !present[strings.ToLower(h)] {
			out.MissingHeaders = append(out.MissingHeaders, h)
		}
	}
	if len(out.MissingHeaders) > 0 && !dryRun {
		return out, &DomainError{
			Code:    CodeMissingCols,
			Message: "add the tracking headers before migrating: " + strings.Join(out.MissingHeaders, ", "),
		}
	}

	cols := entity.ResolveColumns(snap.Headers)
	var pending []entity.CellUpdate

	for i, row := range snap.Rows {
		rowNum := entity.SheetRow(i)
		school := strings.TrimSpace(cols.Value(row, entity.FieldSchool))
		if school == "" {
			school = fmt.Sprintf("Row %d", rowNum)
		}

		var rowChanges []NoteChange
		for _, role := range []entity.Role{entity.RoleRC, entity.RoleOL} {
			rc := entity.ColumnsFor(cols, role)
			if rc.Notes == entity.NotFound || rc.Notes >= len(row) {
				continue
			}
			notes := row[rc.Notes]
			if notes == "" {
				continue
			}
			prefix := strings.ToUpper(string(role))
			parsed := ParseNotes(notes)

			if parsed.Responded != "" {
				rowChanges = append(rowChanges, NoteChange{rowNum, school, prefix + " Responded", rc.Responded, parsed.Responded})
				out.Stats[string(role)+"_responded"]++
			}
			if parsed.TwitterStatus != "" {
				rowChanges = append(rowChanges, NoteChange{rowNum, school, prefix + " Twitter Status", rc.TwitterStatus, parsed.TwitterStatus})
				out.Stats[string(role)+"_twitter_"+parsed.TwitterStatus]++
			}
			if parsed.Remaining != notes {
				rowChanges = append(rowChanges, NoteChange{rowNum, school, prefix + " Notes", rc.Notes, parsed.Remaining})
				out.Stats["notes_cleaned"]++
			}
		}

		if len(rowChanges) == 0 {
			continue
		}
		out.RowsChanged++
		out.Changes = append(out.Changes, rowChanges...)

		for _, c := range rowChanges {
			if c.Col == entity.NotFound {
				continue
			}
			// skip writes the sheet already reflects so a rerun is a no-op
			if c.Col < len(row) && row[c.Col] == c.Value {
				out.Unchanged++
				continue
			}
			pending = append(pending, entity.CellUpdate{Row: c.Row, Col: c.Col, Value: c.Value})
		}
	}

	uc.Logger.Info("notes migration planned",
		zap.Bool("dry_run", dryRun),
		zap.Int("rows_changed", out.RowsChanged),
		zap.Int("cell_writes", len(pending)),
		zap.Strings("missing_headers", out.MissingHeaders),
	)

	if dryRun || len(pending) == 0 {
		return out, nil
	}

	if err := uc.Sheet.UpdateCells(ctx, pending); err != nil {
		return out, &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to apply notes migration", Err: err}
	}
	out.Applied = len(pending)
	uc.Logger.Info("notes migration applied", zap.Int("applied", out.Applied))
	return out, nil
}

// AddHeaders appends the missing tracking headers so a live run can proceed.
func (uc *MigrateNotesUseCase) AddHeaders(ctx context.Context) ([]string, error) {
	hw, ok := uc.Sheet.(HeaderWriter)
	if !ok {
		return nil, &DomainError{Code: CodeValidation, Message: "sheet store cannot add headers"}
	}
	added, err := hw.EnsureHeaders(ctx, trackingHeaders)
	if err != nil {
		return nil, &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to add headers", Err: err}
	}
	uc.Logger.Info("tracking headers ensured", zap.Strings("added", added))
	return added, nil
}
