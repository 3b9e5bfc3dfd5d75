package entity

import (
	"strings"
	"time"
)

type Role string

const (
	RoleRC   Role = "rc"
	RoleOL   Role = "ol"
	RoleDual Role = "dual"
)

// Roles expands a dual entry into the two sheet roles it stands for.
func (r Role) Roles() []Role {
	if r == RoleDual {
		return []Role{RoleRC, RoleOL}
	}
	return []Role{r}
}

func (r Role) Valid() bool {
	return r == RoleRC || r == RoleOL || r == RoleDual
}

// Snapshot is one read of the sheet: a header row plus data rows.
// Data row i lives on sheet row i+2.
type Snapshot struct {
	Headers []string
	Rows    [][]string
}

func SheetRow(dataIndex int) int {
	return dataIndex + 2
}

// RoleColumns holds the column indices (0-based) the scheduler writes for a role.
type RoleColumns struct {
	Role          Role
	Contacted     int
	Stage         int
	NextContact   int
	Responded     int
	EmailStatus   int
	TwitterStatus int
	Notes         int
}

func ColumnsFor(cols ColumnMap, role Role) RoleColumns {
	if role == RoleOL {
		return RoleColumns{
			Role:          RoleOL,
			Contacted:     cols.Index(FieldOLContacted),
			Stage:         cols.Index(FieldOLStage),
			NextContact:   cols.Index(FieldOLNextContact),
			Responded:     cols.Index(FieldOLResponded),
			EmailStatus:   cols.Index(FieldOLEmailStatus),
			TwitterStatus: cols.Index(FieldOLTwitterStatus),
			Notes:         cols.Index(FieldOLNotes),
		}
	}
	return RoleColumns{
		Role:          RoleRC,
		Contacted:     cols.Index(FieldRCContacted),
		Stage:         cols.Index(FieldRCStage),
		NextContact:   cols.Index(FieldRCNextContact),
		Responded:     cols.Index(FieldRCResponded),
		EmailStatus:   cols.Index(FieldRCEmailStatus),
		TwitterStatus: cols.Index(FieldRCTwitterStatus),
		Notes:         cols.Index(FieldRCNotes),
	}
}

// CoachEntry is a coach proposed for contact during one pass over the sheet.
type CoachEntry struct {
	School   string
	Division string
	Role     Role
	Email    string
	Name     string
	LastName string

	Contacted      bool
	Responded      bool
	BadEmail       bool
	DueForFollowup bool
	Stage          int
	NextContact    *time.Time

	IsFollowup bool
	Row        int
	Targets    []RoleColumns
}

// Eligible is the send rule shared by single and dual entries.
func (c CoachEntry) Eligible() bool {
	return !c.Responded && !c.BadEmail && (!c.Contacted || c.DueForFollowup)
}

// TwitterEntry is a coach proposed for a DM.
type TwitterEntry struct {
	School    string
	Role      Role
	Name      string
	Handle    string // dedup key
	Display   string
	Row       int
	StatusCol int
}

// CellUpdate addresses a single cell; Col is 0-based, Row 1-based.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// RowDeletion asks the sheet store to drop a row entirely.
type RowDeletion struct {
	Row    int
	Reason string
}

// LastNameOf returns the salutation name, falling back to "Coach".
func LastNameOf(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Coach"
	}
	return parts[len(parts)-1]
}
