package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

// SeenSet dedups addresses or handles within one pass. The caller owns it;
// passing the same set to several builder calls extends the pass.
type SeenSet map[string]struct{}

func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// add reports whether key was new.
func (s SeenSet) add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// CoachList is the output of one builder pass.
type CoachList struct {
	Entries          []entity.CoachEntry
	SkippedContacted int
	SkippedResponded int
	SkippedBadEmail  int
	SkippedInvalid   int
	Warnings         []string
}

type roleState struct {
	role      entity.Role
	name      string
	rawEmail  string
	email     string
	contacted bool
	responded bool
	badEmail  bool
	due       bool
	stage     int
	next      *time.Time
}

func readRole(row []string, cols entity.ColumnMap, role entity.Role, today time.Time) roleState {
	f := roleFields(role)

	st := roleState{
		role:      role,
		name:      strings.TrimSpace(cols.Value(row, f.name)),
		rawEmail:  cols.Value(row, f.email),
		contacted: entity.IsContacted(cols.Value(row, f.contacted)),
		responded: entity.HasResponded(cols.Value(row, f.responded)),
		badEmail:  entity.HasBadEmail(cols.Value(row, f.emailStatus)),
		stage:     entity.ParseStage(cols.Value(row, f.stage)),
	}
	st.email = entity.CleanEmail(st.rawEmail)

	nextRaw := cols.Value(row, f.next)
	st.due = entity.IsDueForFollowup(nextRaw, today)
	if t, ok := entity.ParseDate(nextRaw); ok {
		st.next = &t
	}
	return st
}

type roleFieldSet struct {
	name, email, contacted, responded, emailStatus, stage, next entity.Field
	twitter, twitterStatus                                      entity.Field
}

func roleFields(role entity.Role) roleFieldSet {
	if role == entity.RoleOL {
		return roleFieldSet{
			name: entity.FieldOLName, email: entity.FieldOLEmail,
			contacted: entity.FieldOLContacted, responded: entity.FieldOLResponded,
			emailStatus: entity.FieldOLEmailStatus, stage: entity.FieldOLStage,
			next: entity.FieldOLNextContact, twitter: entity.FieldOLTwitter,
			twitterStatus: entity.FieldOLTwitterStatus,
		}
	}
	return roleFieldSet{
		name: entity.FieldRCName, email: entity.FieldRCEmail,
		contacted: entity.FieldRCContacted, responded: entity.FieldRCResponded,
		emailStatus: entity.FieldRCEmailStatus, stage: entity.FieldRCStage,
		next: entity.FieldRCNextContact, twitter: entity.FieldRCTwitter,
		twitterStatus: entity.FieldRCTwitterStatus,
	}
}

// BuildEmailCoachList walks the snapshot in sheet order and proposes every
// coach eligible for an email, at most once per address.
func BuildEmailCoachList(snap entity.Snapshot, cols entity.ColumnMap, seen SeenSet, today time.Time) CoachList {
	var out CoachList

	for i, row := range snap.Rows {
		school := strings.TrimSpace(cols.Value(row, entity.FieldSchool))
		if school == "" {
			continue
		}
		rowNum := entity.SheetRow(i)
		division := strings.TrimSpace(cols.Value(row, entity.FieldDivision))

		ol := readRole(row, cols, entity.RoleOL, today)
		rc := readRole(row, cols, entity.RoleRC, today)

		for _, st := range []roleState{ol, rc} {
			if strings.TrimSpace(st.rawEmail) != "" && st.email == "" {
				out.SkippedInvalid++
				out.Warnings = append(out.Warnings,
					fmt.Sprintf("row %d: invalid %s email for %s: %q", rowNum, strings.ToUpper(string(st.role)), school, st.rawEmail))
			}
		}

		if ol.email != "" && ol.email == rc.email {
			entry := dualEntry(school, division, rowNum, ol, rc, cols)
			out.consider(entry, seen)
			continue
		}

		for _, st := range []roleState{ol, rc} {
			if st.email == "" {
				continue
			}
			out.consider(singleEntry(school, division, rowNum, st, cols), seen)
		}
	}

	return out
}

func (l *CoachList) consider(entry entity.CoachEntry, seen SeenSet) {
	switch {
	case entry.Responded:
		l.SkippedResponded++
		return
	case entry.BadEmail:
		l.SkippedBadEmail++
		return
	case !entry.Eligible():
		l.SkippedContacted++
		return
	}
	if !seen.add(entry.Email) {
		return
	}
	l.Entries = append(l.Entries, entry)
}

func singleEntry(school, division string, row int, st roleState, cols entity.ColumnMap) entity.CoachEntry {
	return entity.CoachEntry{
		School:         school,
		Division:       division,
		Role:           st.role,
		Email:          st.email,
		Name:           st.name,
		LastName:       entity.LastNameOf(st.name),
		Contacted:      st.contacted,
		Responded:      st.responded,
		BadEmail:       st.badEmail,
		DueForFollowup: st.due,
		Stage:          st.stage,
		NextContact:    st.next,
		IsFollowup:     st.contacted,
		Row:            row,
		Targets:        []entity.RoleColumns{entity.ColumnsFor(cols, st.role)},
	}
}

// dualEntry folds both roles into one entry. It counts as "contacted" only
// when both roles were, so it stays eligible while either role is fresh.
func dualEntry(school, division string, row int, ol, rc roleState, cols entity.ColumnMap) entity.CoachEntry {
	name := ol.name
	if name == "" {
		name = rc.name
	}

	next := ol.next
	if next == nil || (rc.next != nil && rc.next.Before(*next)) {
		next = rc.next
	}

	return entity.CoachEntry{
		School:         school,
		Division:       division,
		Role:           entity.RoleDual,
		Email:          ol.email,
		Name:           name,
		LastName:       entity.LastNameOf(name),
		Contacted:      ol.contacted && rc.contacted,
		Responded:      ol.responded || rc.responded,
		BadEmail:       ol.badEmail || rc.badEmail,
		DueForFollowup: ol.due || rc.due,
		Stage:          max(ol.stage, rc.stage),
		NextContact:    next,
		IsFollowup:     ol.contacted || rc.contacted,
		Row:            row,
		Targets: []entity.RoleColumns{
			entity.ColumnsFor(cols, entity.RoleRC),
			entity.ColumnsFor(cols, entity.RoleOL),
		},
	}
}

var twitterDone = map[string]bool{
	"messaged": true,
	"followed": true,
	"wrong":    true,
}

// BuildTwitterCoachList proposes every coach with a handle who has not replied
// and has no final Twitter status, at most once per handle.
func BuildTwitterCoachList(snap entity.Snapshot, cols entity.ColumnMap, seen SeenSet) []entity.TwitterEntry {
	var out []entity.TwitterEntry

	for i, row := range snap.Rows {
		school := strings.TrimSpace(cols.Value(row, entity.FieldSchool))
		if school == "" {
			continue
		}

		for _, role := range []entity.Role{entity.RoleRC, entity.RoleOL} {
			f := roleFields(role)

			key, display := entity.NormalizeHandle(cols.Value(row, f.twitter))
			if key == "" {
				continue
			}
			if entity.HasResponded(cols.Value(row, f.responded)) {
				continue
			}
			status := strings.ToLower(strings.TrimSpace(cols.Value(row, f.twitterStatus)))
			if twitterDone[status] {
				continue
			}
			if !seen.add(key) {
				continue
			}

			out = append(out, entity.TwitterEntry{
				School:    school,
				Role:      role,
				Name:      strings.TrimSpace(cols.Value(row, f.name)),
				Handle:    key,
				Display:   display,
				Row:       entity.SheetRow(i),
				StatusCol: cols.Index(f.twitterStatus),
			})
		}
	}

	return out
}
