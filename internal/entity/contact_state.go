package entity

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is how every date cell in the sheet is written (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// parseLayout also accepts the unpadded M/D/YYYY form Sheets displays for
// USER_ENTERED dates.
const parseLayout = "1/2/2006"

// FollowupInterval is the gap between a send and the next scheduled contact.
const FollowupInterval = 3 * 24 * time.Hour

// MaxStage caps the follow-up counter: 0 intro, 1 and 2 follow-ups.
const MaxStage = 2

var contactedIndicators = []string{"yes", "followed", "sent", "done", "x", "true", "emailed", "contacted"}

var badEmailStatuses = map[string]bool{
	"wrong":   true,
	"bad":     true,
	"invalid": true,
	"bounced": true,
}

// IsContacted treats any non-blank value other than "no"/"false" as contacted,
// so dates and free text in the cell count.
func IsContacted(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return false
	}
	for _, ind := range contactedIndicators {
		if strings.Contains(v, ind) {
			return true
		}
	}
	return v != "no" && v != "false"
}

func HasResponded(raw string) bool {
	return strings.TrimSpace(raw) != ""
}

func HasBadEmail(raw string) bool {
	return badEmailStatuses[strings.ToLower(strings.TrimSpace(raw))]
}

// ParseDate parses a MM/DD/YYYY or M/D/YYYY cell.
func ParseDate(raw string) (time.Time, bool) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsDueForFollowup reports whether the next-contact date is today or earlier.
// Unparseable cells are never due.
func IsDueForFollowup(raw string, today time.Time) bool {
	next, ok := ParseDate(raw)
	if !ok {
		return false
	}
	return !next.After(Day(today))
}

func ParseStage(raw string) int {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Day truncates a timestamp to its calendar date in UTC so it compares with
// parsed sheet dates.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
