package entity

import (
	"regexp"
	"strings"
)

const maxEmailLength = 100

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	return emailPattern.MatchString(email) && len(email) < maxEmailLength
}

// CleanEmail normalizes a raw sheet cell into one lowercase address, or "" if
// nothing valid remains. Concatenated lists keep their first entry.
func CleanEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}

	email = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(email)

	for _, sep := range []string{",", ";", "\n"} {
		if strings.Contains(email, sep) {
			email = strings.TrimSpace(strings.SplitN(email, sep, 2)[0])
		}
	}

	if !isValidEmail(email) {
		return ""
	}
	return email
}

// IsSingleValidEmail is the last check before anything goes on the wire.
func IsSingleValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	if strings.ContainsAny(email, " \n\r") {
		return false
	}
	return isValidEmail(email)
}

// NormalizeHandle returns the dedup key (lowercase, no "@") and the display
// form, which keeps the case the sheet had.
func NormalizeHandle(raw string) (key, display string) {
	display = strings.TrimPrefix(strings.TrimSpace(raw), "@")
	display = strings.TrimSpace(display)
	return strings.ToLower(display), display
}

// RedactEmail hides most of the local part for logs: jo***@school.edu.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		if len(email) <= 2 {
			return "***"
		}
		return email[:2] + "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local + "***" + domain
	}
	return local[:2] + "***" + domain
}
