package usecase

import "strings"

type FailureKind string

const (
	FailureBlocked          FailureKind = "blocked"
	FailureInvalidRecipient FailureKind = "invalid_recipient"
	FailureUnknown          FailureKind = "unknown"
)

type OutcomeStatus string

const (
	OutcomeSent    OutcomeStatus = "sent"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the result of one delivery attempt.
type Outcome struct {
	Status OutcomeStatus
	Kind   FailureKind
	Reason string
}

func sentOutcome() Outcome {
	return Outcome{Status: OutcomeSent}
}

func skippedOutcome(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Reason: reason}
}

func failedOutcome(err error) Outcome {
	msg := err.Error()
	return Outcome{Status: OutcomeFailed, Kind: ClassifyDeliveryError(msg), Reason: msg}
}

var blockedMarkers = []string{
	"blocked", "banned", "suspended", "authentication",
	"sender refused", "550 5.7", "policy", "spam",
}

var invalidRecipientMarkers = []string{
	"recipient", "mailbox", "user unknown", "does not exist",
	"550", "551", "552", "553", "554", "invalid", "rejected",
}

// ClassifyDeliveryError maps transport error text to a failure kind. Blocked
// markers are checked first since "550 5.7" also contains "550".
func ClassifyDeliveryError(text string) FailureKind {
	lower := strings.ToLower(text)
	if containsAny(lower, blockedMarkers) {
		return FailureBlocked
	}
	if containsAny(lower, invalidRecipientMarkers) {
		return FailureInvalidRecipient
	}
	return FailureUnknown
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
