package usecase

import (
	"fmt"
	"strings"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// toDomainError folds a list of field errors into one VALIDATION_ERROR.
func toDomainError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return &DomainError{Code: CodeValidation, Message: strings.Join(msgs, "; ")}
}

var twitterStatuses = map[string]bool{
	TwitterMessaged: true,
	TwitterFollowed: true,
	TwitterWrong:    true,
	"":              true,
}

func ValidateMarkTwitter(input MarkTwitterInput) error {
	var errs []ValidationError

	if input.Row < 2 {
		errs = append(errs, ValidationError{"row", "must be a data row (2 or greater)"})
	}
	if input.Role != entity.RoleRC && input.Role != entity.RoleOL {
		errs = append(errs, ValidationError{"role", "must be rc or ol"})
	}
	if !twitterStatuses[input.Status] {
		errs = append(errs, ValidationError{"status", "must be messaged, followed, wrong or empty"})
	}

	return toDomainError(errs)
}

func ValidateRecordResponse(input RecordResponseInput) error {
	var errs []ValidationError

	if strings.TrimSpace(input.CoachEmail) == "" {
		errs = append(errs, ValidationError{"coach_email", "is required"})
	} else if entity.CleanEmail(input.CoachEmail) == "" {
		errs = append(errs, ValidationError{"coach_email", "is invalid"})
	}
	if input.ReceivedAt != "" {
		if _, ok := entity.ParseDate(input.ReceivedAt); !ok {
			errs = append(errs, ValidationError{"received_at", "must be a date (MM/DD/YYYY)"})
		}
	}
	if len(input.Snippet) > 2000 {
		errs = append(errs, ValidationError{"snippet", "must not exceed 2000 characters"})
	}

	return toDomainError(errs)
}
