package usecase

import "errors"

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeQuotaReached = "QUOTA_REACHED"
	CodeBatchRunning = "BATCH_RUNNING"
	CodeNotFound     = "NOT_FOUND"
	CodeMissingCols  = "MISSING_COLUMNS"

	CodeSheetUnavailable = "SHEET_UNAVAILABLE"
	CodeSMTPConnect      = "SMTP_CONNECT"
	CodeIMAPConnect      = "IMAP_CONNECT"
	CodeBrowser          = "BROWSER_UNAVAILABLE"
	CodeLogStore         = "LOG_STORE"
)

// DomainError is a rule violation the caller can fix.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps a failure in one of the transports.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code of a domain or technical error, or "".
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
