package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeUseCaseError maps the use case error taxonomy onto HTTP statuses.
func writeUseCaseError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status := http.StatusBadRequest
		switch de.Code {
		case usecase.CodeNotFound:
			status = http.StatusNotFound
		case usecase.CodeBatchRunning:
			status = http.StatusConflict
		case usecase.CodeQuotaReached:
			status = http.StatusTooManyRequests
		case usecase.CodeMissingCols:
			status = http.StatusUnprocessableEntity
		}
		writeErrorResponse(w, status, de.Code, de.Message)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		status := http.StatusBadGateway
		if te.Code == usecase.CodeSheetUnavailable || te.Code == usecase.CodeLogStore {
			status = http.StatusServiceUnavailable
		}
		writeErrorResponse(w, status, te.Code, te.Error())
		return
	}

	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
