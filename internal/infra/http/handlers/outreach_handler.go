package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type emailSender interface {
	Execute(ctx context.Context, input usecase.SendEmailsInput, onEvent usecase.EventFunc) (*usecase.BatchSummary, error)
	Preview(ctx context.Context, limit int) (*usecase.PreviewOutput, error)
	TestConnection(ctx context.Context) error
}

type dmSender interface {
	Execute(ctx context.Context, input usecase.SendDMsInput, onEvent usecase.EventFunc) (*usecase.BatchSummary, error)
}

// OutreachHandler runs send batches. Events are collected and returned with
// the summary.
type OutreachHandler struct {
	Emails  emailSender
	DMs     dmSender
	Guard   *BatchGuard
	OnEvent usecase.EventFunc
}

func NewOutreachHandler(emails emailSender, dms dmSender, guard *BatchGuard, onEvent usecase.EventFunc) *OutreachHandler {
	return &OutreachHandler{Emails: emails, DMs: dms, Guard: guard, OnEvent: onEvent}
}

type batchResponse struct {
	Summary *usecase.BatchSummary `json:"summary"`
	Events  []usecase.Event       `json:"events"`
}

func (h *OutreachHandler) collect(events *[]usecase.Event) usecase.EventFunc {
	return func(e usecase.Event) {
		*events = append(*events, e)
		if h.OnEvent != nil {
			h.OnEvent(e)
		}
	}
}

func (h *OutreachHandler) SendEmails(w http.ResponseWriter, r *http.Request) {
	var input usecase.SendEmailsInput
	if err := decodeJSON(r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	release, err := h.Guard.Acquire()
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	defer release()

	var events []usecase.Event
	summary, err := h.Emails.Execute(r.Context(), input, h.collect(&events))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Summary: summary, Events: events})
}

func (h *OutreachHandler) SendDMs(w http.ResponseWriter, r *http.Request) {
	var input usecase.SendDMsInput
	if err := decodeJSON(r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	release, err := h.Guard.Acquire()
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	defer release()

	var events []usecase.Event
	summary, err := h.DMs.Execute(r.Context(), input, h.collect(&events))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Summary: summary, Events: events})
}

// Preview renders the next emails without sending. ?limit=N, default 5.
func (h *OutreachHandler) Preview(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "limit must be a number")
			return
		}
		limit = n
	}

	out, err := h.Emails.Preview(r.Context(), limit)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OutreachHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.Emails.TestConnection(r.Context()); err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
