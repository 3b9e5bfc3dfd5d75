package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type responseTracker interface {
	Scan(ctx context.Context) (*usecase.ScanResponsesOutput, error)
	Record(ctx context.Context, input usecase.RecordResponseInput) (*entity.Response, error)
}

type ResponsesHandler struct {
	Responses responseTracker
	// OnFound is told how many new responses a request recorded.
	OnFound func(n int)
}

func NewResponsesHandler(responses responseTracker, onFound func(int)) *ResponsesHandler {
	return &ResponsesHandler{Responses: responses, OnFound: onFound}
}

func (h *ResponsesHandler) found(n int) {
	if h.OnFound != nil && n > 0 {
		h.OnFound(n)
	}
}

func (h *ResponsesHandler) Scan(w http.ResponseWriter, r *http.Request) {
	out, err := h.Responses.Scan(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	h.found(len(out.NewResponses))
	writeJSON(w, http.StatusOK, out)
}

func (h *ResponsesHandler) Record(w http.ResponseWriter, r *http.Request) {
	var input usecase.RecordResponseInput
	if err := decodeJSON(r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	resp, err := h.Responses.Record(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	h.found(1)
	writeJSON(w, http.StatusCreated, resp)
}
