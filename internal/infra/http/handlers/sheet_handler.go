package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type twitterMarker interface {
	Execute(ctx context.Context, input usecase.MarkTwitterInput) error
}

type notesMigrator interface {
	Execute(ctx context.Context, dryRun bool) (*usecase.MigrateNotesOutput, error)
	AddHeaders(ctx context.Context) ([]string, error)
}

type statsReader interface {
	Execute(ctx context.Context) (*usecase.StatsOutput, error)
	SheetStats(ctx context.Context) (*usecase.SheetStats, error)
}

// SheetHandler serves manual sheet edits, migrations and reports.
type SheetHandler struct {
	Twitter twitterMarker
	Notes   notesMigrator
	Stats   statsReader
	Guard   *BatchGuard
}

func NewSheetHandler(twitter twitterMarker, notes notesMigrator, stats statsReader, guard *BatchGuard) *SheetHandler {
	return &SheetHandler{Twitter: twitter, Notes: notes, Stats: stats, Guard: guard}
}

// MarkTwitter handles POST /twitter/{row}/{role}/{status}.
func (h *SheetHandler) MarkTwitter(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "row must be a number")
		return
	}
	input := usecase.MarkTwitterInput{
		Row:    row,
		Role:   entity.Role(chi.URLParam(r, "role")),
		Status: chi.URLParam(r, "status"),
	}
	if err := h.Twitter.Execute(r.Context(), input); err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, input)
}

// MigrateNotes plans by default; ?apply=true writes.
func (h *SheetHandler) MigrateNotes(w http.ResponseWriter, r *http.Request) {
	apply, _ := strconv.ParseBool(r.URL.Query().Get("apply"))
	if apply {
		release, err := h.Guard.Acquire()
		if err != nil {
			writeUseCaseError(w, err)
			return
		}
		defer release()
	}

	out, err := h.Notes.Execute(r.Context(), !apply)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SheetHandler) AddHeaders(w http.ResponseWriter, r *http.Request) {
	added, err := h.Notes.AddHeaders(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	if added == nil {
		added = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"added": added})
}

func (h *SheetHandler) OutreachStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Stats.Execute(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SheetHandler) SheetStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Stats.SheetStats(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
