package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/coach-outreach/internal/infra/http/middleware"
)

type Routes struct {
	Outreach       *OutreachHandler
	Responses      *ResponsesHandler
	Sheet          *SheetHandler
	Health         *HealthHandler
	AllowedOrigins []string
}

func NewRouter(rt Routes) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", rt.Health.Handle)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/outreach", func(r chi.Router) {
		r.Post("/emails", rt.Outreach.SendEmails)
		r.Post("/dms", rt.Outreach.SendDMs)
		r.Get("/preview", rt.Outreach.Preview)
	})
	r.Post("/email/test", rt.Outreach.TestEmail)

	r.Post("/responses/scan", rt.Responses.Scan)
	r.Post("/responses", rt.Responses.Record)

	r.Post("/twitter/{row}/{role}/{status}", rt.Sheet.MarkTwitter)
	r.Post("/migrations/notes", rt.Sheet.MigrateNotes)
	r.Post("/migrations/notes/headers", rt.Sheet.AddHeaders)
	r.Get("/stats", rt.Sheet.OutreachStats)
	r.Get("/sheet/stats", rt.Sheet.SheetStats)

	return r
}
