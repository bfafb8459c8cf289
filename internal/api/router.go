package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/reconciliation"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(engine *reconciliation.Engine) http.Handler {
	h := &Handlers{engine: engine}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1/reconciliation", func(r chi.Router) {
		// Daily summary (read-only, recomputed per call).
		r.Get("/summary", h.GetDailySummary)

		// Session lifecycle. Date-keyed routes live under /sessions/date so
		// their wildcard never collides with the id-keyed routes.
		r.Put("/sessions/date/{date}", h.PutSession)
		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/date/{date}", h.GetSessionByDate)
		r.Get("/sessions/{id}", h.GetSession)
		r.Post("/sessions/{id}/close", h.CloseSession)
		r.Post("/sessions/{id}/cancel", h.CancelSession)

		// Carry-forward suggestion for the next opening balance.
		r.Get("/opening-suggestion", h.GetOpeningSuggestion)
	})

	return r
}
