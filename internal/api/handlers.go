package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/reconciliation"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	engine *reconciliation.Engine
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps business errors onto HTTP statuses. Lifecycle
// violations and write conflicts are 409s the client must not blindly retry.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reconciliation.ErrSessionClosed),
		errors.Is(err, reconciliation.ErrSessionCancelled),
		errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, repository.ErrDuplicateDate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, reconciliation.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseDateParam(s string) (domain.Date, error) {
	if s == "" {
		return "", errors.New("date is required (YYYY-MM-DD)")
	}
	return domain.ParseDate(s)
}

// --- GetDailySummary ---

func (h *Handlers) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.engine.DailySummary(r.Context(), date)
	if err != nil {
		// A failed ledger read fails the whole summary; partial totals could
		// mask a real shortage.
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// --- PutSession ---

type putSessionRequest struct {
	OpeningBalance decimal.Decimal                    `json:"opening_balance"`
	Denominations  []reconciliation.DenominationInput `json:"denominations"`
	Notes          string                             `json:"notes"`
	Actor          string                             `json:"actor"`
}

func (h *Handlers) PutSession(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req putSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required")
		return
	}

	session, err := h.engine.CreateOrUpdate(
		r.Context(), date, req.OpeningBalance, req.Denominations, req.Notes, req.Actor,
	)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// --- GetSession / GetSessionByDate ---

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.engine.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *Handlers) GetSessionByDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.engine.GetByDate(r.Context(), date)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// --- CloseSession ---

type closeSessionRequest struct {
	Notes string `json:"notes"`
	Actor string `json:"actor"`
}

func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req closeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required")
		return
	}

	session, err := h.engine.Close(r.Context(), id, req.Notes, req.Actor)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// --- CancelSession ---

type cancelSessionRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (h *Handlers) CancelSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req cancelSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required")
		return
	}

	session, err := h.engine.Cancel(r.Context(), id, req.Reason, req.Actor)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// --- ListSessions ---

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var from, to domain.Date
	var err error
	if raw := q.Get("from"); raw != "" {
		if from, err = domain.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err = domain.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	sessions, err := h.engine.List(r.Context(), from, to, domain.SessionStatus(q.Get("status")))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// --- GetOpeningSuggestion ---

func (h *Handlers) GetOpeningSuggestion(w http.ResponseWriter, r *http.Request) {
	suggestion, err := h.engine.SuggestedOpening(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestion)
}
