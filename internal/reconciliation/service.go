package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/aggregator"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/repository"
)

// MovementCollector is the aggregator contract the engine depends on.
type MovementCollector interface {
	Collect(ctx context.Context, date domain.Date) ([]domain.CashMovement, error)
}

// SessionStore is the persistence contract for reconciliation sessions.
// *repository.SessionRepo implements it; tests substitute an in-memory fake.
type SessionStore interface {
	Insert(ctx context.Context, s *domain.ReconciliationSession) error
	Update(ctx context.Context, s *domain.ReconciliationSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationSession, error)
	GetByDate(ctx context.Context, date domain.Date) (*domain.ReconciliationSession, error)
	LatestClosed(ctx context.Context) (*domain.ReconciliationSession, error)
	List(ctx context.Context, filter repository.SessionFilter) ([]domain.SessionSummary, error)
}

// DenominationInput is a raw counted row as submitted by the client. Kind and
// subtotal are never taken from input; the engine derives both.
type DenominationInput struct {
	FaceValue int64 `json:"face_value"`
	Quantity  int64 `json:"quantity"`
}

// OpeningSuggestion carries the counted cash of the last closed session
// forward as the next day's suggested opening float.
type OpeningSuggestion struct {
	Balance       decimal.Decimal `json:"balance"`
	LastCloseDate domain.Date     `json:"last_close_date,omitempty"`
}

// Engine orchestrates aggregation, denomination totalling, difference
// computation and the session state machine.
type Engine struct {
	collector     MovementCollector
	sessions      SessionStore
	denominations *domain.DenominationTable
	now           func() time.Time
}

func NewEngine(collector MovementCollector, sessions SessionStore, denominations *domain.DenominationTable) *Engine {
	return &Engine{
		collector:     collector,
		sessions:      sessions,
		denominations: denominations,
		now:           time.Now,
	}
}

// DailySummary recomputes the day's movements and totals from the ledgers'
// current state. It has no side effects and may be called repeatedly; it is
// not a frozen snapshot.
func (e *Engine) DailySummary(ctx context.Context, date domain.Date) (*domain.DailySummary, error) {
	movements, err := e.collector.Collect(ctx, date)
	if err != nil {
		return nil, err
	}

	totals := aggregator.SummarizeByPaymentMethod(movements)

	summary := &domain.DailySummary{
		Date:             date,
		Movements:        movements,
		TotalsByMethod:   totals,
		TotalIncome:      decimal.Zero,
		TotalExpense:     decimal.Zero,
		ExpectedCash:     decimal.Zero,
		ExpectedTransfer: decimal.Zero,
		ExpectedOther:    decimal.Zero,
	}
	if summary.Movements == nil {
		summary.Movements = []domain.CashMovement{}
	}

	for _, m := range movements {
		switch m.Direction {
		case domain.DirectionIncome:
			summary.TotalIncome = summary.TotalIncome.Add(m.Amount)
		case domain.DirectionExpense:
			summary.TotalExpense = summary.TotalExpense.Add(m.Amount)
		}
	}
	summary.NetCashFlow = summary.TotalIncome.Sub(summary.TotalExpense)

	for _, t := range totals {
		switch t.PaymentMethod {
		case domain.MethodCash:
			summary.ExpectedCash = summary.ExpectedCash.Add(t.NetAmount)
		case domain.MethodTransfer:
			summary.ExpectedTransfer = summary.ExpectedTransfer.Add(t.NetAmount)
		default:
			summary.ExpectedOther = summary.ExpectedOther.Add(t.NetAmount)
		}
	}

	return summary, nil
}

// CreateOrUpdate submits a cash count for a date. It creates the date's
// session on first submission and fully recomputes every derived field from
// current ledger state on each call, so repeated submissions while
// IN_PROGRESS converge with the ledgers. CLOSED and CANCELLED dates reject
// the call.
func (e *Engine) CreateOrUpdate(
	ctx context.Context,
	date domain.Date,
	openingBalance decimal.Decimal,
	inputs []DenominationInput,
	notes string,
	actor string,
) (*domain.ReconciliationSession, error) {
	if date == "" {
		return nil, fmt.Errorf("%w: session date is required", ErrInvalidInput)
	}
	if openingBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance must not be negative", ErrInvalidInput)
	}

	counts, err := e.normalizeDenominations(inputs)
	if err != nil {
		return nil, err
	}

	session, err := e.sessions.GetByDate(ctx, date)
	switch {
	case err == nil:
		switch session.Status {
		case domain.StatusClosed:
			return nil, fmt.Errorf("session for %s: %w", date, ErrSessionClosed)
		case domain.StatusCancelled:
			return nil, fmt.Errorf("session for %s: %w", date, ErrSessionCancelled)
		}
	case errors.Is(err, repository.ErrNotFound):
		session = &domain.ReconciliationSession{
			ID:          uuid.New(),
			SessionDate: date,
			Status:      domain.StatusInProgress,
			CreatedBy:   actor,
			CreatedAt:   e.now(),
		}
	default:
		return nil, fmt.Errorf("load session for %s: %w", date, err)
	}

	summary, err := e.DailySummary(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", date, err)
	}

	session.OpeningBalance = openingBalance
	session.Denominations = counts
	session.Notes = notes

	session.TotalCashCounted = decimal.Zero
	for _, c := range counts {
		session.TotalCashCounted = session.TotalCashCounted.Add(c.Subtotal)
	}

	session.TotalIncome = summary.TotalIncome
	session.TotalExpense = summary.TotalExpense
	session.ExpectedCashAmount = summary.ExpectedCash
	session.ExpectedTransferAmount = summary.ExpectedTransfer
	session.ExpectedOtherAmount = summary.ExpectedOther
	session.NetCashFlow = summary.TotalIncome.Sub(summary.TotalExpense)
	session.CashDifference = session.TotalCashCounted.Sub(openingBalance.Add(summary.ExpectedCash))

	if session.Version == 0 {
		if err := e.sessions.Insert(ctx, session); err != nil {
			return nil, fmt.Errorf("create session for %s: %w", date, err)
		}
		log.Printf("[reconciliation] Opened session %s for %s (counted=%s, difference=%s)",
			session.ID, date, session.TotalCashCounted, session.CashDifference)
	} else {
		if err := e.sessions.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("update session for %s: %w", date, err)
		}
		log.Printf("[reconciliation] Updated session %s for %s (counted=%s, difference=%s)",
			session.ID, date, session.TotalCashCounted, session.CashDifference)
	}

	return session, nil
}

// normalizeDenominations drops zero-quantity rows, rejects negative input and
// derives kind and subtotal from the denomination table.
func (e *Engine) normalizeDenominations(inputs []DenominationInput) ([]domain.DenominationCount, error) {
	var counts []domain.DenominationCount
	for _, in := range inputs {
		if in.FaceValue <= 0 {
			return nil, fmt.Errorf("%w: face value %d must be positive", ErrInvalidInput, in.FaceValue)
		}
		if in.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity %d for face value %d must not be negative", ErrInvalidInput, in.Quantity, in.FaceValue)
		}
		if in.Quantity == 0 {
			continue
		}
		counts = append(counts, domain.DenominationCount{
			FaceValue: in.FaceValue,
			Kind:      e.denominations.Classify(in.FaceValue),
			Quantity:  in.Quantity,
			Subtotal:  domain.Subtotal(in.FaceValue, in.Quantity),
		})
	}
	return counts, nil
}

// Close terminates an IN_PROGRESS session. Closing notes are appended under a
// "Cierre:" tag rather than overwriting what the cashier recorded during the
// day. CLOSED is terminal.
func (e *Engine) Close(ctx context.Context, id uuid.UUID, notes, actor string) (*domain.ReconciliationSession, error) {
	session, err := e.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	switch session.Status {
	case domain.StatusClosed:
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionClosed)
	case domain.StatusCancelled:
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionCancelled)
	}

	closedAt := e.now()
	session.Status = domain.StatusClosed
	session.ClosedBy = actor
	session.ClosedAt = &closedAt
	if notes != "" {
		if session.Notes != "" {
			session.Notes += "\n"
		}
		session.Notes += "Cierre: " + notes
	}

	if err := e.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("close session %s: %w", id, err)
	}
	log.Printf("[reconciliation] Closed session %s for %s by %s (difference=%s)",
		session.ID, session.SessionDate, actor, session.CashDifference)
	return session, nil
}

// Cancel voids an IN_PROGRESS session. Closed sessions cannot be retroactively
// voided, and a cancelled session cannot be cancelled again. The closed-by
// fields double as the cancellation stamp.
func (e *Engine) Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (*domain.ReconciliationSession, error) {
	session, err := e.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	switch session.Status {
	case domain.StatusClosed:
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionClosed)
	case domain.StatusCancelled:
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionCancelled)
	}

	cancelledAt := e.now()
	session.Status = domain.StatusCancelled
	session.CancelReason = reason
	session.ClosedBy = actor
	session.ClosedAt = &cancelledAt

	if err := e.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("cancel session %s: %w", id, err)
	}
	log.Printf("[reconciliation] Cancelled session %s for %s by %s (reason=%q)",
		session.ID, session.SessionDate, actor, reason)
	return session, nil
}

// Get loads a session by id.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*domain.ReconciliationSession, error) {
	return e.sessions.GetByID(ctx, id)
}

// GetByDate loads the session for a calendar date.
func (e *Engine) GetByDate(ctx context.Context, date domain.Date) (*domain.ReconciliationSession, error) {
	return e.sessions.GetByDate(ctx, date)
}

// List returns session summaries filtered by inclusive date range and/or
// status, newest date first. Absent filters broaden the query.
func (e *Engine) List(ctx context.Context, from, to domain.Date, status domain.SessionStatus) ([]domain.SessionSummary, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	summaries, err := e.sessions.List(ctx, repository.SessionFilter{From: from, To: to, Status: status})
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []domain.SessionSummary{}
	}
	return summaries, nil
}

// SuggestedOpening returns the counted cash of the most recently dated CLOSED
// session as the next opening balance. With no closed session anywhere it
// suggests zero with no date.
func (e *Engine) SuggestedOpening(ctx context.Context) (*OpeningSuggestion, error) {
	latest, err := e.sessions.LatestClosed(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return &OpeningSuggestion{Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest closed session: %w", err)
	}
	return &OpeningSuggestion{
		Balance:       latest.TotalCashCounted,
		LastCloseDate: latest.SessionDate,
	}, nil
}
