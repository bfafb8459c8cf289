package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusClosed     SessionStatus = "CLOSED"
	StatusCancelled  SessionStatus = "CANCELLED"
)

// ValidStatus reports whether s is one of the known session states.
func ValidStatus(s SessionStatus) bool {
	switch s {
	case StatusInProgress, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// ReconciliationSession ties a physical cash count to the ledgers' expected
// totals for one calendar date. Exactly one session exists per date. Status
// transitions are monotone: IN_PROGRESS → CLOSED or CANCELLED, and both of
// those are terminal.
//
// All derived fields (Subtotal, TotalCashCounted, CashDifference, NetCashFlow
// and the expected amounts) are recomputed by the engine on every write and
// never trusted from input.
type ReconciliationSession struct {
	ID          uuid.UUID `json:"id"`
	SessionDate Date      `json:"session_date"`

	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	Denominations  []DenominationCount `json:"denominations"`

	TotalCashCounted decimal.Decimal `json:"total_cash_counted"`

	ExpectedCashAmount     decimal.Decimal `json:"expected_cash_amount"`
	ExpectedTransferAmount decimal.Decimal `json:"expected_transfer_amount"`
	ExpectedOtherAmount    decimal.Decimal `json:"expected_other_amount"`

	// CashDifference = TotalCashCounted − (OpeningBalance + ExpectedCashAmount).
	// Positive is surplus, negative is shortage.
	CashDifference decimal.Decimal `json:"cash_difference"`

	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetCashFlow  decimal.Decimal `json:"net_cash_flow"`

	Status       SessionStatus `json:"status"`
	Notes        string        `json:"notes,omitempty"`
	CancelReason string        `json:"cancel_reason,omitempty"`

	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedBy  string     `json:"closed_by,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// Version guards concurrent updates; incremented on every successful write.
	Version int64 `json:"version"`
}

// SessionSummary is the list-view projection of a session.
type SessionSummary struct {
	ID               uuid.UUID       `json:"id"`
	SessionDate      Date            `json:"session_date"`
	Status           SessionStatus   `json:"status"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	TotalCashCounted decimal.Decimal `json:"total_cash_counted"`
	CashDifference   decimal.Decimal `json:"cash_difference"`
	NetCashFlow      decimal.Decimal `json:"net_cash_flow"`
	CreatedBy        string          `json:"created_by"`
	ClosedBy         string          `json:"closed_by,omitempty"`
	ClosedAt         *time.Time      `json:"closed_at,omitempty"`
}

// Summary projects the session into its list view.
func (s *ReconciliationSession) Summary() SessionSummary {
	return SessionSummary{
		ID:               s.ID,
		SessionDate:      s.SessionDate,
		Status:           s.Status,
		OpeningBalance:   s.OpeningBalance,
		TotalCashCounted: s.TotalCashCounted,
		CashDifference:   s.CashDifference,
		NetCashFlow:      s.NetCashFlow,
		CreatedBy:        s.CreatedBy,
		ClosedBy:         s.ClosedBy,
		ClosedAt:         s.ClosedAt,
	}
}
