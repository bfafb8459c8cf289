package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
)

// PaymentEntry is one line of a sale's itemized payment breakdown. A sale paid
// 60/40 cash/transfer carries two entries.
type PaymentEntry struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Sale is a point-of-sale receipt. SettledOnCredit sales do not move cash on
// the sale date; they are realized later through the credit-account ledger.
type Sale struct {
	ID              string          `json:"id"`
	ReceiptNumber   string          `json:"receipt_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Payments        []PaymentEntry  `json:"payments,omitempty"`
	SettledOnCredit bool            `json:"settled_on_credit"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// CreditPayment is a client repayment against an outstanding credit account.
// PaidAt, not the debt's creation date, is its business date.
type CreditPayment struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	ClientLabel string          `json:"client_label,omitempty"`
	PaidAt      time.Time       `json:"paid_at"`
}

// CreditDeposit is a client prepayment into their credit balance.
type CreditDeposit struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	ClientLabel string          `json:"client_label,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Expense is a cash-affecting outgoing recorded by the back office.
type Expense struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method,omitempty"`
	Description string          `json:"description,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// SupplierPayment is an outgoing payment to a supplier.
type SupplierPayment struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method,omitempty"`
	SupplierLabel string          `json:"supplier_label,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// The five reader contracts consumed by the aggregator. Each reader filters by
// the record's own business date, never by server insertion time.

type SalesLedger interface {
	// FindCashSales returns the cash-settled sales of the date; credit-settled
	// sales are excluded at the source.
	FindCashSales(ctx context.Context, date domain.Date) ([]Sale, error)
}

type CreditAccountLedger interface {
	FindPaymentsOn(ctx context.Context, date domain.Date) ([]CreditPayment, error)
}

type CreditBalanceLedger interface {
	FindDepositsOn(ctx context.Context, date domain.Date) ([]CreditDeposit, error)
}

type ExpenseLedger interface {
	FindOn(ctx context.Context, date domain.Date) ([]Expense, error)
}

type SupplierPaymentLedger interface {
	FindOn(ctx context.Context, date domain.Date) ([]SupplierPayment, error)
}
