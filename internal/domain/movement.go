package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementDirection string

const (
	DirectionIncome  MovementDirection = "INCOME"
	DirectionExpense MovementDirection = "EXPENSE"
)

type MovementCategory string

const (
	CategorySale            MovementCategory = "SALE"
	CategoryCreditPayment   MovementCategory = "CREDIT_PAYMENT"
	CategoryDeposit         MovementCategory = "DEPOSIT"
	CategoryExpense         MovementCategory = "EXPENSE"
	CategorySupplierPayment MovementCategory = "SUPPLIER_PAYMENT"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodCard     PaymentMethod = "CARD"
	MethodOther    PaymentMethod = "OTHER"
)

// NormalizeMethod maps a raw payment-method string to a known PaymentMethod.
// Empty and unrecognized values default to CASH; this mirrors how the ledgers
// have historically recorded unspecified methods, so changing the default
// would shift past reconciliation outcomes.
func NormalizeMethod(raw string) PaymentMethod {
	switch PaymentMethod(raw) {
	case MethodCash, MethodTransfer, MethodCard, MethodOther:
		return PaymentMethod(raw)
	default:
		return MethodCash
	}
}

// CashMovement is a single normalized income/expense event drawn from one of
// the five source ledgers. Movements are ephemeral: they are recomputed on
// every summary request and never persisted.
type CashMovement struct {
	SourceID          string            `json:"source_id"`
	Direction         MovementDirection `json:"direction"`
	Category          MovementCategory  `json:"category"`
	Amount            decimal.Decimal   `json:"amount"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	Reference         string            `json:"reference,omitempty"`
	OccurredAt        time.Time         `json:"occurred_at"`
	RelatedDocumentID string            `json:"related_document_id,omitempty"`
	Description       string            `json:"description,omitempty"`
}

// PaymentMethodTotals aggregates movements for one payment method.
type PaymentMethodTotals struct {
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpense  decimal.Decimal `json:"total_expense"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	MovementCount int             `json:"movement_count"`
}

// DailySummary is the read-only view of one calendar day across all ledgers.
type DailySummary struct {
	Date             Date                  `json:"date"`
	Movements        []CashMovement        `json:"movements"`
	TotalsByMethod   []PaymentMethodTotals `json:"totals_by_method"`
	TotalIncome      decimal.Decimal       `json:"total_income"`
	TotalExpense     decimal.Decimal       `json:"total_expense"`
	NetCashFlow      decimal.Decimal       `json:"net_cash_flow"`
	ExpectedCash     decimal.Decimal       `json:"expected_cash_amount"`
	ExpectedTransfer decimal.Decimal       `json:"expected_transfer_amount"`
	ExpectedOther    decimal.Decimal       `json:"expected_other_amount"`
}
