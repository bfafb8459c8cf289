package aggregator

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/ledger"
)

// Aggregator merges the five cash-affecting ledgers into a single list of
// normalized movements for one calendar date. It depends only on the reader
// interfaces, so tests substitute fakes for the stores.
type Aggregator struct {
	sales     ledger.SalesLedger
	creditPay ledger.CreditAccountLedger
	deposits  ledger.CreditBalanceLedger
	expenses  ledger.ExpenseLedger
	suppliers ledger.SupplierPaymentLedger
}

func New(
	sales ledger.SalesLedger,
	creditPay ledger.CreditAccountLedger,
	deposits ledger.CreditBalanceLedger,
	expenses ledger.ExpenseLedger,
	suppliers ledger.SupplierPaymentLedger,
) *Aggregator {
	return &Aggregator{
		sales:     sales,
		creditPay: creditPay,
		deposits:  deposits,
		expenses:  expenses,
		suppliers: suppliers,
	}
}

// Collect reads all five ledgers for the date concurrently and returns the
// merged movement list. Any single read failure fails the whole call: a
// partial total could mask a real cash shortage, so under-reporting is never
// an acceptable fallback. Output order is unspecified.
func (a *Aggregator) Collect(ctx context.Context, date domain.Date) ([]domain.CashMovement, error) {
	var (
		sales     []ledger.Sale
		creditPay []ledger.CreditPayment
		deposits  []ledger.CreditDeposit
		expenses  []ledger.Expense
		suppliers []ledger.SupplierPayment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if sales, err = a.sales.FindCashSales(gctx, date); err != nil {
			return fmt.Errorf("sales ledger: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if creditPay, err = a.creditPay.FindPaymentsOn(gctx, date); err != nil {
			return fmt.Errorf("credit account ledger: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if deposits, err = a.deposits.FindDepositsOn(gctx, date); err != nil {
			return fmt.Errorf("credit balance ledger: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if expenses, err = a.expenses.FindOn(gctx, date); err != nil {
			return fmt.Errorf("expense ledger: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if suppliers, err = a.suppliers.FindOn(gctx, date); err != nil {
			return fmt.Errorf("supplier payment ledger: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect movements for %s: %w", date, err)
	}

	var movements []domain.CashMovement
	for _, s := range sales {
		movements = append(movements, saleMovements(s)...)
	}
	for _, p := range creditPay {
		movements = append(movements, domain.CashMovement{
			SourceID:      p.ID,
			Direction:     domain.DirectionIncome,
			Category:      domain.CategoryCreditPayment,
			Amount:        p.Amount,
			PaymentMethod: domain.NormalizeMethod(p.Method),
			Reference:     p.Reference,
			OccurredAt:    p.PaidAt,
			Description:   p.ClientLabel,
		})
	}
	for _, d := range deposits {
		movements = append(movements, domain.CashMovement{
			SourceID:      d.ID,
			Direction:     domain.DirectionIncome,
			Category:      domain.CategoryDeposit,
			Amount:        d.Amount,
			PaymentMethod: domain.NormalizeMethod(d.Method),
			Reference:     d.Reference,
			OccurredAt:    d.OccurredAt,
			Description:   d.ClientLabel,
		})
	}
	for _, e := range expenses {
		movements = append(movements, domain.CashMovement{
			SourceID:      e.ID,
			Direction:     domain.DirectionExpense,
			Category:      domain.CategoryExpense,
			Amount:        e.Amount,
			PaymentMethod: domain.NormalizeMethod(e.Method),
			Reference:     e.Reference,
			OccurredAt:    e.OccurredAt,
			Description:   e.Description,
		})
	}
	for _, p := range suppliers {
		movements = append(movements, domain.CashMovement{
			SourceID:      p.ID,
			Direction:     domain.DirectionExpense,
			Category:      domain.CategorySupplierPayment,
			Amount:        p.Amount,
			PaymentMethod: domain.NormalizeMethod(p.Method),
			Reference:     p.Reference,
			OccurredAt:    p.OccurredAt,
			Description:   p.SupplierLabel,
		})
	}

	return movements, nil
}

// saleMovements explodes a sale into one movement per payment entry, so a
// receipt split between cash and transfer contributes to both buckets. Sales
// without an itemized breakdown fall back to the declared method against the
// full amount.
func saleMovements(s ledger.Sale) []domain.CashMovement {
	if len(s.Payments) == 0 {
		return []domain.CashMovement{{
			SourceID:          s.ID,
			Direction:         domain.DirectionIncome,
			Category:          domain.CategorySale,
			Amount:            s.TotalAmount,
			PaymentMethod:     domain.NormalizeMethod(s.PaymentMethod),
			Reference:         s.ReceiptNumber,
			OccurredAt:        s.OccurredAt,
			RelatedDocumentID: s.ID,
		}}
	}

	movements := make([]domain.CashMovement, 0, len(s.Payments))
	for i, p := range s.Payments {
		movements = append(movements, domain.CashMovement{
			SourceID:          fmt.Sprintf("%s#%d", s.ID, i),
			Direction:         domain.DirectionIncome,
			Category:          domain.CategorySale,
			Amount:            p.Amount,
			PaymentMethod:     domain.NormalizeMethod(p.Method),
			Reference:         s.ReceiptNumber,
			OccurredAt:        s.OccurredAt,
			RelatedDocumentID: s.ID,
		})
	}
	return movements
}

// SummarizeByPaymentMethod groups movements by normalized payment method.
// The result is order-independent of the input; buckets come back in a fixed
// method order for stable JSON output.
func SummarizeByPaymentMethod(movements []domain.CashMovement) []domain.PaymentMethodTotals {
	byMethod := make(map[domain.PaymentMethod]*domain.PaymentMethodTotals)
	for _, m := range movements {
		method := domain.NormalizeMethod(string(m.PaymentMethod))
		bucket, ok := byMethod[method]
		if !ok {
			bucket = &domain.PaymentMethodTotals{
				PaymentMethod: method,
				TotalIncome:   decimal.Zero,
				TotalExpense:  decimal.Zero,
				NetAmount:     decimal.Zero,
			}
			byMethod[method] = bucket
		}
		switch m.Direction {
		case domain.DirectionIncome:
			bucket.TotalIncome = bucket.TotalIncome.Add(m.Amount)
		case domain.DirectionExpense:
			bucket.TotalExpense = bucket.TotalExpense.Add(m.Amount)
		}
		bucket.MovementCount++
	}

	totals := make([]domain.PaymentMethodTotals, 0, len(byMethod))
	for _, bucket := range byMethod {
		bucket.NetAmount = bucket.TotalIncome.Sub(bucket.TotalExpense)
		totals = append(totals, *bucket)
	}
	sort.Slice(totals, func(i, j int) bool {
		return methodRank(totals[i].PaymentMethod) < methodRank(totals[j].PaymentMethod)
	})
	return totals
}

func methodRank(m domain.PaymentMethod) int {
	switch m {
	case domain.MethodCash:
		return 0
	case domain.MethodTransfer:
		return 1
	case domain.MethodCard:
		return 2
	default:
		return 3
	}
}
