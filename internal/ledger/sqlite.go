package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
)

// SQLite-backed implementations of the five ledger readers. Each table keeps a
// business_date column alongside the full timestamp; queries filter on the
// date column so the source's own notion of "transaction date" decides
// membership, not server insertion time.

func scanDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q: %w", s, err)
	}
	return d, nil
}

func scanTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

// --- SaleStore ---

type SaleStore struct {
	db *sql.DB
}

func NewSaleStore(db *sql.DB) *SaleStore {
	return &SaleStore{db: db}
}

func (s *SaleStore) Insert(ctx context.Context, sale *Sale) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	credit := 0
	if sale.SettledOnCredit {
		credit = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales
		(id, receipt_number, total_amount, payment_method, settled_on_credit, business_date, occurred_at)
		VALUES (?,?,?,?,?,?,?)`,
		sale.ID, sale.ReceiptNumber, sale.TotalAmount.String(), sale.PaymentMethod,
		credit, string(domain.DateOf(sale.OccurredAt)), sale.OccurredAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert sale %s: %w", sale.ID, err)
	}

	for i, p := range sale.Payments {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sale_payments (sale_id, method, amount) VALUES (?,?,?)`,
			sale.ID, p.Method, p.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("insert sale payment %d for %s: %w", i, sale.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SaleStore) FindCashSales(ctx context.Context, date domain.Date) ([]Sale, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, receipt_number, total_amount, payment_method, occurred_at
		 FROM sales WHERE business_date = ? AND settled_on_credit = 0`,
		string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var (
			sale               Sale
			amount, occurredAt string
		)
		if err := rows.Scan(&sale.ID, &sale.ReceiptNumber, &amount, &sale.PaymentMethod, &occurredAt); err != nil {
			return nil, err
		}
		if sale.TotalAmount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		if sale.OccurredAt, err = scanTime(occurredAt); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sales {
		payments, err := s.paymentsFor(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Payments = payments
	}
	return sales, nil
}

func (s *SaleStore) paymentsFor(ctx context.Context, saleID string) ([]PaymentEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT method, amount FROM sale_payments WHERE sale_id = ?`, saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sale payments: %w", err)
	}
	defer rows.Close()

	var entries []PaymentEntry
	for rows.Next() {
		var (
			entry  PaymentEntry
			amount string
		)
		if err := rows.Scan(&entry.Method, &amount); err != nil {
			return nil, err
		}
		if entry.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// --- CreditPaymentStore ---

type CreditPaymentStore struct {
	db *sql.DB
}

func NewCreditPaymentStore(db *sql.DB) *CreditPaymentStore {
	return &CreditPaymentStore{db: db}
}

func (s *CreditPaymentStore) Insert(ctx context.Context, p *CreditPayment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credit_payments
		(id, amount, method, reference, client_label, payment_date, paid_at)
		VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.Amount.String(), p.Method, p.Reference, p.ClientLabel,
		string(domain.DateOf(p.PaidAt)), p.PaidAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert credit payment %s: %w", p.ID, err)
	}
	return nil
}

// FindPaymentsOn filters by the payment's own payment_date, regardless of when
// the underlying debt was created.
func (s *CreditPaymentStore) FindPaymentsOn(ctx context.Context, date domain.Date) ([]CreditPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, method, reference, client_label, paid_at
		 FROM credit_payments WHERE payment_date = ?`,
		string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("query credit payments: %w", err)
	}
	defer rows.Close()

	var payments []CreditPayment
	for rows.Next() {
		var (
			p              CreditPayment
			amount, paidAt string
		)
		if err := rows.Scan(&p.ID, &amount, &p.Method, &p.Reference, &p.ClientLabel, &paidAt); err != nil {
			return nil, err
		}
		if p.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		if p.PaidAt, err = scanTime(paidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// --- CreditDepositStore ---

type CreditDepositStore struct {
	db *sql.DB
}

func NewCreditDepositStore(db *sql.DB) *CreditDepositStore {
	return &CreditDepositStore{db: db}
}

func (s *CreditDepositStore) Insert(ctx context.Context, d *CreditDeposit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credit_deposits
		(id, amount, method, reference, client_label, business_date, occurred_at)
		VALUES (?,?,?,?,?,?,?)`,
		d.ID, d.Amount.String(), d.Method, d.Reference, d.ClientLabel,
		string(domain.DateOf(d.OccurredAt)), d.OccurredAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert credit deposit %s: %w", d.ID, err)
	}
	return nil
}

func (s *CreditDepositStore) FindDepositsOn(ctx context.Context, date domain.Date) ([]CreditDeposit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, method, reference, client_label, occurred_at
		 FROM credit_deposits WHERE business_date = ?`,
		string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("query credit deposits: %w", err)
	}
	defer rows.Close()

	var deposits []CreditDeposit
	for rows.Next() {
		var (
			d                  CreditDeposit
			amount, occurredAt string
		)
		if err := rows.Scan(&d.ID, &amount, &d.Method, &d.Reference, &d.ClientLabel, &occurredAt); err != nil {
			return nil, err
		}
		if d.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		if d.OccurredAt, err = scanTime(occurredAt); err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// --- ExpenseStore ---

type ExpenseStore struct {
	db *sql.DB
}

func NewExpenseStore(db *sql.DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

func (s *ExpenseStore) Insert(ctx context.Context, e *Expense) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses
		(id, amount, method, description, reference, business_date, occurred_at)
		VALUES (?,?,?,?,?,?,?)`,
		e.ID, e.Amount.String(), e.Method, e.Description, e.Reference,
		string(domain.DateOf(e.OccurredAt)), e.OccurredAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert expense %s: %w", e.ID, err)
	}
	return nil
}

func (s *ExpenseStore) FindOn(ctx context.Context, date domain.Date) ([]Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, method, description, reference, occurred_at
		 FROM expenses WHERE business_date = ?`,
		string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var (
			e                  Expense
			amount, occurredAt string
		)
		if err := rows.Scan(&e.ID, &amount, &e.Method, &e.Description, &e.Reference, &occurredAt); err != nil {
			return nil, err
		}
		if e.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		if e.OccurredAt, err = scanTime(occurredAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// --- SupplierPaymentStore ---

type SupplierPaymentStore struct {
	db *sql.DB
}

func NewSupplierPaymentStore(db *sql.DB) *SupplierPaymentStore {
	return &SupplierPaymentStore{db: db}
}

func (s *SupplierPaymentStore) Insert(ctx context.Context, p *SupplierPayment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO supplier_payments
		(id, amount, method, supplier_label, reference, business_date, occurred_at)
		VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.Amount.String(), p.Method, p.SupplierLabel, p.Reference,
		string(domain.DateOf(p.OccurredAt)), p.OccurredAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert supplier payment %s: %w", p.ID, err)
	}
	return nil
}

func (s *SupplierPaymentStore) FindOn(ctx context.Context, date domain.Date) ([]SupplierPayment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, method, supplier_label, reference, occurred_at
		 FROM supplier_payments WHERE business_date = ?`,
		string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("query supplier payments: %w", err)
	}
	defer rows.Close()

	var payments []SupplierPayment
	for rows.Next() {
		var (
			p                  SupplierPayment
			amount, occurredAt string
		)
		if err := rows.Scan(&p.ID, &amount, &p.Method, &p.SupplierLabel, &p.Reference, &occurredAt); err != nil {
			return nil, err
		}
		if p.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		if p.OccurredAt, err = scanTime(occurredAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
