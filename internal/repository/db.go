package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			receipt_number TEXT NOT NULL,
			total_amount TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT '',
			settled_on_credit INTEGER NOT NULL DEFAULT 0,
			business_date TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_business_date ON sales(business_date)`,

		`CREATE TABLE IF NOT EXISTS sale_payments (
			sale_id TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			FOREIGN KEY (sale_id) REFERENCES sales(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_payments_sale ON sale_payments(sale_id)`,

		`CREATE TABLE IF NOT EXISTS credit_payments (
			id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			client_label TEXT NOT NULL DEFAULT '',
			payment_date TEXT NOT NULL,
			paid_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_payments_date ON credit_payments(payment_date)`,

		`CREATE TABLE IF NOT EXISTS credit_deposits (
			id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			client_label TEXT NOT NULL DEFAULT '',
			business_date TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_deposits_date ON credit_deposits(business_date)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			business_date TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(business_date)`,

		`CREATE TABLE IF NOT EXISTS supplier_payments (
			id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			supplier_label TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			business_date TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_supplier_payments_date ON supplier_payments(business_date)`,

		`CREATE TABLE IF NOT EXISTS reconciliation_sessions (
			id TEXT PRIMARY KEY,
			session_date TEXT NOT NULL UNIQUE,
			opening_balance TEXT NOT NULL,
			total_cash_counted TEXT NOT NULL,
			expected_cash_amount TEXT NOT NULL,
			expected_transfer_amount TEXT NOT NULL,
			expected_other_amount TEXT NOT NULL,
			cash_difference TEXT NOT NULL,
			total_income TEXT NOT NULL,
			total_expense TEXT NOT NULL,
			net_cash_flow TEXT NOT NULL,
			status TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			cancel_reason TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TEXT NOT NULL,
			closed_by TEXT NOT NULL DEFAULT '',
			closed_at TEXT,
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON reconciliation_sessions(status)`,

		`CREATE TABLE IF NOT EXISTS session_denominations (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			face_value INTEGER NOT NULL,
			kind TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			subtotal TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES reconciliation_sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_denominations_session ON session_denominations(session_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
