package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/aggregator"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/api"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/ledger"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/reconciliation"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/repository"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "concentrados.db"
	}

	log.Printf("Initializing database at %s", dbPath)
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Ledger stores (the five cash-affecting sources).
	saleStore := ledger.NewSaleStore(db)
	creditPayStore := ledger.NewCreditPaymentStore(db)
	depositStore := ledger.NewCreditDepositStore(db)
	expenseStore := ledger.NewExpenseStore(db)
	supplierStore := ledger.NewSupplierPaymentStore(db)

	// Session store and engine.
	sessionRepo := repository.NewSessionRepo(db)
	agg := aggregator.New(saleStore, creditPayStore, depositStore, expenseStore, supplierStore)
	engine := reconciliation.NewEngine(agg, sessionRepo, domain.NewDenominationTable())

	// Seed ledgers if the DB is empty.
	var saleCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM sales").Scan(&saleCount); err != nil {
		log.Fatalf("Failed to count sales: %v", err)
	}
	if saleCount == 0 {
		log.Println("Database is empty, seeding ledgers from testdata...")
		if err := seedLedgers(saleStore, creditPayStore, depositStore, expenseStore, supplierStore); err != nil {
			log.Printf("WARNING: Failed to seed ledgers: %v", err)
		}
	} else {
		log.Printf("Database already has %d sales, skipping seed", saleCount)
	}

	router := api.NewRouter(engine)

	log.Printf("Concentrados La 28 — Daily Cash Reconciliation")
	log.Printf("Listening on http://localhost:%s", port)
	log.Printf("API base: http://localhost:%s/api/v1/reconciliation", port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  GET    /api/v1/reconciliation/summary?date=YYYY-MM-DD")
	log.Printf("  PUT    /api/v1/reconciliation/sessions/date/{date}")
	log.Printf("  GET    /api/v1/reconciliation/sessions")
	log.Printf("  GET    /api/v1/reconciliation/sessions/{id}")
	log.Printf("  GET    /api/v1/reconciliation/sessions/date/{date}")
	log.Printf("  POST   /api/v1/reconciliation/sessions/{id}/close")
	log.Printf("  POST   /api/v1/reconciliation/sessions/{id}/cancel")
	log.Printf("  GET    /api/v1/reconciliation/opening-suggestion")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// seedFile mirrors testdata/ledgers.json, one array per source ledger.
type seedFile struct {
	Sales            []ledger.Sale            `json:"sales"`
	CreditPayments   []ledger.CreditPayment   `json:"credit_payments"`
	CreditDeposits   []ledger.CreditDeposit   `json:"credit_deposits"`
	Expenses         []ledger.Expense         `json:"expenses"`
	SupplierPayments []ledger.SupplierPayment `json:"supplier_payments"`
}

func seedLedgers(
	sales *ledger.SaleStore,
	creditPay *ledger.CreditPaymentStore,
	deposits *ledger.CreditDepositStore,
	expenses *ledger.ExpenseStore,
	suppliers *ledger.SupplierPaymentStore,
) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/ledgers.json",
		filepath.Join(".", "testdata", "ledgers.json"),
	}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "ledgers.json"),
			filepath.Join(dir, "..", "..", "testdata", "ledgers.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded ledgers from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find ledgers.json in any candidate path: %w", loadErr)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("unmarshal ledgers: %w", err)
	}

	ctx := context.Background()
	for i := range seed.Sales {
		if err := sales.Insert(ctx, &seed.Sales[i]); err != nil {
			return fmt.Errorf("seed sale %d: %w", i, err)
		}
	}
	for i := range seed.CreditPayments {
		if err := creditPay.Insert(ctx, &seed.CreditPayments[i]); err != nil {
			return fmt.Errorf("seed credit payment %d: %w", i, err)
		}
	}
	for i := range seed.CreditDeposits {
		if err := deposits.Insert(ctx, &seed.CreditDeposits[i]); err != nil {
			return fmt.Errorf("seed credit deposit %d: %w", i, err)
		}
	}
	for i := range seed.Expenses {
		if err := expenses.Insert(ctx, &seed.Expenses[i]); err != nil {
			return fmt.Errorf("seed expense %d: %w", i, err)
		}
	}
	for i := range seed.SupplierPayments {
		if err := suppliers.Insert(ctx, &seed.SupplierPayments[i]); err != nil {
			return fmt.Errorf("seed supplier payment %d: %w", i, err)
		}
	}

	log.Printf("Seeded %d sales, %d credit payments, %d deposits, %d expenses, %d supplier payments",
		len(seed.Sales), len(seed.CreditPayments), len(seed.CreditDeposits),
		len(seed.Expenses), len(seed.SupplierPayments))
	return nil
}
