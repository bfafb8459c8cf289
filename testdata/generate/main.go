package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/ledger"
)

// Generates testdata/ledgers.json: two weeks of plausible activity across the
// five cash-affecting ledgers, including split-payment sales.

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Date range: 2024-02-05 to 2024-02-18.
	startDate := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	days := 14

	methods := []string{"CASH", "CASH", "CASH", "TRANSFER", "CARD"}
	clients := []string{"Finca El Porvenir", "Granja San José", "Avícola La Ceiba", "Don Hernando", "Criadero El Roble"}
	suppliers := []string{"Solla S.A.", "Contegral", "Italcol", "Finca S.A."}
	expenseDescs := []string{"Servicio de energía", "Transporte de bultos", "Papelería", "Aseo local", "Almuerzos"}

	// COP amounts: multiples of 50 between 5,000 and 400,000.
	copAmount := func() decimal.Decimal {
		units := rng.Intn(7900) + 100 // 100..7999 units of 50
		return decimal.NewFromInt(int64(units) * 50)
	}

	var seed struct {
		Sales            []ledger.Sale            `json:"sales"`
		CreditPayments   []ledger.CreditPayment   `json:"credit_payments"`
		CreditDeposits   []ledger.CreditDeposit   `json:"credit_deposits"`
		Expenses         []ledger.Expense         `json:"expenses"`
		SupplierPayments []ledger.SupplierPayment `json:"supplier_payments"`
	}

	saleSeq := 0
	for day := 0; day < days; day++ {
		dayStart := startDate.AddDate(0, 0, day)
		at := func() time.Time {
			return dayStart.Add(time.Duration(8+rng.Intn(11)) * time.Hour).
				Add(time.Duration(rng.Intn(60)) * time.Minute)
		}

		// 12-25 sales per day.
		for i := 0; i < 12+rng.Intn(14); i++ {
			saleSeq++
			sale := ledger.Sale{
				ID:            fmt.Sprintf("SALE-%05d", saleSeq),
				ReceiptNumber: fmt.Sprintf("FV-%05d", saleSeq),
				TotalAmount:   copAmount(),
				OccurredAt:    at(),
			}

			roll := rng.Float64()
			switch {
			case roll < 0.15:
				// Credit sale: no cash moves today.
				sale.SettledOnCredit = true
				sale.PaymentMethod = "CASH"
			case roll < 0.30:
				// Split payment: part cash, part transfer.
				cash := sale.TotalAmount.Mul(decimal.NewFromFloat(0.6)).RoundBank(2)
				sale.Payments = []ledger.PaymentEntry{
					{Method: "CASH", Amount: cash},
					{Method: "TRANSFER", Amount: sale.TotalAmount.Sub(cash)},
				}
			default:
				sale.PaymentMethod = methods[rng.Intn(len(methods))]
			}
			seed.Sales = append(seed.Sales, sale)
		}

		// 0-4 credit repayments.
		for i := 0; i < rng.Intn(5); i++ {
			seed.CreditPayments = append(seed.CreditPayments, ledger.CreditPayment{
				ID:          fmt.Sprintf("CPAY-%03d-%d", day, i),
				Amount:      copAmount(),
				Method:      methods[rng.Intn(len(methods))],
				Reference:   fmt.Sprintf("RC-%03d-%d", day, i),
				ClientLabel: clients[rng.Intn(len(clients))],
				PaidAt:      at(),
			})
		}

		// 0-2 credit deposits.
		for i := 0; i < rng.Intn(3); i++ {
			seed.CreditDeposits = append(seed.CreditDeposits, ledger.CreditDeposit{
				ID:          fmt.Sprintf("CDEP-%03d-%d", day, i),
				Amount:      copAmount(),
				Method:      methods[rng.Intn(len(methods))],
				Reference:   fmt.Sprintf("DP-%03d-%d", day, i),
				ClientLabel: clients[rng.Intn(len(clients))],
				OccurredAt:  at(),
			})
		}

		// 1-3 expenses; some with no recorded method.
		for i := 0; i < 1+rng.Intn(3); i++ {
			method := ""
			if rng.Float64() < 0.7 {
				method = methods[rng.Intn(len(methods))]
			}
			seed.Expenses = append(seed.Expenses, ledger.Expense{
				ID:          fmt.Sprintf("EXP-%03d-%d", day, i),
				Amount:      copAmount(),
				Method:      method,
				Description: expenseDescs[rng.Intn(len(expenseDescs))],
				Reference:   fmt.Sprintf("EG-%03d-%d", day, i),
				OccurredAt:  at(),
			})
		}

		// 0-2 supplier payments.
		for i := 0; i < rng.Intn(3); i++ {
			seed.SupplierPayments = append(seed.SupplierPayments, ledger.SupplierPayment{
				ID:            fmt.Sprintf("SPAY-%03d-%d", day, i),
				Amount:        copAmount().Mul(decimal.NewFromInt(3)),
				Method:        methods[rng.Intn(len(methods))],
				SupplierLabel: suppliers[rng.Intn(len(suppliers))],
				Reference:     fmt.Sprintf("PP-%03d-%d", day, i),
				OccurredAt:    at(),
			})
		}
	}

	writeJSONFile(filepath.Join(baseDir, "ledgers.json"), seed)
	fmt.Printf("Generated %d sales, %d credit payments, %d deposits, %d expenses, %d supplier payments -> ledgers.json\n",
		len(seed.Sales), len(seed.CreditPayments), len(seed.CreditDeposits),
		len(seed.Expenses), len(seed.SupplierPayments))
}

func findTestdataDir() string {
	candidates := []string{"testdata", ".", filepath.Join("..", "..", "testdata")}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(c, "generate")); err == nil {
				return c
			}
		}
	}
	return "."
}

func writeJSONFile(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
}
