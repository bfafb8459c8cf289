package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/aggregator"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/domain"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/ledger"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/reconciliation"
	"github.com/jarvis-billing/concentrados-la-28-be-sub000/internal/repository"
)

func cop(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// newTestServer wires the full stack over an in-memory database and seeds one
// day of ledger activity for 2024-02-05.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	saleStore := ledger.NewSaleStore(db)
	creditPayStore := ledger.NewCreditPaymentStore(db)
	depositStore := ledger.NewCreditDepositStore(db)
	expenseStore := ledger.NewExpenseStore(db)
	supplierStore := ledger.NewSupplierPaymentStore(db)

	ctx := context.Background()
	at := time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, saleStore.Insert(ctx, &ledger.Sale{
		ID: "SALE-1", ReceiptNumber: "FV-1", TotalAmount: cop(100000),
		Payments: []ledger.PaymentEntry{
			{Method: "CASH", Amount: cop(60000)},
			{Method: "TRANSFER", Amount: cop(40000)},
		},
		OccurredAt: at,
	}))
	require.NoError(t, saleStore.Insert(ctx, &ledger.Sale{
		ID: "SALE-2", ReceiptNumber: "FV-2", TotalAmount: cop(80000),
		PaymentMethod: "CASH", OccurredAt: at,
	}))
	require.NoError(t, expenseStore.Insert(ctx, &ledger.Expense{
		ID: "EXP-1", Amount: cop(20000), Description: "Transporte", OccurredAt: at,
	}))

	agg := aggregator.New(saleStore, creditPayStore, depositStore, expenseStore, supplierStore)
	engine := reconciliation.NewEngine(agg, repository.NewSessionRepo(db), domain.NewDenominationTable())

	srv := httptest.NewServer(NewRouter(engine))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func putSessionBody(opening int64) map[string]any {
	return map[string]any{
		"opening_balance": fmt.Sprintf("%d", opening),
		"denominations": []map[string]int64{
			{"face_value": 100000, "quantity": 1},
			{"face_value": 20000, "quantity": 2},
			{"face_value": 1000, "quantity": 0},
		},
		"notes": "turno normal",
		"actor": "maria",
	}
}

func TestGetDailySummary(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/reconciliation/summary?date=2024-02-05", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary domain.DailySummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Len(t, summary.Movements, 4) // split sale explodes into two
	assert.True(t, cop(180000).Equal(summary.TotalIncome))
	assert.True(t, cop(20000).Equal(summary.TotalExpense))
	// Expense has no method recorded → defaults to CASH.
	assert.True(t, cop(120000).Equal(summary.ExpectedCash))
	assert.True(t, cop(40000).Equal(summary.ExpectedTransfer))
	assert.True(t, cop(160000).Equal(summary.NetCashFlow))
}

func TestGetDailySummaryRequiresDate(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/reconciliation/summary", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutSessionComputesDerivedFields(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPut,
		srv.URL+"/api/v1/reconciliation/sessions/date/2024-02-05", putSessionBody(10000))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var session domain.ReconciliationSession
	require.NoError(t, json.Unmarshal(body, &session))
	assert.Equal(t, domain.Date("2024-02-05"), session.SessionDate)
	assert.Equal(t, domain.StatusInProgress, session.Status)
	require.Len(t, session.Denominations, 2, "zero-quantity row must be dropped")
	assert.True(t, cop(140000).Equal(session.TotalCashCounted))
	assert.True(t, cop(120000).Equal(session.ExpectedCashAmount))
	// 140000 − (10000 + 120000) = 10000 surplus.
	assert.True(t, cop(10000).Equal(session.CashDifference))
}

func TestPutSessionRejectsNegativeQuantity(t *testing.T) {
	srv := newTestServer(t)

	body := putSessionBody(0)
	body["denominations"] = []map[string]int64{{"face_value": 1000, "quantity": -3}}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/reconciliation/sessions/date/2024-02-05", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutSessionRequiresActor(t *testing.T) {
	srv := newTestServer(t)

	body := putSessionBody(0)
	body["actor"] = ""
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/reconciliation/sessions/date/2024-02-05", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/reconciliation"

	// Open.
	resp, body := doJSON(t, http.MethodPut, base+"/sessions/date/2024-02-05", putSessionBody(0))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session domain.ReconciliationSession
	require.NoError(t, json.Unmarshal(body, &session))

	// Fetch by date and by id.
	resp, _ = doJSON(t, http.MethodGet, base+"/sessions/date/2024-02-05", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, base+"/sessions/"+session.ID.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Close.
	resp, body = doJSON(t, http.MethodPost, base+"/sessions/"+session.ID.String()+"/close",
		map[string]string{"notes": "todo cuadró", "actor": "pedro"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var closed domain.ReconciliationSession
	require.NoError(t, json.Unmarshal(body, &closed))
	assert.Equal(t, domain.StatusClosed, closed.Status)
	assert.Contains(t, closed.Notes, "Cierre: todo cuadró")

	// Mutations after close are rejected as conflicts.
	resp, _ = doJSON(t, http.MethodPut, base+"/sessions/date/2024-02-05", putSessionBody(0))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, base+"/sessions/"+session.ID.String()+"/close",
		map[string]string{"actor": "pedro"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, base+"/sessions/"+session.ID.String()+"/cancel",
		map[string]string{"reason": "tarde", "actor": "pedro"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The closed count feeds the next opening suggestion.
	resp, body = doJSON(t, http.MethodGet, base+"/opening-suggestion", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var suggestion reconciliation.OpeningSuggestion
	require.NoError(t, json.Unmarshal(body, &suggestion))
	assert.True(t, closed.TotalCashCounted.Equal(suggestion.Balance))
	assert.Equal(t, domain.Date("2024-02-05"), suggestion.LastCloseDate)
}

func TestGetSessionNotFound(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/reconciliation"

	resp, _ := doJSON(t, http.MethodGet, base+"/sessions/date/2030-01-01", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, base+"/sessions/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, base+"/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListSessions(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/reconciliation"

	resp, body := doJSON(t, http.MethodGet, base+"/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty struct {
		Sessions []domain.SessionSummary `json:"sessions"`
		Total    int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &empty))
	assert.Equal(t, 0, empty.Total)
	assert.NotNil(t, empty.Sessions)

	_, _ = doJSON(t, http.MethodPut, base+"/sessions/date/2024-02-05", putSessionBody(0))

	resp, body = doJSON(t, http.MethodGet, base+"/sessions?status=IN_PROGRESS&from=2024-02-01&to=2024-02-28", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Sessions []domain.SessionSummary `json:"sessions"`
		Total    int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Equal(t, 1, listed.Total)
	assert.Equal(t, domain.Date("2024-02-05"), listed.Sessions[0].SessionDate)

	resp, _ = doJSON(t, http.MethodGet, base+"/sessions?status=ARCHIVED", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
