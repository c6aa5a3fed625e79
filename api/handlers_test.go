/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Catalog endpoints (create, get, restock, low-stock)
- Sale submission (confirmed and rejected outcomes)
- Reporting and history endpoints
- Actor attribution and error mapping
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcraft/stock-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	h := NewHandler(engine.NewSaleEngine(nil), nil, nil)
	return h, NewRouter(h, NoAuth{})
}

func addTestItem(t *testing.T, h *Handler, id string, stock, min int, unitPrice float64) {
	t.Helper()
	require.NoError(t, h.Engine.AddItem(engine.NewInventoryItem(
		engine.ItemID(id), "Item "+id, "", stock, min, decimal.NewFromFloat(unitPrice))))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

// =============================================================================
// CATALOG ENDPOINTS
// =============================================================================

func TestCreateItem_AndGet(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items", CreateItemRequest{
		ItemID:       "B500",
		Name:         "Chocolate Cake",
		InitialStock: 10,
		MinimumStock: 2,
		UnitPrice:    "1.50",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[ItemDTO](t, rec)
	assert.Equal(t, "B500", created.ItemID)
	assert.Equal(t, 10, created.CurrentStock)
	assert.Equal(t, "1.50", created.UnitPrice)

	rec = doJSON(t, router, http.MethodGet, "/api/items/B500", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateItem_DuplicateConflict(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 10, 2, 1.50)

	rec := doJSON(t, router, http.MethodPost, "/api/items", CreateItemRequest{
		ItemID: "B500", Name: "Again", InitialStock: 5, UnitPrice: "1.00",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateItem_BadPrice(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/items", CreateItemRequest{
		ItemID: "B500", Name: "Cake", InitialStock: 5, UnitPrice: "one fifty",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetItem_NotFound(t *testing.T) {
	_, router := newTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/api/items/GHOST", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestock_RecordsActor(t *testing.T) {
	// GIVEN: An item with 6 units
	// WHEN: Restocking 10 with X-Actor: manager
	// THEN: Stock is 16 and the RESTOCK entry names the manager

	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 6, 2, 1.50)

	rec := doJSON(t, router, http.MethodPost, "/api/items/B500/restock",
		RestockRequest{Quantity: 10}, map[string]string{ActorHeader: "manager"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	item := decode[ItemDTO](t, rec)
	assert.Equal(t, 16, item.CurrentStock)

	entries := h.Engine.SaleHistory()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, engine.ActionRestock, last.Action)
	assert.Equal(t, "manager", last.Actor)
}

func TestListLowStock(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "LOW", 1, 5, 1.00)
	addTestItem(t, h, "OK", 10, 5, 1.00)

	rec := doJSON(t, router, http.MethodGet, "/api/items/low-stock", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode[[]ItemDTO](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "LOW", items[0].ItemID)
	assert.True(t, items[0].BelowMinimum)
}

func TestListItems_SortValidation(t *testing.T) {
	_, router := newTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/api/items?sort=sideways", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SALE ENDPOINTS
// =============================================================================

func TestSubmitSale_Confirmed(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 10, 2, 1.50)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", SubmitSaleRequest{
		CustomerID: "CUST-1",
		Items:      []SaleLineDTO{{ItemID: "B500", Quantity: 4}},
	}, map[string]string{ActorHeader: "cashier"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sale := decode[SaleDTO](t, rec)
	assert.Equal(t, string(engine.SaleConfirmed), sale.Status)
	assert.Equal(t, "6.00", sale.Total)
	assert.NotEmpty(t, sale.TransactionID)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Item B500", sale.Items[0].ItemName)

	item, _ := h.Engine.Ledger().Get("B500")
	assert.Equal(t, 6, item.CurrentStock)
}

func TestSubmitSale_Rejected_Is200WithReason(t *testing.T) {
	// A rejection is a processed business outcome, not a transport failure.
	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 6, 2, 1.50)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", SubmitSaleRequest{
		CustomerID: "CUST-1",
		Items:      []SaleLineDTO{{ItemID: "B500", Quantity: 8}},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sale := decode[SaleDTO](t, rec)
	assert.Equal(t, string(engine.SaleRejected), sale.Status)
	assert.Equal(t,
		"Insufficient stock for items: B500 (Insufficient stock. Available: 6, Requested: 8)",
		sale.RejectionReason)
}

func TestSubmitSale_UnknownItem_Is404(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", SubmitSaleRequest{
		CustomerID: "CUST-1",
		Items:      []SaleLineDTO{{ItemID: "GHOST", Quantity: 1}},
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSale_NotFound(t *testing.T) {
	_, router := newTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/api/sales/TX-404", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSales_BadDate(t *testing.T) {
	_, router := newTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/api/sales?start=yesterday", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailySummary_BucketsByHour(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 50, 2, 1.50)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/sales", SubmitSaleRequest{
			CustomerID: "CUST-1",
			Items:      []SaleLineDTO{{ItemID: "B500", Quantity: 2}},
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/sales/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	buckets := decode[[]DailySummaryBucketDTO](t, rec)
	require.Len(t, buckets, 1, "all three sales land in the current hour")
	assert.Equal(t, "9.00", buckets[0].Total)
}

// =============================================================================
// HISTORY AND REPORT ENDPOINTS
// =============================================================================

func TestHistory_FilterByActor(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 10, 2, 1.50)

	rec := doJSON(t, router, http.MethodPost, "/api/sales", SubmitSaleRequest{
		CustomerID: "CUST-1",
		Items:      []SaleLineDTO{{ItemID: "B500", Quantity: 1}},
	}, map[string]string{ActorHeader: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/history?actor=alice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]HistoryEntryDTO](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, string(engine.ActionSaleConfirmed), entries[0].Action)
}

func TestInventorySummary(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 10, 2, 1.50)
	addTestItem(t, h, "A1", 3, 5, 2.00)

	rec := doJSON(t, router, http.MethodGet, "/api/inventory/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sum := decode[InventorySummaryDTO](t, rec)
	assert.Equal(t, 2, sum.TotalItems)
	assert.Equal(t, 13, sum.TotalUnits)
	assert.Equal(t, "21.00", sum.TotalValue)
	require.Len(t, sum.BelowMinimum, 1)
	assert.Equal(t, "A1", sum.BelowMinimum[0].ItemID)
}

func TestInventorySummary_TextFormat(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "B500", 10, 2, 1.50)
	addTestItem(t, h, "A1", 3, 5, 2.00)

	rec := doJSON(t, router, http.MethodGet, "/api/inventory/summary?format=text", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "=== INVENTORY SUMMARY ===\n"), body)
	assert.Contains(t, body, "Total Items: 2")
	assert.Contains(t, body, "Item A1: 3 units @ $2.00 each = $6.00 [LOW STOCK!]")
	assert.Contains(t, body, "=== LOW STOCK ALERT ===")
}

func TestListAlerts(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "LOW", 1, 5, 1.00)
	addTestItem(t, h, "OK", 10, 5, 1.00)

	rec := doJSON(t, router, http.MethodGet, "/api/alerts", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	alerts := decode[[]AlertDTO](t, rec)
	require.Len(t, alerts, 1)
	assert.Equal(t, "LOW", alerts[0].ItemID)
	assert.Equal(t, 1, alerts[0].CurrentStock)
	assert.Equal(t, 5, alerts[0].MinimumStock)
	assert.Equal(t, "Item LOW: 1 units (Min: 5)", alerts[0].Message)
}

func TestListAlerts_EmptyWhenHealthy(t *testing.T) {
	h, router := newTestServer(t)
	addTestItem(t, h, "OK", 10, 5, 1.00)

	rec := doJSON(t, router, http.MethodGet, "/api/alerts", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AlertDTO](t, rec), 0)
}

// =============================================================================
// AUTH
// =============================================================================

func TestAPIKeyAuth(t *testing.T) {
	h := NewHandler(engine.NewSaleEngine(nil), nil, nil)
	router := NewRouter(h, APIKeyAuth{Key: "secret"})

	rec := doJSON(t, router, http.MethodGet, "/api/items", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/items", nil, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open without a key.
	rec = doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// suspendingAuth admits every request but marks one actor as suspended.
type suspendingAuth struct {
	suspended string
}

func (suspendingAuth) Authenticate(*http.Request) bool { return true }
func (a suspendingAuth) IsActive(actor string) bool    { return actor != a.suspended }
func (suspendingAuth) Role(string) string              { return "operator" }

func TestAuth_SuspendedActorIs403(t *testing.T) {
	h := NewHandler(engine.NewSaleEngine(nil), nil, nil)
	router := NewRouter(h, suspendingAuth{suspended: "mallory"})

	rec := doJSON(t, router, http.MethodGet, "/api/items", nil,
		map[string]string{ActorHeader: "mallory"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/items", nil,
		map[string]string{ActorHeader: "alice"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_Roles(t *testing.T) {
	assert.Equal(t, "admin", NoAuth{}.Role("anyone"))
	assert.True(t, NoAuth{}.IsActive("anyone"))
	assert.Equal(t, "operator", APIKeyAuth{Key: "k"}.Role("anyone"))
	assert.True(t, APIKeyAuth{Key: "k"}.IsActive("anyone"))
}
