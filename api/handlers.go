/*
handlers.go - HTTP API handlers for the stock engine

PURPOSE:
  Exposes the sale engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Items:
    GET    /api/items                  List catalog (?sort=id|name|stock|price)
    POST   /api/items                  Register item
    GET    /api/items/low-stock        Items under their minimum
    GET    /api/items/{id}             Item details
    POST   /api/items/{id}/restock     Add stock

  Sales:
    POST   /api/sales                  Process a sale
    GET    /api/sales                  Sales in a date range (?start=&end=)
    GET    /api/sales/summary          Hourly confirmed revenue (?date=)
    GET    /api/sales/{id}             Sale details

  History:
    GET    /api/history                Audit trail (?actor=)
    GET    /api/history/{txId}         Entries for one transaction

  Reports:
    GET    /api/inventory/summary      Aggregate stock report (?format=text)
    GET    /api/alerts                 Low stock alerts

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

  Admin:
    POST   /api/admin/snapshot         Persist a snapshot now

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Item or sale not found
  - 409: Conflict (duplicate item id)
  - 500: Internal errors
  A REJECTED sale is not an HTTP error. It comes back 200 with
  status "REJECTED" and the rejection reason, because the request
  itself was processed successfully.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sweetcraft/stock-engine/engine"
	"github.com/sweetcraft/stock-engine/pkg/logger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.SaleEngine
	Store  engine.SnapshotStore // nil disables the snapshot endpoint
	Log    *logger.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler around the engine. store may be nil.
func NewHandler(eng *engine.SaleEngine, store engine.SnapshotStore, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{Engine: eng, Store: store, Log: log}
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns the catalog, optionally sorted.
// GET /api/items?sort=id|name|stock|price
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "id"
	}
	switch sortBy {
	case "id", "name", "stock", "price":
	default:
		writeError(w, http.StatusBadRequest, "Unknown sort key: "+sortBy, nil)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(h.Engine.Ledger().ItemsSorted(sortBy)))
}

// GetItem returns one catalog item.
// GET /api/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := engine.ItemID(chi.URLParam(r, "id"))
	item, ok := h.Engine.Ledger().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// CreateItem registers a new catalog item.
// POST /api/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	unitPrice, err := decimal.NewFromString(strings.TrimSpace(req.UnitPrice))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit price", err)
		return
	}

	item := engine.NewInventoryItem(engine.ItemID(req.ItemID), req.Name, req.Description,
		req.InitialStock, req.MinimumStock, unitPrice)
	if err := h.Engine.AddItem(item); err != nil {
		writeEngineError(w, err)
		return
	}

	created, _ := h.Engine.Ledger().Get(item.ItemID)
	writeJSON(w, http.StatusCreated, toItemDTO(created))
}

// Restock adds stock to an existing item.
// POST /api/items/{id}/restock
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	id := engine.ItemID(chi.URLParam(r, "id"))
	item, err := h.Engine.Restock(id, req.Quantity, actorFrom(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// ListLowStock returns items whose stock fell under their minimum.
// GET /api/items/low-stock
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toItemDTOs(h.Engine.ItemsBelowMinimum()))
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// SubmitSale processes a sale end to end.
// POST /api/sales
func (h *Handler) SubmitSale(w http.ResponseWriter, r *http.Request) {
	var req SubmitSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	lines := make(map[engine.ItemID]int, len(req.Items))
	for _, line := range req.Items {
		lines[engine.ItemID(line.ItemID)] = line.Quantity
	}

	sale, err := h.Engine.ProcessSaleDirect(req.TransactionID, req.CustomerID, actorFrom(r), lines)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// GetSale returns one sale transaction.
// GET /api/sales/{id}
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, ok := h.Engine.Registry().Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// ListSales returns sales created within a date range. Dates are ISO days;
// the range is inclusive on both ends and defaults to today.
// GET /api/sales?start=2026-03-01&end=2026-03-31
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)

	if raw := r.URL.Query().Get("start"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start date, want YYYY-MM-DD", err)
			return
		}
		start = day
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end date, want YYYY-MM-DD", err)
			return
		}
		end = day.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "End date precedes start date", nil)
		return
	}

	writeJSON(w, http.StatusOK, toSaleDTOs(h.Engine.SalesByDateRange(start, end)))
}

// DailySummary returns confirmed revenue per hour for one day.
// GET /api/sales/summary?date=2026-03-15
func (h *Handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD", err)
			return
		}
		date = parsed
	}

	summary := h.Engine.DailySalesSummary(date)
	buckets := make([]DailySummaryBucketDTO, 0, len(summary))
	for hour, total := range summary {
		buckets = append(buckets, DailySummaryBucketDTO{
			Hour:  hour.Format(time.RFC3339),
			Total: total.StringFixed(2),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hour < buckets[j].Hour })
	writeJSON(w, http.StatusOK, buckets)
}

// =============================================================================
// HISTORY HANDLERS
// =============================================================================

// ListHistory returns the audit trail, optionally filtered by actor.
// GET /api/history?actor=cashier
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.Engine.History().Query(r.URL.Query().Get("actor"))
	writeJSON(w, http.StatusOK, toHistoryEntryDTOs(entries))
}

// GetTransactionHistory returns audit entries for one transaction.
// GET /api/history/{txId}
func (h *Handler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.Engine.SaleHistoryForTransaction(chi.URLParam(r, "txId"))
	writeJSON(w, http.StatusOK, toHistoryEntryDTOs(entries))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// InventorySummary returns the aggregate stock report. ?format=text renders
// the plain-text version instead of JSON.
// GET /api/inventory/summary
func (h *Handler) InventorySummary(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(h.Engine.GenerateInventorySummary()))
		return
	}
	sum := h.Engine.InventorySummary()

	drift := make(map[string]int, len(sum.DriftByItem))
	for id, d := range sum.DriftByItem {
		drift[string(id)] = d
	}
	writeJSON(w, http.StatusOK, InventorySummaryDTO{
		GeneratedAt:  sum.GeneratedAt.Format(time.RFC3339),
		TotalItems:   sum.TotalItems,
		TotalUnits:   sum.TotalUnits,
		TotalValue:   sum.TotalValue.StringFixed(2),
		BelowMinimum: toItemDTOs(sum.BelowMinimum),
		StockDrift:   drift,
	})
}

// ListAlerts returns one alert per item running under its minimum.
// GET /api/alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	low := h.Engine.ItemsBelowMinimum()
	alerts := make([]AlertDTO, 0, len(low))
	for _, it := range low {
		alerts = append(alerts, AlertDTO{
			ItemID:       string(it.ItemID),
			Name:         it.Name,
			CurrentStock: it.CurrentStock,
			MinimumStock: it.MinimumStock,
			Message: fmt.Sprintf("%s: %d units (Min: %d)",
				it.Name, it.CurrentStock, it.MinimumStock),
		})
	}
	writeJSON(w, http.StatusOK, alerts)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// SaveSnapshot persists the current engine state immediately.
// POST /api/admin/snapshot
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Snapshot store not configured", nil)
		return
	}
	snap := h.Engine.Snapshot()
	if err := h.Store.Save(r.Context(), snap); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"taken_at": snap.TakenAt.Format(time.RFC3339),
		"items":    len(snap.Items),
		"sales":    len(snap.Sales),
		"history":  len(snap.History),
	})
}

// Health is the liveness probe.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps domain errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Item not found", err)
	case errors.Is(err, engine.ErrDuplicateItem):
		writeError(w, http.StatusConflict, "Item already exists", err)
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, engine.ErrSaleFinalized):
		writeError(w, http.StatusConflict, "Sale already finalized", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
