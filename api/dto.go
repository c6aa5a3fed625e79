/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Items:
    ItemDTO, CreateItemRequest, RestockRequest

  Sales:
    SaleDTO, SaleLineDTO, SubmitSaleRequest

  Reporting:
    InventorySummaryDTO, DailySummaryBucketDTO

  History:
    HistoryEntryDTO

MONEY:
  Amounts cross the wire as strings ("6.00"), never floats. Parsing happens
  in handlers via shopspring/decimal so rounding stays exact.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/sweetcraft/stock-engine/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ItemDTO represents a catalog item in API responses.
type ItemDTO struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	CurrentStock int    `json:"current_stock"`
	InitialStock int    `json:"initial_stock"`
	MinimumStock int    `json:"minimum_stock"`
	UnitPrice    string `json:"unit_price"`
	BelowMinimum bool   `json:"below_minimum"`
	StockDrift   int    `json:"stock_drift"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// CreateItemRequest is the request to register a catalog item.
type CreateItemRequest struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	InitialStock int    `json:"initial_stock"`
	MinimumStock int    `json:"minimum_stock"`
	UnitPrice    string `json:"unit_price"`
}

// RestockRequest is the request to add stock to an existing item.
type RestockRequest struct {
	Quantity int `json:"quantity"`
}

// SaleLineDTO is one line of a sale.
type SaleLineDTO struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price,omitempty"`
	LineTotal string `json:"line_total,omitempty"`
}

// SubmitSaleRequest is the request to process a sale. Item names and prices
// are quoted from the live catalog, not trusted from the client.
type SubmitSaleRequest struct {
	TransactionID string        `json:"transaction_id,omitempty"`
	CustomerID    string        `json:"customer_id"`
	Items         []SaleLineDTO `json:"items"`
}

// SaleDTO represents a finalized sale transaction.
type SaleDTO struct {
	TransactionID   string        `json:"transaction_id"`
	CustomerID      string        `json:"customer_id,omitempty"`
	CreatedAt       string        `json:"created_at"`
	Items           []SaleLineDTO `json:"items"`
	Total           string        `json:"total"`
	Status          string        `json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	ConfirmedBy     string        `json:"confirmed_by,omitempty"`
}

// HistoryEntryDTO represents one audit trail entry.
type HistoryEntryDTO struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	Timestamp     string `json:"timestamp"`
	Actor         string `json:"actor"`
	Action        string `json:"action"`
	Details       string `json:"details,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// InventorySummaryDTO is the aggregate stock report.
type InventorySummaryDTO struct {
	GeneratedAt  string         `json:"generated_at"`
	TotalItems   int            `json:"total_items"`
	TotalUnits   int            `json:"total_units"`
	TotalValue   string         `json:"total_value"`
	BelowMinimum []ItemDTO      `json:"below_minimum"`
	StockDrift   map[string]int `json:"stock_drift"`
}

// AlertDTO is one low stock warning.
type AlertDTO struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"current_stock"`
	MinimumStock int    `json:"minimum_stock"`
	Message      string `json:"message"`
}

// DailySummaryBucketDTO is one hour of confirmed revenue.
type DailySummaryBucketDTO struct {
	Hour  string `json:"hour"`
	Total string `json:"total"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toItemDTO(item engine.InventoryItem) ItemDTO {
	return ItemDTO{
		ItemID:       string(item.ItemID),
		Name:         item.Name,
		Description:  item.Description,
		CurrentStock: item.CurrentStock,
		InitialStock: item.InitialStock,
		MinimumStock: item.MinimumStock,
		UnitPrice:    item.UnitPrice.StringFixed(2),
		BelowMinimum: item.IsBelowMinimum(),
		StockDrift:   item.StockDrift(),
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.Format(time.RFC3339),
	}
}

func toItemDTOs(items []engine.InventoryItem) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	return dtos
}

func toSaleDTO(sale *engine.SaleTransaction) SaleDTO {
	lines := make([]SaleLineDTO, 0, len(sale.Items))
	for _, line := range sale.ItemsSorted() {
		lines = append(lines, SaleLineDTO{
			ItemID:    string(line.ItemID),
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal().StringFixed(2),
		})
	}
	return SaleDTO{
		TransactionID:   sale.TransactionID,
		CustomerID:      sale.CustomerID,
		CreatedAt:       sale.CreatedAt.Format(time.RFC3339),
		Items:           lines,
		Total:           sale.Total.StringFixed(2),
		Status:          string(sale.Status),
		RejectionReason: sale.RejectionReason,
		ConfirmedBy:     sale.ConfirmedBy,
	}
}

func toSaleDTOs(sales []*engine.SaleTransaction) []SaleDTO {
	dtos := make([]SaleDTO, len(sales))
	for i, sale := range sales {
		dtos[i] = toSaleDTO(sale)
	}
	return dtos
}

func toHistoryEntryDTO(entry engine.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:            entry.ID,
		TransactionID: entry.TransactionID,
		Timestamp:     entry.Timestamp.Format(time.RFC3339),
		Actor:         entry.Actor,
		Action:        string(entry.Action),
		Details:       entry.Details,
		Reason:        entry.Reason,
	}
}

func toHistoryEntryDTOs(entries []engine.HistoryEntry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toHistoryEntryDTO(entry)
	}
	return dtos
}
