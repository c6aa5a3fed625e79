/*
Package engine provides the core sale-processing and stock-ledger engine.

PURPOSE:
  This package contains the domain types and algorithms for managing a
  single-process, in-memory inventory: validating multi-item sales against
  available stock, atomically deducting stock with exact rollback on failure,
  and recording an immutable audit trail of everything that happened.

KEY CONCEPTS IN THIS FILE (types.go):
  - InventoryItem: A stocked item, owned exclusively by the StockLedger
  - SaleItem: An immutable line of a sale (quantity + price snapshot)
  - SaleTransaction: A proposed or completed multi-item sale
  - HistoryEntry: An immutable audit record

DESIGN PRINCIPLES:
  1. Immutability: finalized sales and history entries are never modified
  2. Precision: uses decimal.Decimal for money, never float64
  3. Snapshots: sale lines copy name and price at submission time, so later
     price changes do not retroactively alter historical totals
  4. Ownership: InventoryItem stock counts are mutated only through the
     StockLedger's Deduct/Add operations

USAGE:
  item := engine.NewInventoryItem("B500", "Bonbon Box", "500g box", 10, 2,
      decimal.NewFromFloat(1.50))
  sale := engine.NewSaleTransaction("tx-1", "cust-9", "maria")
  _ = sale.AddItem(item.ItemID, item.Name, 4, item.UnitPrice)

SEE ALSO:
  - ledger.go: StockLedger, the single source of truth for stock counts
  - engine.go: SaleEngine, the commit/reject orchestration
  - history.go: HistoryLog, the append-only audit trail
*/
package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ItemID string

// SystemSubject is the transaction id recorded on history entries that do not
// belong to any sale (item creation, restocks).
const SystemSubject = "SYSTEM"

// =============================================================================
// INVENTORY ITEM - A stocked item
// =============================================================================

// InventoryItem is a stocked item. The StockLedger owns the authoritative
// copy; values handed out by ledger queries are defensive copies.
type InventoryItem struct {
	ItemID       ItemID
	Name         string
	Description  string
	CurrentStock int
	InitialStock int // immutable after creation, used to compute drift
	MinimumStock int
	UnitPrice    decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewInventoryItem creates an item with CurrentStock set to initialStock.
func NewInventoryItem(id ItemID, name, description string, initialStock, minimumStock int, unitPrice decimal.Decimal) InventoryItem {
	now := time.Now().UTC()
	return InventoryItem{
		ItemID:       id,
		Name:         name,
		Description:  description,
		CurrentStock: initialStock,
		InitialStock: initialStock,
		MinimumStock: minimumStock,
		UnitPrice:    unitPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// StockDrift returns the net stock change since creation.
func (it InventoryItem) StockDrift() int { return it.CurrentStock - it.InitialStock }

// IsBelowMinimum reports whether current stock is under the minimum threshold.
func (it InventoryItem) IsBelowMinimum() bool { return it.CurrentStock < it.MinimumStock }

// StockValue returns current stock valued at the unit price.
func (it InventoryItem) StockValue() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.CurrentStock)))
}

// =============================================================================
// SALE ITEM - Immutable line of a sale
// =============================================================================

// SaleItem is one line of a sale. Name and price are snapshots taken when the
// line was added, not live references into the ledger.
type SaleItem struct {
	ItemID    ItemID
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal returns quantity x unit price.
func (si SaleItem) LineTotal() decimal.Decimal {
	return si.UnitPrice.Mul(decimal.NewFromInt(int64(si.Quantity)))
}

// =============================================================================
// SALE TRANSACTION - A multi-item sale with a single commit/reject outcome
// =============================================================================

type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleConfirmed SaleStatus = "CONFIRMED"
	SaleRejected  SaleStatus = "REJECTED"
)

// SaleTransaction is a proposed or completed sale.
//
// INVARIANT: status transitions are monotonic and terminal. A transaction
// moves PENDING -> CONFIRMED or PENDING -> REJECTED exactly once and is never
// mutated afterwards. The SaleRegistry owns it after submission.
type SaleTransaction struct {
	TransactionID   string
	CustomerID      string
	CreatedAt       time.Time
	Items           map[ItemID]SaleItem
	Total           decimal.Decimal
	Status          SaleStatus
	RejectionReason string // present iff Status == SaleRejected
	ConfirmedBy     string // actor who submitted the sale
}

// NewSaleTransaction creates a PENDING sale with no items.
func NewSaleTransaction(transactionID, customerID, confirmedBy string) *SaleTransaction {
	return &SaleTransaction{
		TransactionID: transactionID,
		CustomerID:    customerID,
		CreatedAt:     time.Now().UTC(),
		Items:         make(map[ItemID]SaleItem),
		Total:         decimal.Zero,
		Status:        SalePending,
		ConfirmedBy:   confirmedBy,
	}
}

// AddItem adds (or replaces) a line and recomputes the total. The name and
// price are copied into the line as snapshots.
func (s *SaleTransaction) AddItem(itemID ItemID, itemName string, quantity int, unitPrice decimal.Decimal) error {
	if s.IsFinal() {
		return ErrSaleFinalized
	}
	if itemID == "" {
		return &InvalidArgumentError{Field: "itemId", Message: "must not be empty"}
	}
	if quantity <= 0 {
		return &InvalidArgumentError{Field: "quantity", Message: "must be positive"}
	}
	s.Items[itemID] = SaleItem{ItemID: itemID, ItemName: itemName, Quantity: quantity, UnitPrice: unitPrice}
	s.recalcTotal()
	return nil
}

func (s *SaleTransaction) recalcTotal() {
	total := decimal.Zero
	for _, li := range s.Items {
		total = total.Add(li.LineTotal())
	}
	s.Total = total
}

// IsFinal reports whether the sale has reached a terminal status.
func (s *SaleTransaction) IsFinal() bool {
	return s.Status == SaleConfirmed || s.Status == SaleRejected
}

// finalize records the terminal outcome. It is a no-op on an already-final
// sale; the engine only calls it once per transaction.
func (s *SaleTransaction) finalize(status SaleStatus, reason string) {
	if s.IsFinal() {
		return
	}
	s.Status = status
	if status == SaleRejected {
		s.RejectionReason = reason
	}
}

// ItemsSorted returns the sale lines in ascending item-id order. Commit and
// rollback iterate in this order so replays are deterministic.
func (s *SaleTransaction) ItemsSorted() []SaleItem {
	lines := make([]SaleItem, 0, len(s.Items))
	for _, li := range s.Items {
		lines = append(lines, li)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	return lines
}

// Clone returns a deep copy. Registry queries hand out clones so callers can
// never mutate the stored transaction.
func (s *SaleTransaction) Clone() *SaleTransaction {
	cp := *s
	cp.Items = make(map[ItemID]SaleItem, len(s.Items))
	for id, li := range s.Items {
		cp.Items[id] = li
	}
	return &cp
}

// =============================================================================
// HISTORY ENTRY - Immutable audit record
// =============================================================================

type HistoryAction string

const (
	ActionItemAdded     HistoryAction = "ITEM_ADDED"
	ActionSaleConfirmed HistoryAction = "SALE_CONFIRMED"
	ActionSaleRejected  HistoryAction = "SALE_REJECTED"
	ActionRestock       HistoryAction = "RESTOCK"
)

// HistoryEntry records who did what when. Lifecycle is creation-only: entries
// are never mutated or deleted.
type HistoryEntry struct {
	ID            string
	TransactionID string // SystemSubject for non-sale events
	Timestamp     time.Time
	Actor         string
	Action        HistoryAction
	Details       string
	Reason        string
}

// NewHistoryEntry creates an entry stamped with a fresh id and the current time.
func NewHistoryEntry(transactionID, actor string, action HistoryAction, details, reason string) HistoryEntry {
	return HistoryEntry{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
		Actor:         actor,
		Action:        action,
		Details:       details,
		Reason:        reason,
	}
}
