/*
ledger.go - The single source of truth for stock counts

PURPOSE:
  StockLedger owns the mapping from item id to its mutable stock record and
  provides atomic add/deduct plus threshold queries. No other component
  mutates stock counts.

CONCURRENCY:
  Two levels of locking:
  1. The map lock (RWMutex) guards the item map itself.
  2. Each record carries its own mutex so Deduct/Add are internally atomic
     check-and-mutate sections, even when called outside a sale (restocks).

  LOCK ORDERING: the map lock is always released before a record lock is
  taken, never the reverse. Records are never deleted, so a record pointer
  obtained under the map lock stays valid after it is released.

  Callers that need pre-check and commit to be atomic across SEVERAL items
  must serialize through SaleEngine, which holds its own mutex for the whole
  of ProcessSale/Restock. Direct ledger use carries only the per-item
  guarantee.

SEE ALSO:
  - engine.go: SaleEngine, the multi-item orchestration on top of the ledger
  - history.go: HistoryLog receiving ITEM_ADDED entries
*/
package engine

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// STOCK LEDGER
// =============================================================================

// StockLedger is the authoritative in-memory table of item stock counts.
// The zero value is not usable; use NewStockLedger.
type StockLedger struct {
	mu      sync.RWMutex
	items   map[ItemID]*itemRecord
	history *HistoryLog
}

// itemRecord pairs an item with its own lock for atomic check-and-mutate.
type itemRecord struct {
	mu   sync.Mutex
	item InventoryItem
}

// NewStockLedger creates an empty ledger. ITEM_ADDED events are appended to
// history; pass a shared HistoryLog so sale and stock events interleave in
// one trail.
func NewStockLedger(history *HistoryLog) *StockLedger {
	return &StockLedger{
		items:   make(map[ItemID]*itemRecord),
		history: history,
	}
}

// AddItem registers a new item. Fails with DuplicateItemError if the id is
// already present and InvalidArgumentError if the id is blank or the initial
// values are out of range. On success an ITEM_ADDED history entry is recorded.
func (l *StockLedger) AddItem(item InventoryItem) error {
	if strings.TrimSpace(string(item.ItemID)) == "" {
		return &InvalidArgumentError{Field: "itemId", Message: "must not be empty"}
	}
	if item.InitialStock < 0 {
		return &InvalidArgumentError{Field: "initialStock", Message: "must not be negative"}
	}
	if item.MinimumStock < 0 {
		return &InvalidArgumentError{Field: "minimumStock", Message: "must not be negative"}
	}
	if item.UnitPrice.IsNegative() {
		return &InvalidArgumentError{Field: "unitPrice", Message: "must not be negative"}
	}

	l.mu.Lock()
	if _, exists := l.items[item.ItemID]; exists {
		l.mu.Unlock()
		return &DuplicateItemError{ItemID: item.ItemID}
	}
	l.items[item.ItemID] = &itemRecord{item: item}
	l.mu.Unlock()

	l.history.append(NewHistoryEntry(
		SystemSubject, "admin", ActionItemAdded,
		"Added new inventory item: "+item.Name, ""))
	return nil
}

// Get returns a copy of the item, or ok=false for a missing id. It never
// returns an error for a missing id.
func (l *StockLedger) Get(itemID ItemID) (InventoryItem, bool) {
	rec := l.record(itemID)
	if rec == nil {
		return InventoryItem{}, false
	}
	rec.mu.Lock()
	item := rec.item
	rec.mu.Unlock()
	return item, true
}

// Deduct removes quantity units if enough stock is available. It returns
// true and reduces stock when current >= quantity, false with no mutation
// otherwise. The check-and-mutate is atomic per item.
func (l *StockLedger) Deduct(itemID ItemID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, &InvalidArgumentError{Field: "quantity", Message: "must be positive"}
	}
	rec := l.record(itemID)
	if rec == nil {
		return false, &ItemNotFoundError{ItemID: itemID}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.item.CurrentStock < quantity {
		return false, nil
	}
	rec.item.CurrentStock -= quantity
	rec.item.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Add unconditionally increases stock (restock or rollback use).
func (l *StockLedger) Add(itemID ItemID, quantity int) error {
	if quantity <= 0 {
		return &InvalidArgumentError{Field: "quantity", Message: "must be positive"}
	}
	rec := l.record(itemID)
	if rec == nil {
		return &ItemNotFoundError{ItemID: itemID}
	}

	rec.mu.Lock()
	rec.item.CurrentStock += quantity
	rec.item.UpdatedAt = time.Now().UTC()
	rec.mu.Unlock()
	return nil
}

// IsBelowMinimum reports whether the item's stock is under its threshold.
// A missing id reports false.
func (l *StockLedger) IsBelowMinimum(itemID ItemID) bool {
	item, ok := l.Get(itemID)
	return ok && item.IsBelowMinimum()
}

// =============================================================================
// QUERIES - defensive copies, never live structures
// =============================================================================

// Items returns copies of all items in ascending id order.
func (l *StockLedger) Items() []InventoryItem {
	return l.ItemsSorted("id")
}

// ItemsSorted returns copies of all items ordered by "id", "name", "stock"
// or "price". Unknown sort keys fall back to id order.
func (l *StockLedger) ItemsSorted(sortBy string) []InventoryItem {
	l.mu.RLock()
	records := make([]*itemRecord, 0, len(l.items))
	for _, rec := range l.items {
		records = append(records, rec)
	}
	l.mu.RUnlock()

	items := make([]InventoryItem, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		items = append(items, rec.item)
		rec.mu.Unlock()
	}

	switch strings.ToLower(sortBy) {
	case "name":
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	case "stock":
		sort.Slice(items, func(i, j int) bool { return items[i].CurrentStock < items[j].CurrentStock })
	case "price":
		sort.Slice(items, func(i, j int) bool { return items[i].UnitPrice.LessThan(items[j].UnitPrice) })
	default:
		sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	}
	return items
}

// ItemsBelowMinimum returns copies of all items under their threshold.
func (l *StockLedger) ItemsBelowMinimum() []InventoryItem {
	var low []InventoryItem
	for _, item := range l.Items() {
		if item.IsBelowMinimum() {
			low = append(low, item)
		}
	}
	return low
}

// Len returns the number of items.
func (l *StockLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// record fetches the live record for an id, or nil.
func (l *StockLedger) record(itemID ItemID) *itemRecord {
	l.mu.RLock()
	rec := l.items[itemID]
	l.mu.RUnlock()
	return rec
}

// replaceAll swaps in a fresh item set. Snapshot restore only; callers must
// hold the engine lock.
func (l *StockLedger) replaceAll(items []InventoryItem) {
	next := make(map[ItemID]*itemRecord, len(items))
	for _, item := range items {
		next[item.ItemID] = &itemRecord{item: item}
	}
	l.mu.Lock()
	l.items = next
	l.mu.Unlock()
}
