package engine

// =============================================================================
// SALE ENGINE - serialized sale orchestration over ledger, registry, history
// =============================================================================
//
// PURPOSE:
// SaleEngine is the single entry point for every operation that mutates
// stock. It validates a sale, pre-checks availability, commits the stock
// deductions, persists the finalized transaction, and records the outcome
// in the audit trail.
//
// CRITICAL INVARIANTS:
// 1. One sale at a time. A single mutex serializes ProcessSale, Restock and
//    AddItem, so the stock observed during pre-check cannot change before
//    the commit pass completes.
// 2. Business rejections are not errors. A sale that fails validation or
//    availability comes back as a REJECTED transaction with a reason; an
//    error return means the inputs were unusable or the ledger itself is
//    suspect.
// 3. Rejected sales never touch stock. The commit pass only runs after the
//    pre-check passed every line, and on a commit failure the already
//    deducted lines are restored before the sale is finalized.
// 4. Every outcome is persisted and audited. Confirmed and rejected sales
//    both land in the registry and the history log; an audit write failure
//    is reported to the operational log but never fails the sale.
//
// SEE ALSO:
// - ledger.go: per-item atomic stock operations
// - registry.go: transaction store and reporting queries
// - history.go: append-only audit trail

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetcraft/stock-engine/pkg/logger"
)

// SaleEngine orchestrates sale processing across the three stores.
type SaleEngine struct {
	mu sync.Mutex // serializes all stock mutation

	ledger   *StockLedger
	registry *SaleRegistry
	history  *HistoryLog

	log *logger.Logger
}

// NewSaleEngine wires up an empty engine. A nil log falls back to a no-op
// logger so the engine stays usable in tests.
func NewSaleEngine(log *logger.Logger) *SaleEngine {
	if log == nil {
		log = logger.Nop()
	}
	history := NewHistoryLog()
	e := &SaleEngine{
		ledger:   NewStockLedger(history),
		registry: NewSaleRegistry(),
		history:  history,
		log:      log,
	}
	history.SetErrorHandler(func(err error) {
		log.Warn().Err(err).Msg("audit append failed, entry dropped")
	})
	return e
}

// Ledger exposes the stock ledger for read-side callers.
func (e *SaleEngine) Ledger() *StockLedger { return e.ledger }

// History exposes the audit trail for read-side callers.
func (e *SaleEngine) History() *HistoryLog { return e.history }

// Registry exposes the transaction store for read-side callers.
func (e *SaleEngine) Registry() *SaleRegistry { return e.registry }

// =============================================================================
// CATALOG MUTATION
// =============================================================================

// AddItem registers a new catalog item. Serialized with sale processing so
// a sale never observes a half-registered item.
func (e *SaleEngine) AddItem(item InventoryItem) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ledger.AddItem(item); err != nil {
		return err
	}
	e.log.Info().
		Str("item_id", string(item.ItemID)).
		Int("stock", item.CurrentStock).
		Msg("item added")
	return nil
}

// Restock unconditionally increases an item's stock and records a RESTOCK
// audit entry. quantity must be positive and the item must exist.
func (e *SaleEngine) Restock(itemID ItemID, quantity int, actor string) (InventoryItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Add(itemID, quantity); err != nil {
		return InventoryItem{}, err
	}
	item, _ := e.ledger.Get(itemID)

	e.history.append(NewHistoryEntry(
		"RESTOCK-"+uuid.NewString(),
		actor,
		ActionRestock,
		fmt.Sprintf("Restocked item %s with %d units. New stock: %d", itemID, quantity, item.CurrentStock),
		"",
	))
	e.log.Info().
		Str("item_id", string(itemID)).
		Int("quantity", quantity).
		Int("new_stock", item.CurrentStock).
		Msg("item restocked")
	return item, nil
}

// =============================================================================
// SALE PROCESSING
// =============================================================================

// ProcessSale runs the full pipeline on an already constructed sale:
// validate, pre-check stock, commit deductions, persist, audit. The sale is
// finalized in place; its final state is also what the registry holds.
//
// The returned error is nil for both confirmed and rejected sales. It is
// non-nil only when the sale could not be processed at all (nil sale,
// missing id, already finalized) or when a rollback left the ledger in an
// inconsistent state.
func (e *SaleEngine) ProcessSale(sale *SaleTransaction, actor string) error {
	if sale == nil {
		return &InvalidArgumentError{Field: "sale", Message: "must not be nil"}
	}
	if sale.TransactionID == "" {
		return &InvalidArgumentError{Field: "transactionID", Message: "must not be blank"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if sale.IsFinal() {
		return fmt.Errorf("sale %s: %w", sale.TransactionID, ErrSaleFinalized)
	}

	if len(sale.Items) == 0 {
		e.reject(sale, actor, "Invalid sale data")
		return nil
	}

	// Pre-check pass. Collect every failing line so the rejection reason
	// names all problems at once, not just the first.
	var failures []string
	for _, line := range sale.ItemsSorted() {
		item, ok := e.ledger.Get(line.ItemID)
		switch {
		case !ok:
			failures = append(failures, fmt.Sprintf("%s (Item not found in inventory)", line.ItemID))
		case item.CurrentStock < line.Quantity:
			failures = append(failures, fmt.Sprintf("%s (Insufficient stock. Available: %d, Requested: %d)",
				line.ItemID, item.CurrentStock, line.Quantity))
		}
	}
	if len(failures) > 0 {
		e.reject(sale, actor, "Insufficient stock for items: "+strings.Join(failures, ", "))
		return nil
	}

	return e.commitSale(sale, actor)
}

// commitSale deducts every line in ascending item-id order, recording the
// stock level before each deduction. A failed deduction restores the lines
// already committed and rejects the sale with a deduction-failure reason,
// distinct from a pre-check rejection. Callers hold e.mu.
func (e *SaleEngine) commitSale(sale *SaleTransaction, actor string) error {
	var done []applied
	for _, line := range sale.ItemsSorted() {
		before, _ := e.ledger.Get(line.ItemID)
		ok, err := e.ledger.Deduct(line.ItemID, line.Quantity)
		if err != nil || !ok {
			if rbErr := e.rollback(sale.TransactionID, done); rbErr != nil {
				return rbErr
			}
			reason := fmt.Sprintf("Failed to deduct stock for item %s", line.ItemID)
			e.rejectWith(sale, actor, reason,
				"Stock deduction failed and rolled back: "+reason)
			return nil
		}
		done = append(done, applied{itemID: line.ItemID, previousStock: before.CurrentStock})
	}

	sale.finalize(SaleConfirmed, "")
	e.registry.Put(sale)
	e.history.append(NewHistoryEntry(
		sale.TransactionID,
		actor,
		ActionSaleConfirmed,
		fmt.Sprintf("Sale confirmed. Items: %d, Total: $%s", len(sale.Items), sale.Total.StringFixed(2)),
		"",
	))
	e.log.Info().
		Str("transaction_id", sale.TransactionID).
		Str("total", sale.Total.StringFixed(2)).
		Int("items", len(sale.Items)).
		Msg("sale confirmed")
	return nil
}

// ProcessSaleDirect builds the sale from raw lines and processes it. An
// empty transactionID gets a generated one. Unlike availability problems,
// a line naming an unknown item is an input error here, because the caller
// is expected to quote from the live catalog.
func (e *SaleEngine) ProcessSaleDirect(transactionID, customerID, actor string, lines map[ItemID]int) (*SaleTransaction, error) {
	if transactionID == "" {
		transactionID = uuid.NewString()
	}
	sale := NewSaleTransaction(transactionID, customerID, actor)
	for itemID, qty := range lines {
		item, ok := e.ledger.Get(itemID)
		if !ok {
			return nil, &ItemNotFoundError{ItemID: itemID}
		}
		if err := sale.AddItem(itemID, item.Name, qty, item.UnitPrice); err != nil {
			return nil, err
		}
	}
	if err := e.ProcessSale(sale, actor); err != nil {
		return nil, err
	}
	return sale, nil
}

// reject finalizes, persists and audits a rejected sale. Callers hold e.mu.
func (e *SaleEngine) reject(sale *SaleTransaction, actor, reason string) {
	e.rejectWith(sale, actor, reason, fmt.Sprintf("Sale rejected. Items: %d", len(sale.Items)))
}

// rejectWith is reject with an explicit audit-entry details line, used by the
// commit stage so its rejections read differently from pre-check rejections.
func (e *SaleEngine) rejectWith(sale *SaleTransaction, actor, reason, details string) {
	sale.finalize(SaleRejected, reason)
	e.registry.Put(sale)
	e.history.append(NewHistoryEntry(
		sale.TransactionID,
		actor,
		ActionSaleRejected,
		details,
		reason,
	))
	e.log.Info().
		Str("transaction_id", sale.TransactionID).
		Str("reason", reason).
		Msg("sale rejected")
}

// rollback restores stock for already deducted lines by adding back the
// difference between the stock before the deduction and the stock now.
// Callers hold e.mu, so nothing else mutated the item in between and the
// difference is exactly what this sale took.
func (e *SaleEngine) rollback(transactionID string, done []applied) error {
	for _, a := range done {
		current, ok := e.ledger.Get(a.itemID)
		if !ok {
			return &LedgerInconsistencyError{
				TransactionID: transactionID,
				ItemID:        a.itemID,
				Err:           &ItemNotFoundError{ItemID: a.itemID},
			}
		}
		delta := a.previousStock - current.CurrentStock
		if delta <= 0 {
			continue
		}
		if err := e.ledger.Add(a.itemID, delta); err != nil {
			e.log.Error().
				Err(err).
				Str("transaction_id", transactionID).
				Str("item_id", string(a.itemID)).
				Msg("rollback failed, ledger inconsistent")
			return &LedgerInconsistencyError{
				TransactionID: transactionID,
				ItemID:        a.itemID,
				Err:           err,
			}
		}
	}
	return nil
}

// applied records one committed deduction for potential rollback.
type applied struct {
	itemID        ItemID
	previousStock int
}

// =============================================================================
// REPORTING PASS-THROUGHS
// =============================================================================

// SaleHistory returns the full audit trail, oldest first.
func (e *SaleEngine) SaleHistory() []HistoryEntry { return e.history.All() }

// SaleHistoryForTransaction returns the audit entries for one transaction.
func (e *SaleEngine) SaleHistoryForTransaction(transactionID string) []HistoryEntry {
	return e.history.QueryByTransaction(transactionID)
}

// SalesByDateRange returns sales created within [start, end], inclusive.
func (e *SaleEngine) SalesByDateRange(start, end time.Time) []*SaleTransaction {
	return e.registry.QueryByDateRange(start, end)
}

// DailySalesSummary returns confirmed revenue per hour for one calendar day.
func (e *SaleEngine) DailySalesSummary(date time.Time) map[time.Time]decimal.Decimal {
	return e.registry.DailySummary(date)
}

// ItemsBelowMinimum returns items whose stock dropped under their threshold.
func (e *SaleEngine) ItemsBelowMinimum() []InventoryItem {
	return e.ledger.ItemsBelowMinimum()
}
