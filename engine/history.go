/*
history.go - Append-only audit trail

PURPOSE:
  HistoryLog records every ledger and sale event. It is the immutable memory
  of the system: entries are created, never mutated, never deleted.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: Remove is a documented no-op returning an error.
  2. BEST-EFFORT RELATIVE TO BUSINESS OPERATIONS: a failed audit write must
     never break the operation it describes. Failures are swallowed and
     reported out-of-band through the error handler (an operational logger),
     not propagated to the caller.
  3. ORDERED: entries appear in the order the writing operation was granted
     the engine lock, not necessarily wall-clock submission order.

SEE ALSO:
  - engine.go: SaleEngine writing SALE_CONFIRMED/SALE_REJECTED/RESTOCK entries
  - ledger.go: StockLedger writing ITEM_ADDED entries
*/
package engine

import "sync"

// =============================================================================
// HISTORY LOG
// =============================================================================

// HistoryLog is the append-only audit trail. Safe for concurrent use.
type HistoryLog struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	onError func(error)
}

// NewHistoryLog creates an empty log.
func NewHistoryLog() *HistoryLog {
	return &HistoryLog{}
}

// SetErrorHandler installs the out-of-band channel for swallowed append
// failures. Typically wired to the operational logger.
func (h *HistoryLog) SetErrorHandler(fn func(error)) {
	h.mu.Lock()
	h.onError = fn
	h.mu.Unlock()
}

// Append adds an entry. It fails only for a structurally empty entry; the
// underlying store is in-process memory and cannot reject a valid write.
func (h *HistoryLog) Append(entry HistoryEntry) error {
	if entry.Action == "" {
		return &InvalidArgumentError{Field: "action", Message: "must not be empty"}
	}
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return nil
}

// append is the best-effort variant used by the engine and ledger: a failure
// is reported out-of-band and otherwise swallowed, so auditing can never
// break the business operation being audited.
func (h *HistoryLog) append(entry HistoryEntry) {
	if err := h.Append(entry); err != nil {
		h.mu.RLock()
		report := h.onError
		h.mu.RUnlock()
		if report != nil {
			report(err)
		}
	}
}

// Remove is a documented no-op: the trail is append-only.
func (h *HistoryLog) Remove(id string) error {
	return ErrHistoryImmutable
}

// =============================================================================
// QUERIES - read-only projections over the full log
// =============================================================================

// All returns a copy of every entry in append order.
func (h *HistoryLog) All() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Query returns entries, optionally filtered by actor. An empty actor
// matches everything.
func (h *HistoryLog) Query(actor string) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []HistoryEntry
	for _, e := range h.entries {
		if actor == "" || e.Actor == actor {
			out = append(out, e)
		}
	}
	return out
}

// QueryByTransaction returns the entries referencing a transaction id.
func (h *HistoryLog) QueryByTransaction(transactionID string) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []HistoryEntry
	for _, e := range h.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// replaceAll swaps in a restored entry set. Snapshot restore only.
func (h *HistoryLog) replaceAll(entries []HistoryEntry) {
	next := make([]HistoryEntry, len(entries))
	copy(next, entries)
	h.mu.Lock()
	h.entries = next
	h.mu.Unlock()
}
