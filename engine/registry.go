// registry.go - Canonical store of submitted sale transactions.
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SaleRegistry holds every SaleTransaction ever submitted, keyed by
// transaction id. Safe for concurrent use; queries hand out clones.
type SaleRegistry struct {
	mu    sync.RWMutex
	sales map[string]*SaleTransaction
}

// NewSaleRegistry creates an empty registry.
func NewSaleRegistry() *SaleRegistry {
	return &SaleRegistry{sales: make(map[string]*SaleTransaction)}
}

// Put stores a transaction under its id. Resubmitting an id that already
// exists overwrites the stored transaction; uniqueness is the caller's
// responsibility and reprocessing a finalized id is undefined behavior.
func (r *SaleRegistry) Put(sale *SaleTransaction) error {
	if sale == nil {
		return &InvalidArgumentError{Field: "sale", Message: "must not be nil"}
	}
	if sale.TransactionID == "" {
		return &InvalidArgumentError{Field: "transactionId", Message: "must not be empty"}
	}
	r.mu.Lock()
	r.sales[sale.TransactionID] = sale
	r.mu.Unlock()
	return nil
}

// Get returns a clone of the transaction, or ok=false.
func (r *SaleRegistry) Get(transactionID string) (*SaleTransaction, bool) {
	r.mu.RLock()
	sale, ok := r.sales[transactionID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return sale.Clone(), true
}

// QueryByDateRange returns clones of all transactions whose creation time
// falls in [start, end], inclusive on both bounds, regardless of status.
// Results are ordered by creation time.
func (r *SaleRegistry) QueryByDateRange(start, end time.Time) []*SaleTransaction {
	r.mu.RLock()
	var out []*SaleTransaction
	for _, sale := range r.sales {
		if !sale.CreatedAt.Before(start) && !sale.CreatedAt.After(end) {
			out = append(out, sale.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// DailySummary buckets the day's CONFIRMED transactions by hour, summing
// totals. PENDING and REJECTED transactions are excluded.
func (r *SaleRegistry) DailySummary(date time.Time) map[time.Time]decimal.Decimal {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	summary := make(map[time.Time]decimal.Decimal)
	for _, sale := range r.QueryByDateRange(dayStart, dayEnd) {
		if sale.Status != SaleConfirmed {
			continue
		}
		hour := sale.CreatedAt.Truncate(time.Hour)
		if existing, ok := summary[hour]; ok {
			summary[hour] = existing.Add(sale.Total)
		} else {
			summary[hour] = sale.Total
		}
	}
	return summary
}

// All returns clones of every transaction, ordered by creation time.
func (r *SaleRegistry) All() []*SaleTransaction {
	r.mu.RLock()
	out := make([]*SaleTransaction, 0, len(r.sales))
	for _, sale := range r.sales {
		out = append(out, sale.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of stored transactions.
func (r *SaleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sales)
}

// replaceAll swaps in a restored transaction set. Snapshot restore only.
func (r *SaleRegistry) replaceAll(sales []*SaleTransaction) {
	next := make(map[string]*SaleTransaction, len(sales))
	for _, sale := range sales {
		next[sale.TransactionID] = sale.Clone()
	}
	r.mu.Lock()
	r.sales = next
	r.mu.Unlock()
}
