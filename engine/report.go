package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InventorySummary aggregates the catalog into one report: how many items
// and units are on hand, what the stock is worth at current unit prices,
// and which items need attention.
type InventorySummary struct {
	GeneratedAt  time.Time
	TotalItems   int
	TotalUnits   int
	TotalValue   decimal.Decimal
	BelowMinimum []InventoryItem

	// Net stock movement since registration, by item. Negative means net
	// sold, positive means net restocked above the initial level.
	DriftByItem map[ItemID]int
}

// InventorySummary computes the report from a consistent read of the ledger.
func (e *SaleEngine) InventorySummary() InventorySummary {
	items := e.ledger.Items()
	sum := InventorySummary{
		GeneratedAt: time.Now().UTC(),
		TotalItems:  len(items),
		TotalValue:  decimal.Zero,
		DriftByItem: make(map[ItemID]int, len(items)),
	}
	for _, it := range items {
		sum.TotalUnits += it.CurrentStock
		sum.TotalValue = sum.TotalValue.Add(it.StockValue())
		sum.DriftByItem[it.ItemID] = it.StockDrift()
		if it.IsBelowMinimum() {
			sum.BelowMinimum = append(sum.BelowMinimum, it)
		}
	}
	return sum
}

// GenerateInventorySummary renders the catalog as a plain-text report for
// terminals and exports. Items appear in ascending id order; items under
// their minimum are marked inline and repeated in a closing alert section.
func (e *SaleEngine) GenerateInventorySummary() string {
	items := e.ledger.ItemsSorted("id")

	var b strings.Builder
	b.WriteString("=== INVENTORY SUMMARY ===\n")
	fmt.Fprintf(&b, "Total Items: %d\n", len(items))

	totalUnits := 0
	totalValue := decimal.Zero
	for _, it := range items {
		value := it.StockValue()
		totalUnits += it.CurrentStock
		totalValue = totalValue.Add(value)

		fmt.Fprintf(&b, "\n%s: %d units @ $%s each = $%s",
			it.Name, it.CurrentStock, it.UnitPrice.StringFixed(2), value.StringFixed(2))
		if it.IsBelowMinimum() {
			b.WriteString(" [LOW STOCK!]")
		}
	}

	fmt.Fprintf(&b, "\n\nTotal Stock Units: %d", totalUnits)
	fmt.Fprintf(&b, "\nTotal Monetary Value: $%s", totalValue.StringFixed(2))

	low := e.ledger.ItemsBelowMinimum()
	if len(low) > 0 {
		b.WriteString("\n\n=== LOW STOCK ALERT ===\n")
		for _, it := range low {
			fmt.Fprintf(&b, "%s: %d units (Min: %d)\n", it.Name, it.CurrentStock, it.MinimumStock)
		}
	}
	return b.String()
}
