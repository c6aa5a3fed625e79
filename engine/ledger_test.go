package engine_test

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcraft/stock-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestLedger(t *testing.T) (*engine.StockLedger, *engine.HistoryLog) {
	t.Helper()
	history := engine.NewHistoryLog()
	return engine.NewStockLedger(history), history
}

func chocolateCake(stock, min int) engine.InventoryItem {
	return engine.NewInventoryItem("B500", "Chocolate Cake", "Rich chocolate layer cake",
		stock, min, decimal.NewFromFloat(1.50))
}

func price(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestStockLedger_AddItem_RecordsHistory(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: Registering a new item
	// THEN: The item is readable and an ITEM_ADDED audit entry exists

	ledger, history := newTestLedger(t)

	require.NoError(t, ledger.AddItem(chocolateCake(10, 2)))

	item, ok := ledger.Get("B500")
	require.True(t, ok)
	assert.Equal(t, 10, item.CurrentStock)
	assert.Equal(t, 10, item.InitialStock)

	entries := history.All()
	require.Len(t, entries, 1)
	assert.Equal(t, engine.ActionItemAdded, entries[0].Action)
	assert.Equal(t, engine.SystemSubject, entries[0].TransactionID)
	assert.Equal(t, "admin", entries[0].Actor)
}

func TestStockLedger_AddItem_DuplicateRejected(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(10, 2)))

	err := ledger.AddItem(chocolateCake(5, 1))
	assert.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrDuplicateItem)

	// Original stays untouched.
	item, _ := ledger.Get("B500")
	assert.Equal(t, 10, item.CurrentStock)
}

func TestStockLedger_AddItem_ValidationErrors(t *testing.T) {
	ledger, _ := newTestLedger(t)

	err := ledger.AddItem(engine.NewInventoryItem("", "No ID", "", 1, 0, price(1)))
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	err = ledger.AddItem(engine.NewInventoryItem("X1", "Negative", "", -1, 0, price(1)))
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

// =============================================================================
// DEDUCT / ADD TESTS
// =============================================================================

func TestStockLedger_Deduct_SufficientStock(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(10, 2)))

	ok, err := ledger.Deduct("B500", 4)
	require.NoError(t, err)
	assert.True(t, ok)

	item, _ := ledger.Get("B500")
	assert.Equal(t, 6, item.CurrentStock)
}

func TestStockLedger_Deduct_InsufficientStock_NoMutation(t *testing.T) {
	// GIVEN: 6 units on hand
	// WHEN: Deducting 8
	// THEN: The call reports failure and stock stays exactly 6

	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(6, 2)))

	ok, err := ledger.Deduct("B500", 8)
	require.NoError(t, err)
	assert.False(t, ok)

	item, _ := ledger.Get("B500")
	assert.Equal(t, 6, item.CurrentStock)
}

func TestStockLedger_Deduct_ExactStock_ReachesZero(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(4, 2)))

	ok, err := ledger.Deduct("B500", 4)
	require.NoError(t, err)
	assert.True(t, ok)

	item, _ := ledger.Get("B500")
	assert.Equal(t, 0, item.CurrentStock)
}

func TestStockLedger_Deduct_UnknownItem(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Deduct("NOPE", 1)
	assert.ErrorIs(t, err, engine.ErrItemNotFound)

	var nf *engine.ItemNotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, engine.ItemID("NOPE"), nf.ItemID)
}

func TestStockLedger_Deduct_NonPositiveQuantity(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(10, 2)))

	_, err := ledger.Deduct("B500", 0)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
	_, err = ledger.Deduct("B500", -3)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

func TestStockLedger_Add_IncreasesUnconditionally(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(6, 2)))

	require.NoError(t, ledger.Add("B500", 10))
	item, _ := ledger.Get("B500")
	assert.Equal(t, 16, item.CurrentStock)
}

// =============================================================================
// CONCURRENCY - per-item deductions are atomic check-and-mutate
// =============================================================================

func TestStockLedger_ConcurrentDeducts_NeverOversell(t *testing.T) {
	// GIVEN: 50 units of stock
	// WHEN: 100 goroutines each try to deduct 1 unit
	// THEN: Exactly 50 succeed and stock lands on zero

	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(50, 2)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.Deduct("B500", 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded)
	item, _ := ledger.Get("B500")
	assert.Equal(t, 0, item.CurrentStock)
}

// =============================================================================
// QUERY TESTS
// =============================================================================

func TestStockLedger_Queries_ReturnCopies(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(chocolateCake(10, 2)))

	items := ledger.Items()
	require.Len(t, items, 1)
	items[0].CurrentStock = 999

	item, _ := ledger.Get("B500")
	assert.Equal(t, 10, item.CurrentStock, "mutating a query result must not touch the ledger")
}

func TestStockLedger_ItemsSorted(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(engine.NewInventoryItem("C1", "Cheesecake", "", 3, 1, price(4.00))))
	require.NoError(t, ledger.AddItem(engine.NewInventoryItem("A1", "Apple Pie", "", 9, 1, price(2.00))))
	require.NoError(t, ledger.AddItem(engine.NewInventoryItem("B1", "Brownie", "", 5, 1, price(1.00))))

	byID := ledger.ItemsSorted("id")
	assert.Equal(t, engine.ItemID("A1"), byID[0].ItemID)
	assert.Equal(t, engine.ItemID("C1"), byID[2].ItemID)

	byStock := ledger.ItemsSorted("stock")
	assert.Equal(t, engine.ItemID("C1"), byStock[0].ItemID)
	assert.Equal(t, engine.ItemID("A1"), byStock[2].ItemID)

	byPrice := ledger.ItemsSorted("price")
	assert.Equal(t, engine.ItemID("B1"), byPrice[0].ItemID)
}

func TestStockLedger_ItemsBelowMinimum(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.NoError(t, ledger.AddItem(engine.NewInventoryItem("LOW", "Low", "", 1, 5, price(1))))
	require.NoError(t, ledger.AddItem(engine.NewInventoryItem("OK", "Ok", "", 10, 5, price(1))))
	require.NoError(t, ledger.AddItem(engine.NewInventoryItem("EDGE", "At threshold", "", 5, 5, price(1))))

	low := ledger.ItemsBelowMinimum()
	require.Len(t, low, 1)
	assert.Equal(t, engine.ItemID("LOW"), low[0].ItemID)

	// Stock equal to the minimum is not below it.
	assert.False(t, ledger.IsBelowMinimum("EDGE"))
	assert.True(t, ledger.IsBelowMinimum("LOW"))
	assert.False(t, ledger.IsBelowMinimum("MISSING"))
}
