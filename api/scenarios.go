/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the engine with realistic
	data for testing and demos. Each scenario creates catalog items and
	runs sales through the real pipeline, so the data carries genuine
	audit entries and stock levels.

AVAILABLE SCENARIOS:

	bakery-opening:   Fresh catalog, full stock, no sales yet
	busy-saturday:    A morning of confirmed and rejected sales plus a restock
	low-stock-alerts: Sales that drive several items under their minimums

HOW SCENARIOS WORK:
 1. Reset the engine (restore an empty snapshot)
 2. Register catalog items
 3. Run sales through ProcessSaleDirect
 4. Optionally restock

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-saturday"}

NOTE:

	Scenarios wipe all engine state. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Shared helpers
  - engine/engine.go: The pipeline scenarios run through
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sweetcraft/stock-engine/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "bakery-opening",
		Name:        "Bakery Opening",
		Description: "Fresh catalog with full stock and no sales",
	},
	{
		ID:          "busy-saturday",
		Name:        "Busy Saturday",
		Description: "A morning of sales including rejections and a restock",
	},
	{
		ID:          "low-stock-alerts",
		Name:        "Low Stock Alerts",
		Description: "Sales that drive several items under their minimum stock",
	},
}

// ListScenarios returns available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"scenarios": scenarios,
		"current":   h.currentScenario,
	})
}

// LoadScenario wipes the engine and loads the requested scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	// Reset: an empty snapshot clears the ledger, registry and history.
	h.Engine.RestoreSnapshot(engine.Snapshot{TakenAt: time.Now().UTC()})

	var err error
	switch req.ScenarioID {
	case "bakery-opening":
		err = loadBakeryOpening(h.Engine)
	case "busy-saturday":
		err = loadBusySaturday(h.Engine)
	case "low-stock-alerts":
		err = loadLowStockAlerts(h.Engine)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Log.Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func bakeryCatalog(eng *engine.SaleEngine) error {
	items := []engine.InventoryItem{
		engine.NewInventoryItem("B500", "Chocolate Cake", "Rich chocolate layer cake", 10, 2, decimal.NewFromFloat(1.50)),
		engine.NewInventoryItem("B501", "Croissant", "Butter croissant", 40, 10, decimal.NewFromFloat(0.90)),
		engine.NewInventoryItem("B502", "Sourdough Loaf", "24h fermented sourdough", 15, 4, decimal.NewFromFloat(3.20)),
		engine.NewInventoryItem("B503", "Cinnamon Roll", "With cream cheese frosting", 24, 6, decimal.NewFromFloat(1.10)),
		engine.NewInventoryItem("B504", "Lemon Tart", "Seasonal", 8, 3, decimal.NewFromFloat(2.40)),
	}
	for _, item := range items {
		if err := eng.AddItem(item); err != nil {
			return fmt.Errorf("failed to add %s: %w", item.ItemID, err)
		}
	}
	return nil
}

func loadBakeryOpening(eng *engine.SaleEngine) error {
	return bakeryCatalog(eng)
}

func loadBusySaturday(eng *engine.SaleEngine) error {
	if err := bakeryCatalog(eng); err != nil {
		return err
	}

	sales := []map[engine.ItemID]int{
		{"B500": 2, "B501": 6},
		{"B502": 1, "B503": 4},
		{"B501": 12},
		{"B500": 4, "B504": 2},
		{"B504": 20}, // rejected, only 6 tarts left
		{"B503": 8, "B501": 5},
	}
	for i, lines := range sales {
		customer := fmt.Sprintf("CUST-%03d", i+1)
		if _, err := eng.ProcessSaleDirect("", customer, "cashier", lines); err != nil {
			return fmt.Errorf("failed to process scenario sale for %s: %w", customer, err)
		}
	}

	// Midday croissant delivery.
	if _, err := eng.Restock("B501", 20, "manager"); err != nil {
		return fmt.Errorf("failed to restock: %w", err)
	}
	return nil
}

func loadLowStockAlerts(eng *engine.SaleEngine) error {
	if err := bakeryCatalog(eng); err != nil {
		return err
	}

	// Drive B500 and B504 below their minimums, leave the rest healthy.
	sales := []map[engine.ItemID]int{
		{"B500": 9},
		{"B504": 6},
		{"B502": 3},
	}
	for i, lines := range sales {
		customer := fmt.Sprintf("CUST-%03d", i+1)
		if _, err := eng.ProcessSaleDirect("", customer, "cashier", lines); err != nil {
			return fmt.Errorf("failed to process scenario sale for %s: %w", customer, err)
		}
	}
	return nil
}
