/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Catalog items are registered
	- Sales ran through the real pipeline
	- Low-stock items end up flagged
	- Loading a scenario wipes the previous one
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcraft/stock-engine/engine"
)

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: id}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestScenario_BakeryOpening(t *testing.T) {
	h, router := newTestServer(t)
	loadScenario(t, router, "bakery-opening")

	assert.Equal(t, 5, h.Engine.Ledger().Len())
	assert.Equal(t, 0, h.Engine.Registry().Len())
	assert.Empty(t, h.Engine.ItemsBelowMinimum())

	// Every item registration is audited.
	assert.Equal(t, 5, h.Engine.History().Len())
}

func TestScenario_BusySaturday(t *testing.T) {
	h, router := newTestServer(t)
	loadScenario(t, router, "busy-saturday")

	confirmed, rejected := 0, 0
	for _, sale := range h.Engine.Registry().All() {
		switch sale.Status {
		case engine.SaleConfirmed:
			confirmed++
		case engine.SaleRejected:
			rejected++
		}
	}
	assert.Equal(t, 5, confirmed)
	assert.Equal(t, 1, rejected, "the 20-tart order must bounce")

	// The croissant delivery happened after the morning rush.
	croissants, ok := h.Engine.Ledger().Get("B501")
	require.True(t, ok)
	assert.Equal(t, 40-6-12-5+20, croissants.CurrentStock)
}

func TestScenario_LowStockAlerts(t *testing.T) {
	h, router := newTestServer(t)
	loadScenario(t, router, "low-stock-alerts")

	low := h.Engine.ItemsBelowMinimum()
	ids := make([]string, len(low))
	for i, item := range low {
		ids[i] = string(item.ItemID)
	}
	assert.ElementsMatch(t, []string{"B500", "B504"}, ids)
}

func TestScenario_LoadWipesPreviousState(t *testing.T) {
	h, router := newTestServer(t)
	loadScenario(t, router, "busy-saturday")
	require.NotZero(t, h.Engine.Registry().Len())

	loadScenario(t, router, "bakery-opening")
	assert.Equal(t, 0, h.Engine.Registry().Len())
	assert.Equal(t, 5, h.Engine.Ledger().Len())
}

func TestScenario_Unknown(t *testing.T) {
	_, router := newTestServer(t)
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "mars-colony"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
