/*
watcher.go - Background low-stock watcher

PURPOSE:
  Periodically scans the catalog for items whose stock fell under their
  minimum and logs a warning per item. Operations teams alert off these
  log lines; the watcher itself never mutates stock.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Logs each low item at WARN with item id, stock and threshold
  - Re-warns on every tick while the item stays low (alerts should nag)

CONFIGURATION:
  - CheckInterval: How often to scan (default: 1 minute)
  - Enabled: Whether the watcher is active (default: true)

USAGE:
  watcher := NewLowStockWatcher(eng, log)
  watcher.Start()
  // ... later
  watcher.Stop()

SEE ALSO:
  - engine/ledger.go: ItemsBelowMinimum
  - handlers.go: ListLowStock endpoint (on-demand equivalent)
*/
package api

import (
	"sync"
	"time"

	"github.com/sweetcraft/stock-engine/engine"
	"github.com/sweetcraft/stock-engine/pkg/logger"
)

// LowStockWatcher warns about items running under their minimum stock.
type LowStockWatcher struct {
	Engine        *engine.SaleEngine
	Log           *logger.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLowStockWatcher creates a watcher with the default interval.
func NewLowStockWatcher(eng *engine.SaleEngine, log *logger.Logger) *LowStockWatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &LowStockWatcher{
		Engine:        eng,
		Log:           log,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the background scan loop.
func (ws *LowStockWatcher) Start() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.Enabled {
		ws.Log.Info().Msg("low-stock watcher disabled, not starting")
		return
	}

	ws.ticker = time.NewTicker(ws.CheckInterval)
	ws.wg.Add(1)
	go ws.run()

	ws.Log.Info().Dur("interval", ws.CheckInterval).Msg("low-stock watcher started")
}

// Stop halts the scan loop and waits for it to exit.
func (ws *LowStockWatcher) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.ticker != nil {
		ws.ticker.Stop()
		close(ws.stop)
		ws.wg.Wait()
		ws.Log.Info().Msg("low-stock watcher stopped")
	}
}

func (ws *LowStockWatcher) run() {
	defer ws.wg.Done()

	// Scan immediately on start
	ws.scan()

	for {
		select {
		case <-ws.ticker.C:
			ws.scan()
		case <-ws.stop:
			return
		}
	}
}

func (ws *LowStockWatcher) scan() {
	for _, item := range ws.Engine.ItemsBelowMinimum() {
		ws.Log.Warn().
			Str("item_id", string(item.ItemID)).
			Str("name", item.Name).
			Int("current_stock", item.CurrentStock).
			Int("minimum_stock", item.MinimumStock).
			Msg("item below minimum stock")
	}
}
