package engine

import (
	"context"
	"time"
)

// Snapshot is a point-in-time copy of the full engine state, used to carry
// the in-memory stores across restarts.
type Snapshot struct {
	TakenAt time.Time
	Items   []InventoryItem
	Sales   []*SaleTransaction
	History []HistoryEntry
}

// SnapshotStore persists snapshots. Implementations replace the previous
// snapshot wholesale; there is no incremental form.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	// Load returns ok=false when no snapshot has been saved yet.
	Load(ctx context.Context) (Snapshot, bool, error)
	Close() error
}

// Snapshot captures the current engine state. Taken under the engine mutex
// so no sale is half-committed in the copy.
func (e *SaleEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		TakenAt: time.Now().UTC(),
		Items:   e.ledger.Items(),
		Sales:   e.registry.All(),
		History: e.history.All(),
	}
}

// RestoreSnapshot replaces all engine state with the snapshot's contents.
// Meant for startup, before the engine takes traffic.
func (e *SaleEngine) RestoreSnapshot(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.replaceAll(snap.Items)
	e.registry.replaceAll(snap.Sales)
	e.history.replaceAll(snap.History)
	e.log.Info().
		Time("taken_at", snap.TakenAt).
		Int("items", len(snap.Items)).
		Int("sales", len(snap.Sales)).
		Int("history", len(snap.History)).
		Msg("state restored from snapshot")
}
