/*
Package sqlite persists engine snapshots to SQLite.

PURPOSE:
  Implements engine.SnapshotStore. The engine runs fully in memory; this
  store exists so a restart does not lose the catalog, the transaction
  registry, or the audit trail. A snapshot is saved on shutdown (and
  optionally on a timer) and loaded once at startup.

SNAPSHOT SEMANTICS:
  Save replaces the previous snapshot wholesale inside one SQL transaction,
  so a crash mid-save leaves the prior snapshot intact. There is no
  incremental form: the engine state is small enough that rewriting it is
  cheaper than diffing it.

KEY TABLES:
  snapshot_meta: Single row holding the capture time
  items:         Catalog items with stock levels
  sales:         Sale transactions (status, total, rejection reason)
  sale_items:    Line items per sale
  history:       Audit trail entries in append order

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so a reader inspecting
  the file never blocks a save.

USAGE:
  store, err := sqlite.New("./data/stock-engine.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  if snap, ok, err := store.Load(ctx); err == nil && ok {
      eng.RestoreSnapshot(snap)
  }

SEE ALSO:
  - engine/snapshot.go: Snapshot type and SnapshotStore interface
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/sweetcraft/stock-engine/engine"
)

// Store implements engine.SnapshotStore using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite-backed snapshot store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		taken_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		item_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		current_stock INTEGER NOT NULL,
		initial_stock INTEGER NOT NULL,
		minimum_stock INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		transaction_id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		rejection_reason TEXT NOT NULL DEFAULT '',
		confirmed_by TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sales_created_at
		ON sales(created_at);

	CREATE TABLE IF NOT EXISTS sale_items (
		transaction_id TEXT NOT NULL REFERENCES sales(transaction_id) ON DELETE CASCADE,
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		PRIMARY KEY (transaction_id, item_id)
	);

	CREATE TABLE IF NOT EXISTS history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE
// =============================================================================

// Save replaces the stored snapshot with snap inside one SQL transaction.
func (s *Store) Save(ctx context.Context, snap engine.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"history", "sale_items", "sales", "items", "snapshot_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, taken_at) VALUES (1, ?)`,
		snap.TakenAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to save snapshot meta: %w", err)
	}

	for _, item := range snap.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (item_id, name, description, current_stock, initial_stock,
				minimum_stock, unit_price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(item.ItemID), item.Name, item.Description,
			item.CurrentStock, item.InitialStock, item.MinimumStock,
			item.UnitPrice.String(),
			item.CreatedAt.UTC().Format(time.RFC3339Nano),
			item.UpdatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to save item %s: %w", item.ItemID, err)
		}
	}

	for _, sale := range snap.Sales {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sales (transaction_id, customer_id, created_at, total,
				status, rejection_reason, confirmed_by)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sale.TransactionID, sale.CustomerID,
			sale.CreatedAt.UTC().Format(time.RFC3339Nano),
			sale.Total.String(), string(sale.Status),
			sale.RejectionReason, sale.ConfirmedBy,
		); err != nil {
			return fmt.Errorf("failed to save sale %s: %w", sale.TransactionID, err)
		}
		for _, line := range sale.ItemsSorted() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sale_items (transaction_id, item_id, item_name, quantity, unit_price)
				VALUES (?, ?, ?, ?, ?)`,
				sale.TransactionID, string(line.ItemID), line.ItemName,
				line.Quantity, line.UnitPrice.String(),
			); err != nil {
				return fmt.Errorf("failed to save sale line %s/%s: %w", sale.TransactionID, line.ItemID, err)
			}
		}
	}

	for _, entry := range snap.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO history (id, transaction_id, timestamp, actor, action, details, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.TransactionID,
			entry.Timestamp.UTC().Format(time.RFC3339Nano),
			entry.Actor, string(entry.Action), entry.Details, entry.Reason,
		); err != nil {
			return fmt.Errorf("failed to save history entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// LOAD
// =============================================================================

// Load returns the stored snapshot, or ok=false when none has been saved.
func (s *Store) Load(ctx context.Context) (engine.Snapshot, bool, error) {
	var snap engine.Snapshot

	var takenAt string
	err := s.db.QueryRowContext(ctx, `SELECT taken_at FROM snapshot_meta WHERE id = 1`).Scan(&takenAt)
	if err == sql.ErrNoRows {
		return engine.Snapshot{}, false, nil
	}
	if err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("failed to load snapshot meta: %w", err)
	}
	if snap.TakenAt, err = parseTime(takenAt); err != nil {
		return engine.Snapshot{}, false, err
	}

	if snap.Items, err = s.loadItems(ctx); err != nil {
		return engine.Snapshot{}, false, err
	}
	if snap.Sales, err = s.loadSales(ctx); err != nil {
		return engine.Snapshot{}, false, err
	}
	if snap.History, err = s.loadHistory(ctx); err != nil {
		return engine.Snapshot{}, false, err
	}

	return snap, true, nil
}

func (s *Store) loadItems(ctx context.Context) ([]engine.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, description, current_stock, initial_stock,
			minimum_stock, unit_price, created_at, updated_at
		FROM items ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	var items []engine.InventoryItem
	for rows.Next() {
		var (
			item                           engine.InventoryItem
			id, priceStr, created, updated string
		)
		if err := rows.Scan(&id, &item.Name, &item.Description,
			&item.CurrentStock, &item.InitialStock, &item.MinimumStock,
			&priceStr, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.ItemID = engine.ItemID(id)
		if item.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("bad unit price for item %s: %w", id, err)
		}
		if item.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if item.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) loadSales(ctx context.Context) ([]*engine.SaleTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, customer_id, created_at, total,
			status, rejection_reason, confirmed_by
		FROM sales`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*engine.SaleTransaction)
	for rows.Next() {
		sale := &engine.SaleTransaction{Items: make(map[engine.ItemID]engine.SaleItem)}
		var created, totalStr, status string
		if err := rows.Scan(&sale.TransactionID, &sale.CustomerID, &created,
			&totalStr, &status, &sale.RejectionReason, &sale.ConfirmedBy); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if sale.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if sale.Total, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("bad total for sale %s: %w", sale.TransactionID, err)
		}
		sale.Status = engine.SaleStatus(status)
		byID[sale.TransactionID] = sale
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, item_id, item_name, quantity, unit_price
		FROM sale_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			txID, itemID, priceStr string
			line                   engine.SaleItem
		)
		if err := lineRows.Scan(&txID, &itemID, &line.ItemName, &line.Quantity, &priceStr); err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}
		line.ItemID = engine.ItemID(itemID)
		if line.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("bad unit price for sale line %s/%s: %w", txID, itemID, err)
		}
		if sale, ok := byID[txID]; ok {
			sale.Items[line.ItemID] = line
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	sales := make([]*engine.SaleTransaction, 0, len(byID))
	for _, sale := range byID {
		sales = append(sales, sale)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].CreatedAt.Before(sales[j].CreatedAt) })
	return sales, nil
}

func (s *Store) loadHistory(ctx context.Context) ([]engine.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, timestamp, actor, action, details, reason
		FROM history ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var entries []engine.HistoryEntry
	for rows.Next() {
		var (
			entry      engine.HistoryEntry
			ts, action string
		)
		if err := rows.Scan(&entry.ID, &entry.TransactionID, &ts,
			&entry.Actor, &action, &entry.Details, &entry.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if entry.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		entry.Action = engine.HistoryAction(action)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}
