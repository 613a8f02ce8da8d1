package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		qr_code TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_location ON items(location, status)`,

	`CREATE TABLE IF NOT EXISTS stock_counts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id INTEGER NOT NULL REFERENCES items(id),
		qr_code TEXT NOT NULL,
		unrestrict INTEGER NOT NULL DEFAULT 0 CHECK (unrestrict >= 0),
		foc INTEGER NOT NULL DEFAULT 0 CHECK (foc >= 0),
		rfb INTEGER NOT NULL DEFAULT 0 CHECK (rfb >= 0),
		total INTEGER GENERATED ALWAYS AS (unrestrict + foc + rfb) STORED,
		count_type TEXT NOT NULL DEFAULT 'manual',
		count_date DATETIME NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_counts_latest ON stock_counts(qr_code, count_date DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS stock_movements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		qr_code TEXT NOT NULL,
		movement_type TEXT NOT NULL,
		from_location TEXT,
		to_location TEXT,
		unrestrict INTEGER NOT NULL DEFAULT 0,
		foc INTEGER NOT NULL DEFAULT 0,
		rfb INTEGER NOT NULL DEFAULT 0,
		total INTEGER GENERATED ALWAYS AS (unrestrict + foc + rfb) STORED,
		reason TEXT NOT NULL DEFAULT '',
		reference_doc TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'completed',
		stock_count_id INTEGER NOT NULL REFERENCES stock_counts(id),
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_code ON stock_movements(qr_code, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS item_blocks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		qr_code TEXT NOT NULL,
		block_type TEXT NOT NULL,
		reason TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		blocked_by TEXT NOT NULL,
		blocked_at DATETIME NOT NULL,
		unblocked_by TEXT,
		unblocked_at DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_item_blocks_active ON item_blocks(qr_code) WHERE status = 'active'`,

	`CREATE TABLE IF NOT EXISTS location_transfers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transfer_number TEXT UNIQUE NOT NULL,
		from_location TEXT NOT NULL,
		to_location TEXT NOT NULL,
		total_items INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		notes TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		approved_by TEXT,
		approved_at DATETIME,
		completed_by TEXT,
		completed_at DATETIME,
		cancelled_by TEXT,
		cancelled_at DATETIME,
		CHECK (from_location <> to_location)
	)`,
	`CREATE TABLE IF NOT EXISTS transfer_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transfer_id INTEGER NOT NULL REFERENCES location_transfers(id),
		qr_code TEXT NOT NULL,
		unrestrict INTEGER NOT NULL DEFAULT 0,
		foc INTEGER NOT NULL DEFAULT 0,
		rfb INTEGER NOT NULL DEFAULT 0,
		total INTEGER GENERATED ALWAYS AS (unrestrict + foc + rfb) STORED,
		status TEXT NOT NULL DEFAULT 'pending',
		received_by TEXT,
		received_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transfer_items_transfer ON transfer_items(transfer_id)`,

	`CREATE TABLE IF NOT EXISTS inventory_variances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		qr_code TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		counted_unrestrict INTEGER NOT NULL,
		counted_foc INTEGER NOT NULL,
		counted_rfb INTEGER NOT NULL,
		system_unrestrict INTEGER NOT NULL,
		system_foc INTEGER NOT NULL,
		system_rfb INTEGER NOT NULL,
		variance_unrestrict INTEGER GENERATED ALWAYS AS (counted_unrestrict - system_unrestrict) STORED,
		variance_foc INTEGER GENERATED ALWAYS AS (counted_foc - system_foc) STORED,
		variance_rfb INTEGER GENERATED ALWAYS AS (counted_rfb - system_rfb) STORED,
		variance_total INTEGER GENERATED ALWAYS AS (
			(counted_unrestrict + counted_foc + counted_rfb) - (system_unrestrict + system_foc + system_rfb)
		) STORED,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT,
		approved_at DATETIME,
		count_date DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_variances_status ON inventory_variances(status)`,

	`CREATE TABLE IF NOT EXISTS cyclic_counts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location TEXT NOT NULL,
		frequency_days INTEGER NOT NULL CHECK (frequency_days > 0),
		last_count_date DATETIME,
		next_count_date DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_by TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_cyclic_counts_active ON cyclic_counts(location) WHERE status = 'active'`,
}

// Migrate creates every table and index. Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
