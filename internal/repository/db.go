package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			completed_at DATETIME NOT NULL,
			settlement_count INTEGER NOT NULL,
			transaction_count INTEGER NOT NULL,
			receipt_line_count INTEGER NOT NULL,
			offset_pair_count INTEGER NOT NULL,
			dropped_pair_count INTEGER NOT NULL,
			match_count INTEGER NOT NULL,
			unmatched_pos_count INTEGER NOT NULL,
			unmatched_settlement_count INTEGER NOT NULL,
			vendor_count INTEGER NOT NULL,
			warning_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS vendor_settlements (
			run_id TEXT NOT NULL,
			vendor TEXT NOT NULL,
			gross_sales INTEGER NOT NULL,
			discount_total INTEGER NOT NULL,
			net_sales INTEGER NOT NULL,
			card_sales INTEGER NOT NULL,
			non_card_sales INTEGER NOT NULL,
			seller_borne_discount INTEGER NOT NULL,
			vendor_borne_discount INTEGER NOT NULL,
			fee_total INTEGER NOT NULL,
			payout INTEGER NOT NULL,
			item_count INTEGER NOT NULL,
			card_item_count INTEGER NOT NULL,
			non_card_item_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, vendor),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vendor_settlements_run ON vendor_settlements(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vendor_settlements_payout ON vendor_settlements(payout)`,

		`CREATE TABLE IF NOT EXISTS unmatched_records (
			run_id TEXT NOT NULL,
			side TEXT NOT NULL,
			business_date DATETIME,
			issuer TEXT,
			amount INTEGER NOT NULL,
			approval_no TEXT,
			receipt_no TEXT,
			reason TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unmatched_records_run ON unmatched_records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_unmatched_records_side ON unmatched_records(side)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
