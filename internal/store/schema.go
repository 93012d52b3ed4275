package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// sqliteSchema mirrors migrations/0001_init.up.sql for the file-backed
// variant, where there is no migration runner and the server creates its own
// tables on startup.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS portfolios (
		user_id TEXT PRIMARY KEY,
		cash_balance TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS holdings (
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		average_cost TEXT NOT NULL,
		PRIMARY KEY (user_id, symbol)
	)`,
	`CREATE TABLE IF NOT EXISTS stocks (
		symbol TEXT PRIMARY KEY,
		prev_close TEXT NOT NULL DEFAULT '',
		day_range TEXT NOT NULL DEFAULT '',
		year_range TEXT NOT NULL DEFAULT '',
		market_cap TEXT NOT NULL DEFAULT '',
		avg_volume TEXT NOT NULL DEFAULT '',
		div_yield TEXT NOT NULL DEFAULT '',
		pe_ratio TEXT NOT NULL DEFAULT ''
	)`,
}

// InitSQLiteSchema creates all application tables on a SQLite database.
func InitSQLiteSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
