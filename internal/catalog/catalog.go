// Package catalog is the stock reference table: which symbols are tradable
// and their descriptive market data, loaded from snapshot CSV files.
package catalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ErrUnknownSymbol is returned by Get for symbols not in the catalog.
var ErrUnknownSymbol = errors.New("unknown stock symbol")

// Stock is one reference row. The descriptive fields come straight from the
// market-data snapshot and are kept as text; nothing in the system does
// arithmetic on them.
type Stock struct {
	Symbol    string `db:"symbol" json:"symbol"`
	PrevClose string `db:"prev_close" json:"prev_close"`
	DayRange  string `db:"day_range" json:"day_range"`
	YearRange string `db:"year_range" json:"year_range"`
	MarketCap string `db:"market_cap" json:"market_cap"`
	AvgVolume string `db:"avg_volume" json:"avg_volume"`
	DivYield  string `db:"div_yield" json:"div_yield"`
	PERatio   string `db:"pe_ratio" json:"pe_ratio"`
}

type Catalog struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Catalog {
	return &Catalog{db: db, log: log}
}

// Exists reports whether the symbol is in the catalog. Symbols are stored
// upper case; lookups fold case.
func (c *Catalog) Exists(ctx context.Context, symbol string) (bool, error) {
	var one int
	err := c.db.GetContext(ctx, &one,
		c.db.Rebind(`SELECT 1 FROM stocks WHERE symbol = ?`), strings.ToUpper(symbol))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Catalog) Get(ctx context.Context, symbol string) (Stock, error) {
	var s Stock
	err := c.db.GetContext(ctx, &s,
		c.db.Rebind(`SELECT symbol, prev_close, day_range, year_range, market_cap, avg_volume, div_yield, pe_ratio FROM stocks WHERE symbol = ?`),
		strings.ToUpper(symbol))
	if errors.Is(err, sql.ErrNoRows) {
		return Stock{}, ErrUnknownSymbol
	}
	return s, err
}

func (c *Catalog) List(ctx context.Context) ([]Stock, error) {
	rows, err := c.db.QueryxContext(ctx,
		`SELECT symbol, prev_close, day_range, year_range, market_cap, avg_volume, div_yield, pe_ratio FROM stocks ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Stock{}
	for rows.Next() {
		var s Stock
		if err := rows.StructScan(&s); err != nil {
			c.log.Warnf("scan stock failed: %v", err)
			continue
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// EnsureExists seeds a bare catalog row for the symbol if it is missing.
func (c *Catalog) EnsureExists(ctx context.Context, symbol string) error {
	_, err := c.db.ExecContext(ctx,
		c.db.Rebind(`INSERT INTO stocks (symbol) VALUES (?) ON CONFLICT (symbol) DO NOTHING`),
		strings.ToUpper(symbol))
	return err
}

// ReplaceFromCSV atomically swaps the catalog contents for the rows in r.
// Each row is symbol followed by the seven descriptive fields; short rows are
// skipped with a warning and import continues. Returns the number of rows
// imported.
func (c *Catalog) ReplaceFromCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stocks`); err != nil {
		return 0, fmt.Errorf("clear stocks: %w", err)
	}

	ins := tx.Rebind(`INSERT INTO stocks (symbol, prev_close, day_range, year_range, market_cap, avg_volume, div_yield, pe_ratio) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.log.Warnf("skipping malformed csv row: %v", err)
			continue
		}
		if len(row) < 8 {
			c.log.Warnf("skipping short csv row (%d fields): %v", len(row), row)
			continue
		}
		if _, err := tx.ExecContext(ctx, ins,
			strings.ToUpper(strings.TrimSpace(row[0])),
			row[1], row[2], row[3], row[4], row[5], row[6], row[7]); err != nil {
			return 0, fmt.Errorf("insert stock %s: %w", row[0], err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
