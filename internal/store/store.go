// Package store persists portfolios: one cash balance row per user plus one
// row per holding. It runs unchanged on Postgres (lib/pq) and SQLite
// (modernc.org/sqlite); statements are written with ? placeholders and
// rebound per driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stockfolio/internal/portfolio"
)

func init() {
	// modernc.org/sqlite registers as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type Store struct {
	db           *sqlx.DB
	log          *logrus.Logger
	startingCash decimal.Decimal

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func New(db *sqlx.DB, log *logrus.Logger, startingCash decimal.Decimal) *Store {
	return &Store{
		db:           db,
		log:          log,
		startingCash: startingCash,
		users:        map[string]*sync.Mutex{},
	}
}

// Do runs fn while holding this user's lock. The portfolio engine is
// single-session by design, so every load-mutate-save sequence for a user
// must go through here or concurrent requests would lose updates.
func (s *Store) Do(userID string, fn func() error) error {
	s.mu.Lock()
	l, ok := s.users[userID]
	if !ok {
		l = &sync.Mutex{}
		s.users[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn()
}

// Load returns the user's cash balance and holding rows. A user seen for the
// first time gets a portfolio row at the configured starting balance.
func (s *Store) Load(ctx context.Context, userID string) (decimal.Decimal, []portfolio.Record, error) {
	var cashStr string
	err := s.db.GetContext(ctx, &cashStr,
		s.db.Rebind(`SELECT CAST(cash_balance AS TEXT) FROM portfolios WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO portfolios (user_id, cash_balance) VALUES (?, ?)`),
			userID, s.startingCash.StringFixed(4)); err != nil {
			return decimal.Zero, nil, fmt.Errorf("create portfolio: %w", err)
		}
		return s.startingCash, nil, nil
	}
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("load balance: %w", err)
	}
	cash, err := decimal.NewFromString(cashStr)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("stored balance %q: %w", cashStr, err)
	}

	rows, err := s.db.QueryxContext(ctx,
		s.db.Rebind(`SELECT symbol, CAST(quantity AS TEXT) AS quantity, CAST(average_cost AS TEXT) AS average_cost FROM holdings WHERE user_id = ?`), userID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("load holdings: %w", err)
	}
	defer rows.Close()

	records := []portfolio.Record{}
	for rows.Next() {
		var rec portfolio.Record
		if err := rows.StructScan(&rec); err != nil {
			s.log.Warnf("scan holding failed: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return cash, records, rows.Err()
}

// Save rewrites the user's portfolio in one transaction: balance upsert, then
// delete-and-reinsert of the holding rows.
func (s *Store) Save(ctx context.Context, userID string, cash decimal.Decimal, holdings []portfolio.Holding) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := tx.Rebind(`INSERT INTO portfolios (user_id, cash_balance) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET cash_balance = excluded.cash_balance`)
	if _, err := tx.ExecContext(ctx, upsert, userID, cash.StringFixed(4)); err != nil {
		return fmt.Errorf("save balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM holdings WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("clear holdings: %w", err)
	}
	ins := tx.Rebind(`INSERT INTO holdings (user_id, symbol, quantity, average_cost) VALUES (?, ?, ?, ?)`)
	for _, h := range holdings {
		if _, err := tx.ExecContext(ctx, ins, userID, h.Symbol, h.Quantity, h.AverageCost.StringFixed(4)); err != nil {
			return fmt.Errorf("save holding %s: %w", h.Symbol, err)
		}
	}
	return tx.Commit()
}
