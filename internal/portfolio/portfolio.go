package portfolio

import (
	"errors"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidArgument means a non-positive quantity or price was passed.
	ErrInvalidArgument = errors.New("quantity and price must be positive")
	// ErrInsufficientFunds means a buy would cost more than the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares means a sell asked for more shares than are held.
	ErrInsufficientShares = errors.New("not enough shares held")
)

// Portfolio owns a cash balance and the holdings bought with it. All
// mutations go through Buy/Sell/LoadRecords so that two invariants hold after
// every call: the cash balance is never negative, and no holding has a
// non-positive quantity. A Portfolio is not safe for concurrent use; the
// store serializes access per user.
type Portfolio struct {
	cash     decimal.Decimal
	holdings map[string]*Holding
	log      *logrus.Logger
}

func New(startingCash decimal.Decimal, log *logrus.Logger) *Portfolio {
	return &Portfolio{
		cash:     startingCash,
		holdings: map[string]*Holding{},
		log:      log,
	}
}

// Buy debits quantity*price from the cash balance and adds the shares to the
// symbol's holding, creating it at cost basis price if it is the first buy.
// A rejected buy leaves the portfolio untouched.
func (p *Portfolio) Buy(symbol string, quantity int64, price decimal.Decimal) error {
	if quantity <= 0 || price.Sign() <= 0 {
		return ErrInvalidArgument
	}
	totalCost := price.Mul(decimal.NewFromInt(quantity))
	// Strict comparison: a buy that exactly exhausts the balance succeeds.
	if totalCost.GreaterThan(p.cash) {
		return ErrInsufficientFunds
	}
	p.cash = p.cash.Sub(totalCost)
	if h, ok := p.holdings[symbol]; ok {
		h.addShares(quantity, price)
	} else {
		p.holdings[symbol] = &Holding{Symbol: symbol, Quantity: quantity, AverageCost: price}
	}
	return nil
}

// Sell removes shares from the symbol's holding and credits quantity*price
// to the cash balance. Short selling is not allowed. Selling the entire
// position removes the holding.
func (p *Portfolio) Sell(symbol string, quantity int64, price decimal.Decimal) error {
	if quantity <= 0 || price.Sign() <= 0 {
		return ErrInvalidArgument
	}
	h, ok := p.holdings[symbol]
	if !ok || h.Quantity < quantity {
		return ErrInsufficientShares
	}
	h.removeShares(quantity)
	p.cash = p.cash.Add(price.Mul(decimal.NewFromInt(quantity)))
	if h.Quantity == 0 {
		delete(p.holdings, symbol)
	}
	return nil
}

func (p *Portfolio) CashBalance() decimal.Decimal {
	return p.cash
}

// Holdings returns a copied snapshot sorted by symbol. Mutating the returned
// slice never affects the portfolio.
func (p *Portfolio) Holdings() []Holding {
	out := make([]Holding, 0, len(p.holdings))
	for _, h := range p.holdings {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Record is one persisted holding row as the store hands it over, numeric
// fields still in their stored string form.
type Record struct {
	Symbol      string `db:"symbol"`
	Quantity    string `db:"quantity"`
	AverageCost string `db:"average_cost"`
}

// LoadRecords replaces the holdings wholesale from persisted rows. Rows that
// fail to parse, or that would violate the invariants (quantity <= 0,
// negative cost), are skipped with a warning; loading always continues. This
// is the only path that accepts an externally supplied average cost.
func (p *Portfolio) LoadRecords(records []Record) {
	p.holdings = make(map[string]*Holding, len(records))
	for _, rec := range records {
		qty, err := strconv.ParseInt(rec.Quantity, 10, 64)
		if err != nil {
			p.log.Warnf("skipping holding %s: bad quantity %q: %v", rec.Symbol, rec.Quantity, err)
			continue
		}
		avg, err := decimal.NewFromString(rec.AverageCost)
		if err != nil {
			p.log.Warnf("skipping holding %s: bad average cost %q: %v", rec.Symbol, rec.AverageCost, err)
			continue
		}
		if qty <= 0 || avg.Sign() < 0 {
			p.log.Warnf("skipping holding %s: out of range quantity %d or cost %s", rec.Symbol, qty, avg)
			continue
		}
		p.holdings[rec.Symbol] = &Holding{Symbol: rec.Symbol, Quantity: qty, AverageCost: avg}
	}
}
