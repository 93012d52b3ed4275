package portfolio

import "github.com/shopspring/decimal"

// Holding is a single position: how many shares of one symbol are held and
// the volume-weighted average price paid for them. A Holding with zero
// quantity never appears in a Portfolio; it is removed instead.
type Holding struct {
	Symbol      string
	Quantity    int64
	AverageCost decimal.Decimal
}

// addShares folds newly bought shares into the position, re-averaging the
// cost basis: (oldAvg*oldQty + price*amount) / (oldQty + amount).
func (h *Holding) addShares(amount int64, price decimal.Decimal) {
	total := h.AverageCost.Mul(decimal.NewFromInt(h.Quantity)).
		Add(price.Mul(decimal.NewFromInt(amount)))
	h.Quantity += amount
	h.AverageCost = total.Div(decimal.NewFromInt(h.Quantity))
}

// removeShares decrements the position. Selling does not change the average
// cost of the remaining shares. The caller removes the Holding from the
// portfolio once quantity reaches zero.
func (h *Holding) removeShares(amount int64) {
	h.Quantity -= amount
}
