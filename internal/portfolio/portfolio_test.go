package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPortfolio(t *testing.T) *Portfolio {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(decimal.NewFromInt(10000), log)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuy(t *testing.T) {
	p := newTestPortfolio(t)

	require.NoError(t, p.Buy("AAPL", 10, dec("150")))
	assert.True(t, p.CashBalance().Equal(dec("8500")), "balance %s", p.CashBalance())

	hs := p.Holdings()
	require.Len(t, hs, 1)
	assert.Equal(t, "AAPL", hs[0].Symbol)
	assert.Equal(t, int64(10), hs[0].Quantity)
	assert.True(t, hs[0].AverageCost.Equal(dec("150")))
}

func TestBuyReaveragesCostBasis(t *testing.T) {
	p := newTestPortfolio(t)

	require.NoError(t, p.Buy("X", 10, dec("100")))
	require.NoError(t, p.Buy("X", 10, dec("200")))

	hs := p.Holdings()
	require.Len(t, hs, 1)
	assert.Equal(t, int64(20), hs[0].Quantity)
	assert.True(t, hs[0].AverageCost.Equal(dec("150")), "avg cost %s", hs[0].AverageCost)
	assert.True(t, p.CashBalance().Equal(dec("7000")))
}

func TestBuyInsufficientFundsLeavesStateUntouched(t *testing.T) {
	p := newTestPortfolio(t)
	require.NoError(t, p.Buy("AAPL", 10, dec("150")))

	err := p.Buy("AAPL", 5, dec("5000"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.True(t, p.CashBalance().Equal(dec("8500")))
	hs := p.Holdings()
	require.Len(t, hs, 1)
	assert.Equal(t, int64(10), hs[0].Quantity)
	assert.True(t, hs[0].AverageCost.Equal(dec("150")))
}

func TestBuyExactBalance(t *testing.T) {
	p := newTestPortfolio(t)

	// 100 shares at 100 costs exactly the starting 10000.
	require.NoError(t, p.Buy("TSLA", 100, dec("100")))
	assert.True(t, p.CashBalance().IsZero(), "balance %s", p.CashBalance())
}

func TestBuyRejectsBadArguments(t *testing.T) {
	p := newTestPortfolio(t)

	assert.ErrorIs(t, p.Buy("AAPL", 0, dec("1")), ErrInvalidArgument)
	assert.ErrorIs(t, p.Buy("AAPL", -3, dec("1")), ErrInvalidArgument)
	assert.ErrorIs(t, p.Buy("AAPL", 1, dec("0")), ErrInvalidArgument)
	assert.ErrorIs(t, p.Buy("AAPL", 1, dec("-5")), ErrInvalidArgument)
	assert.True(t, p.CashBalance().Equal(dec("10000")))
	assert.Empty(t, p.Holdings())
}

func TestSell(t *testing.T) {
	p := newTestPortfolio(t)
	require.NoError(t, p.Buy("AAPL", 10, dec("150")))

	require.NoError(t, p.Sell("AAPL", 10, dec("200")))
	assert.True(t, p.CashBalance().Equal(dec("10500")), "balance %s", p.CashBalance())
	assert.Empty(t, p.Holdings(), "holding must be removed when sold out")
}

func TestSellPartialKeepsAverageCost(t *testing.T) {
	p := newTestPortfolio(t)
	require.NoError(t, p.Buy("AAPL", 10, dec("150")))

	require.NoError(t, p.Sell("AAPL", 4, dec("300")))
	hs := p.Holdings()
	require.Len(t, hs, 1)
	assert.Equal(t, int64(6), hs[0].Quantity)
	assert.True(t, hs[0].AverageCost.Equal(dec("150")), "selling must not move the cost basis")
}

func TestSellRejections(t *testing.T) {
	p := newTestPortfolio(t)

	assert.ErrorIs(t, p.Sell("MSFT", 1, dec("100")), ErrInsufficientShares)

	require.NoError(t, p.Buy("AAPL", 10, dec("150")))
	assert.ErrorIs(t, p.Sell("AAPL", 11, dec("100")), ErrInsufficientShares)
	assert.ErrorIs(t, p.Sell("AAPL", 0, dec("100")), ErrInvalidArgument)
	assert.ErrorIs(t, p.Sell("AAPL", 1, dec("0")), ErrInvalidArgument)

	// A rejected sell changes nothing.
	assert.True(t, p.CashBalance().Equal(dec("8500")))
	hs := p.Holdings()
	require.Len(t, hs, 1)
	assert.Equal(t, int64(10), hs[0].Quantity)
}

func TestHoldingsSnapshotIsDetached(t *testing.T) {
	p := newTestPortfolio(t)
	require.NoError(t, p.Buy("AAPL", 10, dec("150")))

	hs := p.Holdings()
	hs[0].Quantity = 999
	hs[0].AverageCost = dec("1")

	fresh := p.Holdings()
	assert.Equal(t, int64(10), fresh[0].Quantity)
	assert.True(t, fresh[0].AverageCost.Equal(dec("150")))
}

func TestHoldingsSortedBySymbol(t *testing.T) {
	p := newTestPortfolio(t)
	require.NoError(t, p.Buy("MSFT", 1, dec("10")))
	require.NoError(t, p.Buy("AAPL", 1, dec("10")))
	require.NoError(t, p.Buy("GOOGL", 1, dec("10")))

	hs := p.Holdings()
	require.Len(t, hs, 3)
	assert.Equal(t, "AAPL", hs[0].Symbol)
	assert.Equal(t, "GOOGL", hs[1].Symbol)
	assert.Equal(t, "MSFT", hs[2].Symbol)
}

func TestLoadRecords(t *testing.T) {
	p := newTestPortfolio(t)
	p.LoadRecords([]Record{
		{Symbol: "AAPL", Quantity: "10", AverageCost: "150.25"},
		{Symbol: "MSFT", Quantity: "3", AverageCost: "410"},
	})

	hs := p.Holdings()
	require.Len(t, hs, 2)
	assert.Equal(t, int64(10), hs[0].Quantity)
	assert.True(t, hs[0].AverageCost.Equal(dec("150.25")))
}

func TestLoadRecordsSkipsMalformedRows(t *testing.T) {
	p := newTestPortfolio(t)
	p.LoadRecords([]Record{
		{Symbol: "AAPL", Quantity: "ten", AverageCost: "150"},
	})
	assert.Empty(t, p.Holdings(), "malformed row must be skipped, not loaded")

	p.LoadRecords([]Record{
		{Symbol: "AAPL", Quantity: "10", AverageCost: "abc"},
		{Symbol: "MSFT", Quantity: "0", AverageCost: "100"},
		{Symbol: "GOOGL", Quantity: "-2", AverageCost: "100"},
		{Symbol: "TSLA", Quantity: "5", AverageCost: "250"},
	})
	hs := p.Holdings()
	require.Len(t, hs, 1, "only the well-formed row survives")
	assert.Equal(t, "TSLA", hs[0].Symbol)
}

func TestLoadRecordsReplacesExistingHoldings(t *testing.T) {
	p := newTestPortfolio(t)
	require.NoError(t, p.Buy("AAPL", 10, dec("150")))

	p.LoadRecords([]Record{{Symbol: "MSFT", Quantity: "1", AverageCost: "400"}})
	hs := p.Holdings()
	require.Len(t, hs, 1)
	assert.Equal(t, "MSFT", hs[0].Symbol)
}

func TestBalanceNeverNegative(t *testing.T) {
	p := newTestPortfolio(t)

	// Random-ish walk of operations; the invariants must hold throughout.
	ops := []struct {
		buy      bool
		symbol   string
		quantity int64
		price    string
	}{
		{true, "AAPL", 30, "150"},
		{true, "MSFT", 10, "400"},
		{false, "AAPL", 30, "100"},
		{true, "AAPL", 1000, "150"}, // rejected
		{false, "MSFT", 20, "100"},  // rejected
		{false, "MSFT", 10, "390"},
		{true, "GOOGL", 2, "2800"},
	}
	for _, op := range ops {
		if op.buy {
			_ = p.Buy(op.symbol, op.quantity, dec(op.price))
		} else {
			_ = p.Sell(op.symbol, op.quantity, dec(op.price))
		}
		assert.False(t, p.CashBalance().IsNegative(), "balance went negative after %+v", op)
		for _, h := range p.Holdings() {
			assert.Greater(t, h.Quantity, int64(0), "zero holding visible after %+v", op)
		}
	}
}
