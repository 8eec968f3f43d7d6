package paper

import (
	"context"
	"errors"
	"testing"

	"github.com/rustyeddy/gridbot/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var _ exchange.Client = (*Exchange)(nil)
var _ exchange.Inspector = (*Exchange)(nil)

func TestLimitOrdersFillWhenCrossed(t *testing.T) {
	ctx := context.Background()
	e := New()
	e.SetPrice("BTC/USDT", d("100"))

	buy, err := e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Buy, d("1"), d("90"))
	require.NoError(t, err)
	sell, err := e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Sell, d("1"), d("110"))
	require.NoError(t, err)
	assert.NotEqual(t, buy.ID, sell.ID)
	assert.Equal(t, StatusNew, buy.Status)

	e.SetPrice("BTCUSDT", d("95"))
	got, err := e.FetchOrder(ctx, buy.ID, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, StatusNew, got.Status)

	e.SetPrice("BTCUSDT", d("90"))
	got, err = e.FetchOrder(ctx, buy.ID, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, got.Status)
	assert.Equal(t, "90", got.Price.String())

	e.SetPrice("BTCUSDT", d("111"))
	got, err = e.FetchOrder(ctx, sell.ID, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, got.Status)
}

func TestMarketableOrderFillsImmediately(t *testing.T) {
	e := New()
	e.SetPrice("BTCUSDT", d("100"))
	o, err := e.CreateLimitOrder(context.Background(), "BTCUSDT", exchange.Buy, d("1"), d("105"))
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, o.Status)
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()
	e := New()

	_, err := e.FetchOrder(ctx, "nope", "BTCUSDT")
	assert.ErrorIs(t, err, exchange.ErrOrderNotFound)

	_, err = e.FetchTicker(ctx, "BTCUSDT")
	assert.Error(t, err)
}

func TestRejections(t *testing.T) {
	ctx := context.Background()
	e := New(WithBalances(map[string]decimal.Decimal{"usdt": d("100")}))

	_, err := e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Buy, d("1"), d("0"))
	assert.True(t, exchange.IsRejection(err))
	_, err = e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Buy, d("0"), d("10"))
	assert.True(t, exchange.IsRejection(err))

	_, err = e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Buy, d("2"), d("60"))
	var re *exchange.RejectionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, -2010, re.Code)

	// no BTC to sell
	_, err = e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Sell, d("1"), d("60"))
	assert.True(t, exchange.IsRejection(err))
}

func TestBalancesSettle(t *testing.T) {
	ctx := context.Background()
	e := New(WithBalances(map[string]decimal.Decimal{"USDT": d("1000"), "BTC": d("1")}))
	e.SetPrice("BTCUSDT", d("100"))

	_, err := e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Buy, d("2"), d("90"))
	require.NoError(t, err)
	_, err = e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Sell, d("0.5"), d("110"))
	require.NoError(t, err)

	usdt, _ := e.FetchBalance(ctx, "usdt")
	assert.Equal(t, "820", usdt.Free.String())
	assert.Equal(t, "180", usdt.Locked.String())

	e.SetPrice("BTCUSDT", d("90"))
	btc, _ := e.FetchBalance(ctx, "BTC")
	assert.Equal(t, "2.5", btc.Free.String())
	assert.Equal(t, "0.5", btc.Locked.String())
	usdt, _ = e.FetchBalance(ctx, "USDT")
	assert.True(t, usdt.Locked.IsZero())

	e.SetPrice("BTCUSDT", d("110"))
	usdt, _ = e.FetchBalance(ctx, "USDT")
	assert.Equal(t, "875", usdt.Free.String())

	eth, err := e.FetchBalance(ctx, "ETH")
	require.NoError(t, err)
	assert.True(t, eth.Free.IsZero())
}

func TestCancelAllAndList(t *testing.T) {
	ctx := context.Background()
	e := New(WithBalances(map[string]decimal.Decimal{"USDT": d("1000")}))
	e.SetPrice("BTCUSDT", d("100"))

	a, _ := e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Buy, d("1"), d("90"))
	b, _ := e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Buy, d("1"), d("80"))
	_, _ = e.CreateLimitOrder(ctx, "ETHUSDT", exchange.Buy, d("1"), d("10"))

	open, err := e.ListOrders(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, a.ID, open[0].ID)
	assert.Equal(t, b.ID, open[1].ID)

	require.NoError(t, e.CancelAllOrders(ctx, "BTCUSDT"))
	open, _ = e.ListOrders(ctx, "BTCUSDT")
	assert.Empty(t, open)
	open, _ = e.ListOrders(ctx, "ETHUSDT")
	assert.Len(t, open, 1)

	got, _ := e.FetchOrder(ctx, a.ID, "BTCUSDT")
	assert.Equal(t, StatusCanceled, got.Status)

	usdt, _ := e.FetchBalance(ctx, "USDT")
	assert.Equal(t, "990", usdt.Free.String())
	assert.Equal(t, "10", usdt.Locked.String())
}

type fixedSource struct {
	t   exchange.Ticker
	err error
}

func (f *fixedSource) FetchTicker(context.Context, string) (exchange.Ticker, error) {
	return f.t, f.err
}

func TestTickerSource(t *testing.T) {
	ctx := context.Background()
	src := &fixedSource{t: exchange.Ticker{Bid: d("100"), Ask: d("101")}}
	e := New(WithTickerSource(src))

	tk, err := e.FetchTicker(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", tk.Symbol)
	assert.Equal(t, "100", tk.Bid.String())

	o, err := e.CreateLimitOrder(ctx, "BTCUSDT", exchange.Sell, d("1"), d("105"))
	require.NoError(t, err)

	src.t = exchange.Ticker{Bid: d("106"), Ask: d("107")}
	got, err := e.FetchOrder(ctx, o.ID, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, got.Status)

	src.err = errors.New("timeout")
	_, err = e.FetchOrder(ctx, o.ID, "BTCUSDT")
	assert.Error(t, err)
}

func TestSplitSymbol(t *testing.T) {
	tests := []struct{ in, base, quote string }{
		{"BTCUSDT", "BTC", "USDT"},
		{"eth/btc", "ETH", "BTC"},
		{"BTCUSD", "BTC", "USD"},
		{"XYZ", "XYZ", ""},
	}
	for _, tt := range tests {
		b, q := SplitSymbol(tt.in)
		assert.Equal(t, tt.base, b, tt.in)
		assert.Equal(t, tt.quote, q, tt.in)
	}
}
