// Package paper is an in-memory exchange for dry runs and tests.
//
// Limit orders rest as NEW until the ticker crosses them: a buy fills once
// the ask is at or below its price, a sell once the bid is at or above its
// price. Fills happen at the order's own price. When balances are seeded,
// placing an order locks the funds it needs and a fill settles them.
package paper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rustyeddy/gridbot/exchange"
	"github.com/shopspring/decimal"
)

const (
	StatusNew      = "NEW"
	StatusFilled   = "FILLED"
	StatusCanceled = "CANCELED"
)

// TickerSource supplies live prices, e.g. a public exchange endpoint.
type TickerSource interface {
	FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error)
}

type Exchange struct {
	mu       sync.Mutex
	tickers  map[string]exchange.Ticker
	orders   map[string]*exchange.Order
	seq      []string // placement order
	balances map[string]*exchange.Balance
	source   TickerSource
}

type Option func(*Exchange)

// WithBalances enables balance checks. Without it every order is accepted.
func WithBalances(b map[string]decimal.Decimal) Option {
	return func(e *Exchange) {
		e.balances = make(map[string]*exchange.Balance, len(b))
		for asset, free := range b {
			asset = strings.ToUpper(asset)
			e.balances[asset] = &exchange.Balance{Asset: asset, Free: free}
		}
	}
}

// WithTickerSource refreshes prices from src on every ticker and order query.
func WithTickerSource(src TickerSource) Option {
	return func(e *Exchange) { e.source = src }
}

func New(opts ...Option) *Exchange {
	e := &Exchange{
		tickers: make(map[string]exchange.Ticker),
		orders:  make(map[string]*exchange.Order),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPrice sets bid and ask of symbol to price and fills crossed orders.
func (e *Exchange) SetPrice(symbol string, price decimal.Decimal) {
	e.SetTicker(exchange.Ticker{Symbol: symbol, Bid: price, Ask: price})
}

func (e *Exchange) SetTicker(t exchange.Ticker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setTickerLocked(t)
}

func (e *Exchange) setTickerLocked(t exchange.Ticker) {
	t.Symbol = exchange.NormalizeSymbol(t.Symbol)
	e.tickers[t.Symbol] = t
	for _, id := range e.seq {
		o := e.orders[id]
		if o.Symbol == t.Symbol && o.Status == StatusNew && crosses(o, t) {
			e.fillLocked(o)
		}
	}
}

func crosses(o *exchange.Order, t exchange.Ticker) bool {
	if o.Side == exchange.Buy {
		return t.Ask.IsPositive() && t.Ask.LessThanOrEqual(o.Price)
	}
	return t.Bid.IsPositive() && t.Bid.GreaterThanOrEqual(o.Price)
}

func (e *Exchange) refresh(ctx context.Context, symbol string) error {
	if e.source == nil {
		return nil
	}
	t, err := e.source.FetchTicker(ctx, symbol)
	if err != nil {
		return fmt.Errorf("paper: refresh %s: %w", symbol, err)
	}
	t.Symbol = symbol
	e.SetTicker(t)
	return nil
}

func (e *Exchange) CreateLimitOrder(ctx context.Context, symbol string, side exchange.Side, size, price decimal.Decimal) (exchange.Order, error) {
	symbol = exchange.NormalizeSymbol(symbol)
	if !price.IsPositive() {
		return exchange.Order{}, &exchange.RejectionError{Code: -1013, Message: "Filter failure: PRICE_FILTER"}
	}
	if !size.IsPositive() {
		return exchange.Order{}, &exchange.RejectionError{Code: -1013, Message: "Filter failure: LOT_SIZE"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.lockLocked(symbol, side, size, price); err != nil {
		return exchange.Order{}, err
	}

	o := &exchange.Order{
		ID:     uuid.New().String(),
		Symbol: symbol,
		Side:   side,
		Price:  price,
		Size:   size,
		Status: StatusNew,
	}
	e.orders[o.ID] = o
	e.seq = append(e.seq, o.ID)

	if t, ok := e.tickers[symbol]; ok && crosses(o, t) {
		e.fillLocked(o)
	}
	return *o, nil
}

func (e *Exchange) FetchOrder(ctx context.Context, id, symbol string) (exchange.Order, error) {
	if err := e.refresh(ctx, exchange.NormalizeSymbol(symbol)); err != nil {
		return exchange.Order{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[id]
	if !ok {
		return exchange.Order{}, fmt.Errorf("paper: order %s: %w", id, exchange.ErrOrderNotFound)
	}
	return *o, nil
}

func (e *Exchange) FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	symbol = exchange.NormalizeSymbol(symbol)
	if err := e.refresh(ctx, symbol); err != nil {
		return exchange.Ticker{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tickers[symbol]
	if !ok {
		return exchange.Ticker{}, fmt.Errorf("paper: no price for %s", symbol)
	}
	return t, nil
}

func (e *Exchange) CancelAllOrders(ctx context.Context, symbol string) error {
	symbol = exchange.NormalizeSymbol(symbol)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.seq {
		o := e.orders[id]
		if o.Symbol != symbol || o.Status != StatusNew {
			continue
		}
		o.Status = StatusCanceled
		e.unlockLocked(o)
	}
	return nil
}

// ListOrders returns the open orders of symbol in placement order.
func (e *Exchange) ListOrders(ctx context.Context, symbol string) ([]exchange.Order, error) {
	symbol = exchange.NormalizeSymbol(symbol)

	e.mu.Lock()
	defer e.mu.Unlock()
	var out []exchange.Order
	for _, id := range e.seq {
		if o := e.orders[id]; o.Symbol == symbol && o.Status == StatusNew {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (e *Exchange) FetchBalance(ctx context.Context, asset string) (exchange.Balance, error) {
	asset = strings.ToUpper(asset)

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.balances[asset]; ok {
		return *b, nil
	}
	return exchange.Balance{Asset: asset}, nil
}

// lockLocked reserves the funds for a new order: quote for a buy, base for a
// sell.
func (e *Exchange) lockLocked(symbol string, side exchange.Side, size, price decimal.Decimal) error {
	if e.balances == nil {
		return nil
	}
	asset, amount := reserve(symbol, side, size, price)
	b := e.balance(asset)
	if b.Free.LessThan(amount) {
		return &exchange.RejectionError{Code: -2010, Message: "Account has insufficient balance for requested action."}
	}
	b.Free = b.Free.Sub(amount)
	b.Locked = b.Locked.Add(amount)
	return nil
}

func (e *Exchange) unlockLocked(o *exchange.Order) {
	if e.balances == nil {
		return
	}
	asset, amount := reserve(o.Symbol, o.Side, o.Size, o.Price)
	b := e.balance(asset)
	b.Locked = b.Locked.Sub(amount)
	b.Free = b.Free.Add(amount)
}

func (e *Exchange) fillLocked(o *exchange.Order) {
	o.Status = StatusFilled
	if e.balances == nil {
		return
	}
	base, quote := SplitSymbol(o.Symbol)
	cost := o.Price.Mul(o.Size)
	if o.Side == exchange.Buy {
		q := e.balance(quote)
		q.Locked = q.Locked.Sub(cost)
		b := e.balance(base)
		b.Free = b.Free.Add(o.Size)
		return
	}
	b := e.balance(base)
	b.Locked = b.Locked.Sub(o.Size)
	q := e.balance(quote)
	q.Free = q.Free.Add(cost)
}

func (e *Exchange) balance(asset string) *exchange.Balance {
	b, ok := e.balances[asset]
	if !ok {
		b = &exchange.Balance{Asset: asset}
		e.balances[asset] = b
	}
	return b
}

func reserve(symbol string, side exchange.Side, size, price decimal.Decimal) (string, decimal.Decimal) {
	base, quote := SplitSymbol(symbol)
	if side == exchange.Buy {
		return quote, price.Mul(size)
	}
	return base, size
}

var quoteAssets = []string{"USDT", "USDC", "BUSD", "FDUSD", "TUSD", "USD", "EUR", "BTC", "ETH", "BNB"}

// SplitSymbol splits "BTCUSDT" into "BTC" and "USDT" by known quote suffixes.
func SplitSymbol(symbol string) (base, quote string) {
	symbol = exchange.NormalizeSymbol(symbol)
	for _, q := range quoteAssets {
		if len(symbol) > len(q) && strings.HasSuffix(symbol, q) {
			return strings.TrimSuffix(symbol, q), q
		}
	}
	return symbol, ""
}
