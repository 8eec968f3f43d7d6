package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/gridbot/exchange"
	"github.com/rustyeddy/gridbot/journal"
	"github.com/shopspring/decimal"
)

type placed struct {
	side  exchange.Side
	price decimal.Decimal
}

// fakeClient answers FetchOrder from a status table and hands out
// sequential ids for new orders.
type fakeClient struct {
	status   map[string]string
	price    map[string]decimal.Decimal
	failures map[string]int // remaining errors before FetchOrder succeeds
	failErr  error
	reject   map[string]bool // mirror price -> reject
	fetches  []string
	created  []placed
	next     int
}

func newFake() *fakeClient {
	return &fakeClient{
		status:   map[string]string{},
		price:    map[string]decimal.Decimal{},
		failures: map[string]int{},
		failErr:  errors.New("connection reset by peer"),
		reject:   map[string]bool{},
	}
}

func (f *fakeClient) CreateLimitOrder(_ context.Context, symbol string, side exchange.Side, size, price decimal.Decimal) (exchange.Order, error) {
	if f.reject[price.String()] {
		return exchange.Order{}, &exchange.RejectionError{Code: -2010, Message: "Account has insufficient balance"}
	}
	f.next++
	id := fmt.Sprintf("m%d", f.next)
	f.created = append(f.created, placed{side, price})
	f.status[id] = "NEW"
	return exchange.Order{ID: id, Symbol: symbol, Side: side, Price: price, Size: size, Status: "NEW"}, nil
}

func (f *fakeClient) FetchOrder(_ context.Context, id, symbol string) (exchange.Order, error) {
	f.fetches = append(f.fetches, id)
	if f.failures[id] > 0 {
		f.failures[id]--
		return exchange.Order{}, f.failErr
	}
	st, ok := f.status[id]
	if !ok {
		return exchange.Order{}, exchange.ErrOrderNotFound
	}
	return exchange.Order{ID: id, Symbol: symbol, Price: f.price[id], Status: st}, nil
}

func (f *fakeClient) FetchTicker(context.Context, string) (exchange.Ticker, error) {
	return exchange.Ticker{}, errors.New("not used")
}

func (f *fakeClient) CancelAllOrders(context.Context, string) error { return nil }

type memJournal struct {
	fills []journal.FillRecord
}

func (m *memJournal) RecordFill(r journal.FillRecord) error {
	m.fills = append(m.fills, r)
	return nil
}

func (m *memJournal) Close() error { return nil }

// sleepRecorder records requested sleeps without waiting.
type sleepRecorder struct {
	calls []time.Duration
	hook  func(n int)
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	if s.hook != nil {
		s.hook(len(s.calls))
	}
	return ctx.Err()
}
