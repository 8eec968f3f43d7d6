package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Sides lists both sides in reconciliation order.
var Sides = []Side{Buy, Sell}

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side %q (want buy|sell)", s)
	}
}

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Key is the lower-case name used for ledger fields and metric labels.
func (s Side) Key() string {
	return strings.ToLower(string(s))
}

type Ticker struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
}

type Balance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// Client is the surface the grid bot needs from an exchange.
type Client interface {
	CreateLimitOrder(ctx context.Context, symbol string, side Side, size, price decimal.Decimal) (Order, error)
	FetchOrder(ctx context.Context, id, symbol string) (Order, error)
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
	CancelAllOrders(ctx context.Context, symbol string) error
}

// Inspector backs the operator commands (orders list, balance).
type Inspector interface {
	ListOrders(ctx context.Context, symbol string) ([]Order, error)
	FetchBalance(ctx context.Context, asset string) (Balance, error)
}

var ErrOrderNotFound = errors.New("order not found")

// RejectionError is returned when the exchange refuses to accept an order
// (bad price or size, insufficient balance, ...). It is never retried.
type RejectionError struct {
	Code    int
	Message string
}

func (e *RejectionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("order rejected (%d): %s", e.Code, e.Message)
	}
	return "order rejected: " + e.Message
}

func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// NormalizeSymbol turns "BTC/USDT" or "btc-usdt" into "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "/", "")
	return strings.ReplaceAll(s, "-", "")
}
