// Package grid computes the initial price ladders for a grid.
package grid

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Ladder holds the rung prices for both sides, nearest to the market first.
type Ladder struct {
	Buy  []decimal.Decimal
	Sell []decimal.Decimal
}

// Plan places buyDepth rungs below bid and sellDepth rungs above it, each
// one spacing apart. Prices are not checked against exchange filters.
func Plan(bid, spacing decimal.Decimal, buyDepth, sellDepth int) (Ladder, error) {
	if !bid.IsPositive() {
		return Ladder{}, errors.New("bid must be positive")
	}
	if !spacing.IsPositive() {
		return Ladder{}, errors.New("spacing must be positive")
	}
	if buyDepth < 0 || sellDepth < 0 {
		return Ladder{}, errors.New("ladder depth must not be negative")
	}

	l := Ladder{
		Buy:  make([]decimal.Decimal, 0, buyDepth),
		Sell: make([]decimal.Decimal, 0, sellDepth),
	}
	for i := 0; i < buyDepth; i++ {
		l.Buy = append(l.Buy, bid.Sub(Step(spacing, i+1)))
	}
	for i := 0; i < sellDepth; i++ {
		l.Sell = append(l.Sell, bid.Add(Step(spacing, i+1)))
	}
	return l, nil
}

// Step returns n spacings.
func Step(spacing decimal.Decimal, n int) decimal.Decimal {
	return spacing.Mul(decimal.NewFromInt(int64(n)))
}

// Mirror is the price of the order that replaces a fill on the other side:
// one spacing above a filled buy, one spacing below a filled sell.
func Mirror(filled, spacing decimal.Decimal, buyFilled bool) decimal.Decimal {
	if buyFilled {
		return filled.Add(spacing)
	}
	return filled.Sub(spacing)
}
