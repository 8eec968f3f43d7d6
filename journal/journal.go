// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/gridbot/exchange"
	"github.com/shopspring/decimal"
)

// FillRecord is one observed fill and the mirror order placed for it.
type FillRecord struct {
	RunID       string
	OrderID     string
	Symbol      string
	Side        exchange.Side
	Price       decimal.Decimal
	Size        decimal.Decimal
	MirrorID    string
	MirrorPrice decimal.Decimal
	Time        time.Time
}

// MirrorSide is the side the replacement order was placed on.
func (r FillRecord) MirrorSide() exchange.Side {
	return r.Side.Opposite()
}

type Journal interface {
	RecordFill(FillRecord) error
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error { return nil }
func (Nop) Close() error                { return nil }
