// Package ledger is the durable record of the grid's open orders.
//
// The ledger keeps one insertion-ordered list per side. Every mutation
// rewrites the whole ledger through its Store, so what is on disk always
// matches the last completed Record or Remove.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rustyeddy/gridbot/exchange"
)

var ErrDuplicate = errors.New("duplicate order id")

type Ledger struct {
	mu    sync.Mutex
	store Store
	sides map[exchange.Side][]exchange.Order
}

// Open loads the ledger from store. A missing ledger is created empty; a
// malformed one is an error wrapping ErrMalformed and is left untouched.
func Open(store Store) (*Ledger, error) {
	st, err := store.Load()
	switch {
	case errors.Is(err, ErrNotFound):
		st = State{}
		if err := store.Save(st); err != nil {
			return nil, fmt.Errorf("initialize ledger: %w", err)
		}
	case err != nil:
		return nil, err
	}

	for side, orders := range map[exchange.Side][]exchange.Order{exchange.Buy: st.Buy, exchange.Sell: st.Sell} {
		if id, dup := firstDuplicate(orders); dup {
			return nil, fmt.Errorf("%w: %s side lists order %s twice", ErrMalformed, side.Key(), id)
		}
	}

	return &Ledger{
		store: store,
		sides: map[exchange.Side][]exchange.Order{
			exchange.Buy:  st.Buy,
			exchange.Sell: st.Sell,
		},
	}, nil
}

// Snapshot returns a copy of one side in insertion order.
func (l *Ledger) Snapshot(side exchange.Side) []exchange.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]exchange.Order(nil), l.sides[side]...)
}

func (l *Ledger) Len(side exchange.Side) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sides[side])
}

func (l *Ledger) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sides[exchange.Buy]) == 0 && len(l.sides[exchange.Sell]) == 0
}

// Record appends o to side and persists the ledger.
func (l *Ledger) Record(o exchange.Order, side exchange.Side) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.sides[side] {
		if existing.ID == o.ID {
			return fmt.Errorf("%w: %s on %s side", ErrDuplicate, o.ID, side.Key())
		}
	}
	l.sides[side] = append(l.sides[side], o)
	if err := l.persist(); err != nil {
		// keep memory and disk in agreement
		l.sides[side] = l.sides[side][:len(l.sides[side])-1]
		return err
	}
	return nil
}

// Remove drops the given ids from side and persists the ledger.
func (l *Ledger) Remove(ids []string, side exchange.Side) error {
	return l.RemoveAll(map[exchange.Side][]string{side: ids})
}

// RemoveAll drops ids from each side and persists both sides in one write.
// It persists even when nothing was removed.
func (l *Ledger) RemoveAll(ids map[exchange.Side][]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := make(map[exchange.Side][]exchange.Order, len(l.sides))
	for side, drop := range ids {
		prev[side] = l.sides[side]
		l.sides[side] = without(l.sides[side], drop)
	}
	if err := l.persist(); err != nil {
		for side, orders := range prev {
			l.sides[side] = orders
		}
		return err
	}
	return nil
}

// State returns a copy of the whole ledger.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneState(l.state())
}

func (l *Ledger) state() State {
	return State{Buy: l.sides[exchange.Buy], Sell: l.sides[exchange.Sell]}
}

func (l *Ledger) persist() error {
	if err := l.store.Save(l.state()); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

func without(orders []exchange.Order, ids []string) []exchange.Order {
	if len(ids) == 0 {
		return orders
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]exchange.Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := drop[o.ID]; !ok {
			out = append(out, o)
		}
	}
	return out
}

func firstDuplicate(orders []exchange.Order) (string, bool) {
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.ID]; ok {
			return o.ID, true
		}
		seen[o.ID] = struct{}{}
	}
	return "", false
}
