// Package reconcile polls the grid's open orders and replaces fills.
//
// Each pass walks the buy side, then the sell side. An order whose status is
// exactly the configured closed status is a fill: a mirror order is placed
// one spacing away on the other side, and the filled order is dropped from
// the ledger at the end of the pass. Any other status leaves the order in
// place, unless it is one of the configured stale statuses.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/gridbot/exchange"
	"github.com/rustyeddy/gridbot/grid"
	"github.com/rustyeddy/gridbot/journal"
	"github.com/rustyeddy/gridbot/ledger"
	"github.com/rustyeddy/gridbot/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Settings are fixed for the life of a Loop.
type Settings struct {
	Symbol        string
	Spacing       decimal.Decimal
	Size          decimal.Decimal
	ClosedStatus  string
	StaleStatuses []string
	Retry         RetryPolicy
	Throttle      Throttle
}

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	Checked int
	Filled  int
	Failed  int
	Stale   int
	Mirrors []exchange.Order
}

type Loop struct {
	client  exchange.Client
	ledger  *ledger.Ledger
	set     Settings
	stale   map[string]struct{}
	logger  *zap.Logger
	journal journal.Journal
	metrics *metrics.Metrics
	runID   string
	sleep   sleepFunc
	now     func() time.Time
}

type Option func(*Loop)

func WithLogger(l *zap.Logger) Option { return func(lp *Loop) { lp.logger = l } }

func WithJournal(j journal.Journal) Option { return func(lp *Loop) { lp.journal = j } }

func WithMetrics(m *metrics.Metrics) Option { return func(lp *Loop) { lp.metrics = m } }

// WithRunID tags journal records with the bot run that produced them.
func WithRunID(id string) Option { return func(lp *Loop) { lp.runID = id } }

// WithSleep replaces the context-aware sleep used for throttling and backoff.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(lp *Loop) { lp.sleep = fn }
}

func New(client exchange.Client, l *ledger.Ledger, set Settings, opts ...Option) *Loop {
	lp := &Loop{
		client:  client,
		ledger:  l,
		set:     set,
		stale:   make(map[string]struct{}, len(set.StaleStatuses)),
		logger:  zap.NewNop(),
		journal: journal.Nop{},
		sleep:   sleepCtx,
		now:     time.Now,
	}
	for _, s := range set.StaleStatuses {
		lp.stale[s] = struct{}{}
	}
	for _, opt := range opts {
		opt(lp)
	}
	return lp
}

// Run repeats passes until the sell side of the ledger is empty, in which
// case it returns nil. It returns early on context cancellation or when a
// mirror order cannot be placed.
func (lp *Loop) Run(ctx context.Context) error {
	for {
		if _, err := lp.Pass(ctx); err != nil {
			return err
		}
		if lp.ledger.Len(exchange.Sell) == 0 {
			return nil
		}
		if err := lp.sleep(ctx, lp.set.Throttle.PassInterval); err != nil {
			return err
		}
	}
}

// Pass polls every open order once. Fills collected before an error are
// still removed from the ledger before the error is returned.
func (lp *Loop) Pass(ctx context.Context) (PassResult, error) {
	start := lp.now()
	var res PassResult
	done := make(map[exchange.Side][]string, 2)

	var passErr error
	for _, side := range exchange.Sides {
		if passErr = lp.reconcileSide(ctx, side, done, &res); passErr != nil {
			break
		}
	}

	if err := lp.ledger.RemoveAll(done); err != nil {
		return res, errors.Join(passErr, err)
	}
	for _, side := range exchange.Sides {
		lp.metrics.LedgerSize(side.Key(), lp.ledger.Len(side))
	}
	if passErr != nil {
		return res, passErr
	}

	lp.metrics.PassDone(lp.now().Sub(start))
	lp.logger.Info("reconciliation pass complete",
		zap.Int("checked", res.Checked),
		zap.Int("filled", res.Filled),
		zap.Int("failed", res.Failed),
		zap.Int("stale", res.Stale),
		zap.Int("open_buy", lp.ledger.Len(exchange.Buy)),
		zap.Int("open_sell", lp.ledger.Len(exchange.Sell)),
	)
	return res, nil
}

// reconcileSide checks the orders on one side as they stood when the side
// was reached. Mirrors placed earlier in the same pass are included.
func (lp *Loop) reconcileSide(ctx context.Context, side exchange.Side, done map[exchange.Side][]string, res *PassResult) error {
	for _, o := range lp.ledger.Snapshot(side) {
		if err := ctx.Err(); err != nil {
			return err
		}

		closed, err := lp.check(ctx, side, o, res)
		if err != nil {
			return err
		}
		if closed {
			done[side] = append(done[side], o.ID)
		}

		if err := lp.sleep(ctx, lp.set.Throttle.CheckInterval); err != nil {
			return err
		}
	}
	return nil
}

// check polls one order. It reports whether the order should leave the
// ledger; the error is non-nil only when the pass must stop.
func (lp *Loop) check(ctx context.Context, side exchange.Side, o exchange.Order, res *PassResult) (bool, error) {
	log := lp.logger.With(zap.String("side", side.Key()), zap.String("order_id", o.ID))
	log.Info("checking order")
	res.Checked++

	var latest exchange.Order
	err := lp.set.Retry.do(ctx, lp.sleep, retryable, func() error {
		var err error
		latest, err = lp.client.FetchOrder(ctx, o.ID, lp.set.Symbol)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Error("order status request failed, will retry next pass", zap.Error(err))
		res.Failed++
		lp.metrics.PollFailure(side.Key())
		return false, nil
	}

	switch {
	case latest.Status == lp.set.ClosedStatus:
		mirror, err := lp.replace(ctx, side, o, latest)
		if err != nil {
			return false, err
		}
		res.Filled++
		res.Mirrors = append(res.Mirrors, mirror)
		return true, nil

	case lp.isStale(latest.Status):
		log.Warn("order ended without a fill, dropping it", zap.String("status", latest.Status))
		res.Stale++
		lp.metrics.Stale(side.Key())
		return true, nil

	default:
		log.Debug("order still open", zap.String("status", latest.Status))
		return false, nil
	}
}

// replace places the mirror of a filled order and records it in the ledger.
func (lp *Loop) replace(ctx context.Context, side exchange.Side, o, latest exchange.Order) (exchange.Order, error) {
	filled := latest.Price
	if filled.IsZero() {
		filled = o.Price
	}
	mirrorSide := side.Opposite()
	price := grid.Mirror(filled, lp.set.Spacing, side == exchange.Buy)

	log := lp.logger.With(zap.String("order_id", o.ID))
	log.Info("order executed",
		zap.String("side", side.Key()),
		zap.Stringer("price", filled),
	)
	lp.metrics.Fill(side.Key())
	log.Info("creating mirror limit order",
		zap.String("side", mirrorSide.Key()),
		zap.Stringer("price", price),
	)

	// Once the mirror is sent it must reach the ledger, so cancellation is
	// only honoured between checks.
	mirror, err := lp.client.CreateLimitOrder(context.WithoutCancel(ctx), lp.set.Symbol, mirrorSide, lp.set.Size, price)
	if err != nil {
		return exchange.Order{}, fmt.Errorf("place %s mirror at %s for order %s: %w", mirrorSide.Key(), price, o.ID, err)
	}
	lp.metrics.OrderPlaced(mirrorSide.Key(), "mirror")
	if mirror.Side == "" {
		mirror.Side = mirrorSide
	}
	if err := lp.ledger.Record(mirror, mirrorSide); err != nil {
		return exchange.Order{}, fmt.Errorf("record mirror %s: %w", mirror.ID, err)
	}

	rec := journal.FillRecord{
		RunID:       lp.runID,
		OrderID:     o.ID,
		Symbol:      lp.set.Symbol,
		Side:        side,
		Price:       filled,
		Size:        o.Size,
		MirrorID:    mirror.ID,
		MirrorPrice: price,
		Time:        lp.now(),
	}
	if rec.Size.IsZero() {
		rec.Size = lp.set.Size
	}
	if err := lp.journal.RecordFill(rec); err != nil {
		log.Error("journal fill", zap.Error(err))
	}
	return mirror, nil
}

func (lp *Loop) isStale(status string) bool {
	_, ok := lp.stale[status]
	return ok
}

// retryable reports whether a status query error is worth another attempt
// within the same pass.
func retryable(err error) bool {
	return !errors.Is(err, exchange.ErrOrderNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
