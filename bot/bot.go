// Package bot wires the grid planner, the order ledger and the
// reconciliation loop into one trading run.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/gridbot/config"
	"github.com/rustyeddy/gridbot/exchange"
	"github.com/rustyeddy/gridbot/grid"
	"github.com/rustyeddy/gridbot/journal"
	"github.com/rustyeddy/gridbot/ledger"
	"github.com/rustyeddy/gridbot/metrics"
	"github.com/rustyeddy/gridbot/reconcile"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrExhausted is returned by Run once no sell orders remain.
var ErrExhausted = errors.New("nothing left to sell")

type Config struct {
	Symbol        string
	Spacing       decimal.Decimal
	Size          decimal.Decimal
	BuyLines      int
	SellLines     int
	ClosedStatus  string
	StaleStatuses []string
	Retry         reconcile.RetryPolicy
	Throttle      reconcile.Throttle
}

// FromConfig extracts the bot settings from a loaded configuration.
func FromConfig(c *config.Config) Config {
	g := c.Grid
	initial, max := g.Retry.Backoff()
	return Config{
		Symbol:        exchange.NormalizeSymbol(g.Symbol),
		Spacing:       g.Spacing,
		Size:          g.PositionSize,
		BuyLines:      g.BuyLines,
		SellLines:     g.SellLines,
		ClosedStatus:  g.ClosedStatus,
		StaleStatuses: g.StaleStatuses,
		Retry: reconcile.RetryPolicy{
			MaxAttempts:    g.Retry.MaxAttempts,
			InitialBackoff: initial,
			MaxBackoff:     max,
			Multiplier:     g.Retry.Multiplier,
		},
		Throttle: reconcile.Throttle{
			CheckInterval: g.CheckEvery(),
			PassInterval:  g.PassEvery(),
		},
	}
}

type Bot struct {
	cfg      Config
	client   exchange.Client
	ledger   *ledger.Ledger
	logger   *zap.Logger
	journal  journal.Journal
	metrics  *metrics.Metrics
	runID    string
	loopOpts []reconcile.Option
}

type Option func(*Bot)

func WithLogger(l *zap.Logger) Option { return func(b *Bot) { b.logger = l } }

func WithJournal(j journal.Journal) Option { return func(b *Bot) { b.journal = j } }

func WithMetrics(m *metrics.Metrics) Option { return func(b *Bot) { b.metrics = m } }

func WithRunID(id string) Option { return func(b *Bot) { b.runID = id } }

// WithLoopOptions passes extra options to the reconciliation loop.
func WithLoopOptions(opts ...reconcile.Option) Option {
	return func(b *Bot) { b.loopOpts = append(b.loopOpts, opts...) }
}

func New(cfg Config, client exchange.Client, l *ledger.Ledger, opts ...Option) *Bot {
	b := &Bot{
		cfg:     cfg,
		client:  client,
		ledger:  l,
		logger:  zap.NewNop(),
		journal: journal.Nop{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start places the initial grid around the current bid when the ledger is
// empty. A ledger with open orders on either side is resumed as is.
func (b *Bot) Start(ctx context.Context) error {
	if !b.ledger.Empty() {
		b.logger.Info("resuming grid from ledger",
			zap.String("symbol", b.cfg.Symbol),
			zap.Int("open_buy", b.ledger.Len(exchange.Buy)),
			zap.Int("open_sell", b.ledger.Len(exchange.Sell)),
		)
		b.reportLedger()
		return nil
	}

	t, err := b.client.FetchTicker(ctx, b.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("fetch ticker: %w", err)
	}
	b.logger.Info("starting grid trading bot",
		zap.String("symbol", b.cfg.Symbol),
		zap.Stringer("bid", t.Bid),
		zap.Stringer("spacing", b.cfg.Spacing),
		zap.Int("buy_lines", b.cfg.BuyLines),
		zap.Int("sell_lines", b.cfg.SellLines),
	)

	ladder, err := grid.Plan(t.Bid, b.cfg.Spacing, b.cfg.BuyLines, b.cfg.SellLines)
	if err != nil {
		return fmt.Errorf("plan grid: %w", err)
	}

	for _, side := range exchange.Sides {
		prices := ladder.Buy
		if side == exchange.Sell {
			prices = ladder.Sell
		}
		for _, p := range prices {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.place(ctx, side, p); err != nil {
				return err
			}
		}
	}
	b.reportLedger()
	return nil
}

func (b *Bot) place(ctx context.Context, side exchange.Side, price decimal.Decimal) error {
	b.logger.Info(fmt.Sprintf("submitting limit %s order", side.Key()),
		zap.Stringer("price", price),
		zap.Stringer("size", b.cfg.Size),
	)
	// a placed order must reach the ledger; cancellation is checked between placements
	o, err := b.client.CreateLimitOrder(context.WithoutCancel(ctx), b.cfg.Symbol, side, b.cfg.Size, price)
	if err != nil {
		return fmt.Errorf("place %s at %s: %w", side.Key(), price, err)
	}
	if o.Side == "" {
		o.Side = side
	}
	if err := b.ledger.Record(o, side); err != nil {
		return fmt.Errorf("record %s order %s: %w", side.Key(), o.ID, err)
	}
	b.metrics.OrderPlaced(side.Key(), "initial")
	return nil
}

func (b *Bot) reportLedger() {
	for _, side := range exchange.Sides {
		b.metrics.LedgerSize(side.Key(), b.ledger.Len(side))
	}
}

// Run starts the grid and reconciles it until the sell side is exhausted,
// returning ErrExhausted. Any other return is a failure or a cancellation.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}

	opts := append([]reconcile.Option{
		reconcile.WithLogger(b.logger),
		reconcile.WithJournal(b.journal),
		reconcile.WithMetrics(b.metrics),
		reconcile.WithRunID(b.runID),
	}, b.loopOpts...)

	loop := reconcile.New(b.client, b.ledger, reconcile.Settings{
		Symbol:        b.cfg.Symbol,
		Spacing:       b.cfg.Spacing,
		Size:          b.cfg.Size,
		ClosedStatus:  b.cfg.ClosedStatus,
		StaleStatuses: b.cfg.StaleStatuses,
		Retry:         b.cfg.Retry,
		Throttle:      b.cfg.Throttle,
	}, opts...)

	if err := loop.Run(ctx); err != nil {
		return err
	}
	return ErrExhausted
}
