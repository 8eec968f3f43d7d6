package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/gridbot/bot"
	"github.com/rustyeddy/gridbot/exchange"
	"github.com/rustyeddy/gridbot/internal/logging"
	"github.com/rustyeddy/gridbot/journal"
	"github.com/rustyeddy/gridbot/ledger"
	"github.com/rustyeddy/gridbot/metrics"
	"github.com/rustyeddy/gridbot/pkg/id"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the grid bot",
	Long: `Start the grid bot with settings from a configuration file.

With an empty ledger the bot fetches the current bid once and places the full
grid. With open orders in the ledger it resumes reconciling them. The bot
stops by itself once no sell orders are left, or on SIGINT/SIGTERM.

Example:
  gridbot run -c gridbot.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := ledger.Open(ledger.NewFileStore(cfg.Ledger.Path))
	if err != nil {
		logger.Error("open ledger", zap.String("path", cfg.Ledger.Path), zap.Error(err))
		return err
	}

	j, err := journal.Open(cfg.Journal.Type, cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	client, err := newExchange(cfg)
	if err != nil {
		return err
	}
	if cfg.Exchange.Kind == "paper" && !l.Empty() {
		logger.Warn("paper exchange starts empty; orders in the ledger will not be found",
			zap.String("ledger", cfg.Ledger.Path))
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, logger); err != nil {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	runID := id.New()
	log := logger.With(zap.String("run_id", runID))
	b := bot.New(bot.FromConfig(cfg), client, l,
		bot.WithLogger(log),
		bot.WithJournal(j),
		bot.WithMetrics(m),
		bot.WithRunID(runID),
	)

	err = b.Run(ctx)
	switch {
	case errors.Is(err, bot.ErrExhausted):
		log.Info("stopping bot, nothing left to sell")
		return nil
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		log.Info("shutting down", zap.Int("open_buy", l.Len(exchange.Buy)), zap.Int("open_sell", l.Len(exchange.Sell)))
		return nil
	default:
		log.Error("bot stopped", zap.Error(err))
		return err
	}
}
