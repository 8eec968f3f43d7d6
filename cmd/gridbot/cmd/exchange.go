package cmd

import (
	"fmt"

	"github.com/rustyeddy/gridbot/config"
	"github.com/rustyeddy/gridbot/exchange"
	"github.com/rustyeddy/gridbot/exchange/binance"
	"github.com/rustyeddy/gridbot/exchange/paper"
)

type exchangeClient interface {
	exchange.Client
	exchange.Inspector
}

func newExchange(cfg *config.Config) (exchangeClient, error) {
	ec := cfg.Exchange
	switch ec.Kind {
	case "binance":
		return binance.NewClient(ec.APIKey, ec.APISecret,
			binance.WithBaseURL(ec.BaseURL),
			binance.WithRecvWindow(ec.RecvWindowMS),
			binance.WithTimeout(ec.RequestTimeout()),
		), nil

	case "paper":
		opts := []paper.Option{}
		if len(ec.Paper.Balances) > 0 {
			opts = append(opts, paper.WithBalances(ec.Paper.Balances))
		}
		if ec.Paper.LivePrices {
			// public endpoints only, no credentials needed
			opts = append(opts, paper.WithTickerSource(binance.NewClient("", "",
				binance.WithBaseURL(ec.BaseURL),
				binance.WithTimeout(ec.RequestTimeout()),
			)))
		}
		p := paper.New(opts...)
		if ec.Paper.Bid.IsPositive() {
			p.SetPrice(cfg.Grid.Symbol, ec.Paper.Bid)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown exchange kind %q", ec.Kind)
	}
}
