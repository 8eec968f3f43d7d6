package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment keys for exchange credentials. Credentials never live in the
// config file.
const (
	EnvAPIKey    = "GRIDBOT_API_KEY"
	EnvAPISecret = "GRIDBOT_API_SECRET"
)

// Config represents the complete bot configuration
type Config struct {
	Grid     GridConfig     `json:"grid" yaml:"grid"`
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

// GridConfig contains the grid shape and the reconciliation policy
type GridConfig struct {
	Symbol       string          `json:"symbol" yaml:"symbol"`
	Spacing      decimal.Decimal `json:"spacing" yaml:"spacing"`
	PositionSize decimal.Decimal `json:"position_size" yaml:"position_size"`
	BuyLines     int             `json:"buy_lines" yaml:"buy_lines"`
	SellLines    int             `json:"sell_lines" yaml:"sell_lines"`

	// ClosedStatus is the exact status string that marks a fill.
	ClosedStatus string `json:"closed_status" yaml:"closed_status"`
	// StaleStatuses are terminal statuses that drop an order without a mirror.
	StaleStatuses []string `json:"stale_statuses,omitempty" yaml:"stale_statuses,omitempty"`

	CheckInterval string      `json:"check_interval" yaml:"check_interval"` // sleep after every order check, e.g. "1s"
	PassInterval  string      `json:"pass_interval,omitempty" yaml:"pass_interval,omitempty"`
	Retry         RetryConfig `json:"retry" yaml:"retry"`
}

// RetryConfig bounds retries of a single order status query
type RetryConfig struct {
	MaxAttempts    int     `json:"max_attempts" yaml:"max_attempts"`
	InitialBackoff string  `json:"initial_backoff,omitempty" yaml:"initial_backoff,omitempty"`
	MaxBackoff     string  `json:"max_backoff,omitempty" yaml:"max_backoff,omitempty"`
	Multiplier     float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// ExchangeConfig selects and configures the exchange client
type ExchangeConfig struct {
	Kind         string      `json:"kind" yaml:"kind"` // "binance" or "paper"
	BaseURL      string      `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	RecvWindowMS int64       `json:"recv_window_ms,omitempty" yaml:"recv_window_ms,omitempty"`
	Timeout      string      `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Paper        PaperConfig `json:"paper,omitempty" yaml:"paper,omitempty"`

	APIKey    string `json:"-" yaml:"-"`
	APISecret string `json:"-" yaml:"-"`
}

// PaperConfig seeds the in-memory exchange
type PaperConfig struct {
	Bid decimal.Decimal `json:"bid" yaml:"bid"`
	// LivePrices follows the public ticker of BaseURL instead of a fixed bid.
	LivePrices bool                       `json:"live_prices,omitempty" yaml:"live_prices,omitempty"`
	Balances   map[string]decimal.Decimal `json:"balances,omitempty" yaml:"balances,omitempty"`
}

type LedgerConfig struct {
	Path string `json:"path" yaml:"path"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

type LogConfig struct {
	Path  string `json:"path" yaml:"path"`
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // e.g. ":9102"; empty disables
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = &Config{}
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadEnv reads an optional .env file, then copies the credentials from the
// process environment into the exchange config. Variables already set in
// the environment win over the file.
func (c *Config) LoadEnv(envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	c.Exchange.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	c.Exchange.APISecret = strings.TrimSpace(os.Getenv(EnvAPISecret))
	return nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	g := c.Grid
	if strings.TrimSpace(g.Symbol) == "" {
		return fmt.Errorf("grid.symbol is required")
	}
	if !g.Spacing.IsPositive() {
		return fmt.Errorf("grid.spacing must be positive")
	}
	if !g.PositionSize.IsPositive() {
		return fmt.Errorf("grid.position_size must be positive")
	}
	if g.BuyLines < 0 || g.SellLines < 0 {
		return fmt.Errorf("grid.buy_lines and grid.sell_lines must not be negative")
	}
	if g.BuyLines+g.SellLines == 0 {
		return fmt.Errorf("grid needs at least one buy or sell line")
	}
	if g.ClosedStatus == "" {
		return fmt.Errorf("grid.closed_status is required")
	}
	for _, s := range g.StaleStatuses {
		if s == g.ClosedStatus {
			return fmt.Errorf("grid.stale_statuses must not contain the closed status %q", s)
		}
	}
	for name, v := range map[string]string{
		"grid.check_interval":        g.CheckInterval,
		"grid.pass_interval":         g.PassInterval,
		"grid.retry.initial_backoff": g.Retry.InitialBackoff,
		"grid.retry.max_backoff":     g.Retry.MaxBackoff,
		"exchange.timeout":           c.Exchange.Timeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if g.Retry.MaxAttempts < 0 {
		return fmt.Errorf("grid.retry.max_attempts must not be negative")
	}
	if g.Retry.Multiplier < 0 {
		return fmt.Errorf("grid.retry.multiplier must not be negative")
	}

	switch c.Exchange.Kind {
	case "binance":
	case "paper":
		if !c.Exchange.Paper.LivePrices && !c.Exchange.Paper.Bid.IsPositive() {
			return fmt.Errorf("exchange.paper.bid must be positive unless live_prices is set")
		}
	default:
		return fmt.Errorf("exchange.kind must be 'binance' or 'paper'")
	}

	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s journal", c.Journal.Type)
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Credentials reports an error when a live exchange has no API keys.
func (c *Config) Credentials() error {
	if c.Exchange.Kind != "binance" {
		return nil
	}
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		return fmt.Errorf("%s and %s must be set for the binance exchange", EnvAPIKey, EnvAPISecret)
	}
	return nil
}

func (g GridConfig) CheckEvery() time.Duration {
	d, _ := parseDuration(g.CheckInterval)
	return d
}

func (g GridConfig) PassEvery() time.Duration {
	d, _ := parseDuration(g.PassInterval)
	return d
}

func (r RetryConfig) Backoff() (initial, max time.Duration) {
	initial, _ = parseDuration(r.InitialBackoff)
	max, _ = parseDuration(r.MaxBackoff)
	return initial, max
}

func (e ExchangeConfig) RequestTimeout() time.Duration {
	d, _ := parseDuration(e.Timeout)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// parseDuration accepts an empty string as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

// Default returns a paper-trading configuration with sensible defaults
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Symbol:        "BTCUSDT",
			Spacing:       decimal.NewFromInt(100),
			PositionSize:  decimal.RequireFromString("0.001"),
			BuyLines:      5,
			SellLines:     5,
			ClosedStatus:  "FILLED",
			CheckInterval: "1s",
			Retry: RetryConfig{
				MaxAttempts:    1,
				InitialBackoff: "500ms",
				MaxBackoff:     "5s",
				Multiplier:     2,
			},
		},
		Exchange: ExchangeConfig{
			Kind:    "paper",
			BaseURL: "https://testnet.binance.vision",
			Timeout: "10s",
			Paper: PaperConfig{
				Bid: decimal.NewFromInt(30000),
				Balances: map[string]decimal.Decimal{
					"USDT": decimal.NewFromInt(10000),
					"BTC":  decimal.RequireFromString("0.01"),
				},
			},
		},
		Ledger: LedgerConfig{
			Path: "./orders.json",
		},
		Journal: JournalConfig{
			Type: "sqlite",
			Path: "./fills.sqlite",
		},
		Log: LogConfig{
			Path:  "./gridbot.log",
			Level: "info",
		},
	}
}
