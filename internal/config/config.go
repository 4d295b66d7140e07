// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Market describes the price source and the freshness contract on quotes.
type Market struct {
	Provider     string `yaml:"provider"` // yahoo | stream | stub
	BaseURL      string `yaml:"base_url"`
	StreamURL    string `yaml:"stream_url"`
	Interval     string `yaml:"interval"`
	LookbackBars int    `yaml:"lookback_bars"`
	QuoteTTLSecs int    `yaml:"quote_ttl_secs"`
}

// Broker selects the order port and carries its credentials. Credentials are
// normally overlaid from the environment rather than committed to YAML.
type Broker struct {
	Name         string  `yaml:"name"` // paper | fyers | angel
	Live         bool    `yaml:"live"`
	BaseURL      string  `yaml:"base_url"`
	AppID        string  `yaml:"app_id"`
	AccessToken  string  `yaml:"access_token"`
	APIKey       string  `yaml:"api_key"`
	JWT          string  `yaml:"jwt"`
	StartingCash float64 `yaml:"starting_cash"`
}

// StrategyParams groups tunable knobs for a strategy implementation.
type StrategyParams struct {
	FastSpan     int     `yaml:"fast_span"`
	SlowSpan     int     `yaml:"slow_span"`
	VolumeWindow int     `yaml:"volume_window"`
	VolumeSurge  float64 `yaml:"volume_surge"`
	MACDFast     int     `yaml:"macd_fast"`
	MACDSlow     int     `yaml:"macd_slow"`
	MinBars      int     `yaml:"min_bars"`
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode"`
	Params StrategyParams `yaml:"params"`
}

// Trading captures the symbol universe, the per-trade allocation, and targets.
type Trading struct {
	Symbols             []string `yaml:"symbols"`
	SymbolsFile         string   `yaml:"symbols_file"`
	SymbolSuffix        string   `yaml:"symbol_suffix"`
	MaxSymbols          int      `yaml:"max_symbols"`
	CapitalPerTrade     float64  `yaml:"capital_per_trade"`
	TakeProfitPct       float64  `yaml:"take_profit_pct"`
	StopLossPct         float64  `yaml:"stop_loss_pct"`
	MaxNotionalPerTrade float64  `yaml:"max_notional_per_trade"`
	LedgerPath          string   `yaml:"ledger_path"`
	Strategy            Strategy `yaml:"strategy"`
}

// Schedule holds the cron triggers driving the daily run and summary.
type Schedule struct {
	Timezone    string `yaml:"timezone"`
	TradeCron   string `yaml:"trade_cron"`
	SummaryCron string `yaml:"summary_cron"`
}

// Alerts configures notification delivery channels; empty settings disable a channel.
type Alerts struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID string `yaml:"telegram_chat_id"`
	EmailHost      string `yaml:"email_host"`
	EmailPort      int    `yaml:"email_port"`
	EmailAddress   string `yaml:"email_address"`
	EmailPassword  string `yaml:"email_password"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Market   Market   `yaml:"market"`
	Broker   Broker   `yaml:"broker"`
	Trading  Trading  `yaml:"trading"`
	Schedule Schedule `yaml:"schedule"`
	Alerts   Alerts   `yaml:"alerts"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate enforces the required fields before a run may start.
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 && c.Trading.SymbolsFile == "" {
		return fmt.Errorf("trading: symbols or symbols_file is required")
	}
	if c.Trading.CapitalPerTrade <= 0 {
		return fmt.Errorf("trading: capital_per_trade must be > 0")
	}
	if c.Trading.TakeProfitPct <= 0 {
		return fmt.Errorf("trading: take_profit_pct must be > 0")
	}
	if c.Trading.StopLossPct <= 0 {
		return fmt.Errorf("trading: stop_loss_pct must be > 0")
	}
	if c.Trading.LedgerPath == "" {
		return fmt.Errorf("trading: ledger_path is required")
	}
	if c.Broker.Live {
		switch c.Broker.Name {
		case "fyers":
			if c.Broker.AppID == "" || c.Broker.AccessToken == "" {
				return fmt.Errorf("broker: fyers live mode requires app_id and access_token")
			}
		case "angel":
			if c.Broker.APIKey == "" || c.Broker.JWT == "" {
				return fmt.Errorf("broker: angel live mode requires api_key and jwt")
			}
		case "", "paper":
			// Paper fills need no credentials even when dispatch is on.
		default:
			return fmt.Errorf("broker: unknown broker %q", c.Broker.Name)
		}
	}
	return nil
}
