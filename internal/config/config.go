package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Strategy struct {
		CommodityTicker string            `yaml:"commodity_ticker" envconfig:"SOYMON_COMMODITY_TICKER" validate:"required"`
		EquityTickers   []string          `yaml:"equity_tickers" envconfig:"SOYMON_EQUITY_TICKERS" validate:"min=1,dive,required"`
		TickerNames     map[string]string `yaml:"ticker_names" envconfig:"SOYMON_TICKER_NAMES"`
		LookbackDays    int               `yaml:"lookback_days" envconfig:"SOYMON_LOOKBACK_DAYS" validate:"gt=0"`
		WindowDays      int               `yaml:"window_days" envconfig:"SOYMON_WINDOW_DAYS" validate:"gt=0"`
	} `yaml:"strategy"`
	DataSource struct {
		BaseURL string `yaml:"base_url" envconfig:"SOYMON_DATA_BASE_URL"`
		APIKey  string `yaml:"api_key" envconfig:"SOYMON_DATA_API_KEY"`
	} `yaml:"data_source"`
	Revenue struct {
		BaseURL string `yaml:"base_url" envconfig:"SOYMON_REVENUE_BASE_URL" validate:"omitempty,url"`
		Token   string `yaml:"token" envconfig:"SOYMON_REVENUE_TOKEN"`
	} `yaml:"revenue"`
	Discord struct {
		WebhookURL string `yaml:"webhook_url" envconfig:"SOYMON_DISCORD_WEBHOOK"`
	} `yaml:"discord"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron" envconfig:"SOYMON_DAILY_CRON"`
	} `yaml:"schedule"`
	Cache struct {
		SQLitePath   string `yaml:"sqlite_path" envconfig:"SOYMON_SQLITE_PATH"`
		MaxStaleDays int    `yaml:"max_stale_days" envconfig:"SOYMON_MAX_STALE_DAYS" validate:"gte=0"`
	} `yaml:"cache"`
	Server struct {
		Addr string `yaml:"addr" envconfig:"SOYMON_SERVER_ADDR"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" envconfig:"SOYMON_LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" envconfig:"SOYMON_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides (prefix SOYMON), then fills defaults. A missing file is fine:
// everything can come from the environment.
func Load(path string) (*Config, error) {
	// .env for local development; absent in CI and production.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	// GitHub Actions injects the webhook secret under its own name.
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Strategy.CommodityTicker == "" {
		c.Strategy.CommodityTicker = "ZS=F"
	}
	if len(c.Strategy.EquityTickers) == 0 {
		c.Strategy.EquityTickers = []string{"1210.TW", "1215.TW", "1216.TW", "1219.TW", "1232.TW"}
	}
	if len(c.Strategy.TickerNames) == 0 {
		c.Strategy.TickerNames = map[string]string{
			"ZS=F":    "黃豆期貨",
			"1210.TW": "大成",
			"1215.TW": "卜蜂",
			"1216.TW": "統一",
			"1219.TW": "福壽",
			"1232.TW": "大統益",
		}
	}
	if c.Strategy.LookbackDays == 0 {
		c.Strategy.LookbackDays = 180
	}
	if c.Strategy.WindowDays == 0 {
		c.Strategy.WindowDays = 20
	}
	if c.Revenue.BaseURL == "" {
		c.Revenue.BaseURL = "https://api.finmindtrade.com/api/v4/data"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 8 * * 1-5"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/soymon.db"
	}
	if c.Cache.MaxStaleDays == 0 {
		c.Cache.MaxStaleDays = 3
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8686"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	for _, eq := range c.Strategy.EquityTickers {
		if eq == c.Strategy.CommodityTicker {
			return fmt.Errorf("config validation: commodity ticker %s repeated in equity list", eq)
		}
	}
	if c.Strategy.LookbackDays < c.Strategy.WindowDays {
		return fmt.Errorf("config validation: lookback_days %d shorter than window_days %d",
			c.Strategy.LookbackDays, c.Strategy.WindowDays)
	}
	return nil
}

// DisplayName returns the configured human name for a ticker, falling back to
// the ticker itself.
func (c *Config) DisplayName(ticker string) string {
	if n, ok := c.Strategy.TickerNames[ticker]; ok {
		return n
	}
	return ticker
}
