package config

import "strings"

// Config is the fxbot process configuration.
type Config struct {
	App          AppConfig          `yaml:"app"`
	Database     DatabaseConfig     `yaml:"database"`
	Broker       BrokerConfig       `yaml:"broker"`
	Risk         RiskConfig         `yaml:"risk"`
	Trailing     TrailingConfig     `yaml:"trailing"`
	Signal       SignalConfig       `yaml:"signal"`
	Fundamentals FundamentalsConfig `yaml:"fundamentals"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	HTTP         HTTPConfig         `yaml:"http"`
	Notifier     NotifierConfig     `yaml:"notifier"`
	Scraper      ScraperConfig      `yaml:"scraper"`
}

type AppConfig struct {
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogPath   string `yaml:"log_path"`
	// DryRun replaces the scraper with an empty static one.
	DryRun bool `yaml:"dry_run"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BrokerConfig selects and configures the broker client. Token and
// AccountID are usually supplied through OANDA_TOKEN / OANDA_ACCOUNT_ID.
type BrokerConfig struct {
	Provider              string  `yaml:"provider"`
	BaseURL               string  `yaml:"base_url"`
	Token                 string  `yaml:"token"`
	AccountID             string  `yaml:"account_id"`
	TimeoutSeconds        int     `yaml:"timeout_seconds"`
	RatePerSec            float64 `yaml:"rate_per_sec"`
	Burst                 int     `yaml:"burst"`
	BreakerThreshold      int     `yaml:"breaker_threshold"`
	BreakerTimeoutSeconds int     `yaml:"breaker_timeout_seconds"`
}

type RiskConfig struct {
	Fraction        float64 `yaml:"fraction"`
	LotScaling      float64 `yaml:"lot_scaling"`
	AccountCurrency string  `yaml:"account_currency"`
	// ConversionMap maps a pair to the pair converting its quote currency
	// into the account currency, e.g. "EUR/JPY": "GBP/JPY".
	ConversionMap map[string]string `yaml:"conversion_map"`
}

type TrailingConfig struct {
	ATRMultiplier  float64 `yaml:"atr_multiplier"`
	ATRPeriod      int     `yaml:"atr_period"`
	Period         string  `yaml:"period"`
	CandleCount    int     `yaml:"candle_count"`
	SyncBrokerStop bool    `yaml:"sync_broker_stop"`
}

type SignalConfig struct {
	Pairs             []string `yaml:"pairs"`
	Period            string   `yaml:"period"`
	CandleCount       int      `yaml:"candle_count"`
	Concurrency       int      `yaml:"concurrency"`
	RSIPeriod         int      `yaml:"rsi_period"`
	ATRPeriod         int      `yaml:"atr_period"`
	SMAPeriod         int      `yaml:"sma_period"`
	ADXPeriod         int      `yaml:"adx_period"`
	BollingerPeriod   int      `yaml:"bollinger_period"`
	Oversold          float64  `yaml:"oversold"`
	Overbought        float64  `yaml:"overbought"`
	StopATRMultiplier float64  `yaml:"stop_atr_multiplier"`
	MinADX            float64  `yaml:"min_adx"`
}

type FundamentalsConfig struct {
	StaleAfterSeconds int  `yaml:"stale_after_seconds"`
	WeekdaysOnly      bool `yaml:"weekdays_only"`
	ForceOverwrite    bool `yaml:"force_overwrite"`
}

// ScheduleConfig holds six-field cron specs (seconds first). An empty spec
// disables the job. The technical job is aligned to signal.period instead.
type ScheduleConfig struct {
	Timezone               string `yaml:"timezone"`
	Fundamentals           string `yaml:"fundamentals"`
	ExpireFundamentals     string `yaml:"expire_fundamentals"`
	ManageOpenTrades       string `yaml:"manage_open_trades"`
	ManageClosedTrades     string `yaml:"manage_closed_trades"`
	TechnicalOffsetSeconds int    `yaml:"technical_offset_seconds"`
	TechnicalImmediately   bool   `yaml:"technical_immediately"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type NotifierConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type ScraperConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Headless       bool   `yaml:"headless"`
	Timezone       string `yaml:"timezone"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}
