package config

import "strings"

const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppLogFormat      = "text"
	defaultDatabasePath      = "data/fxbot.db"
	defaultBrokerProvider    = "oanda"
	defaultBrokerURL         = "https://api-fxpractice.oanda.com"
	defaultBrokerTimeout     = 15
	defaultBrokerRate        = 20
	defaultBrokerBurst       = 5
	defaultBreakerThreshold  = 5
	defaultBreakerTimeout    = 30
	defaultRiskFraction      = 0.02
	defaultLotScaling        = 10000
	defaultAccountCurrency   = "GBP"
	defaultATRMultiplier     = 3
	defaultATRPeriod         = 14
	defaultPeriod            = "M5"
	defaultTrailingCandles   = 100
	defaultSignalCandles     = 1000
	defaultSignalConcurrency = 4
	defaultRSIPeriod         = 14
	defaultSMAPeriod         = 10
	defaultADXPeriod         = 14
	defaultBollingerPeriod   = 5
	defaultOversold          = 30
	defaultOverbought        = 70
	defaultStopATRMultiplier = 2.5
	defaultStaleAfter        = 600
	defaultTimezone          = "UTC"
	defaultCronFundamentals  = "0 */5 * * * 1-5"
	defaultCronExpire        = "30 * * * * *"
	defaultCronManageOpen    = "*/30 * * * * *"
	defaultCronManageClosed  = "15 * * * * *"
	defaultTechnicalOffset   = 5
	defaultHTTPAddr          = ":8080"
	defaultScraperProvider   = "forexfactory"
	defaultScraperURL        = "https://www.forexfactory.com/calendar"
	defaultScraperTimeout    = 60
	defaultScraperTimezone   = "America/New_York"
)

// DefaultPairs are traded when signal.pairs is not set.
var DefaultPairs = []string{"EUR/USD", "GBP/USD", "USD/JPY", "AUD/USD", "USD/CAD", "USD/CHF", "NZD/USD", "EUR/GBP"}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults(nil)
	return &c
}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.Broker.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Trailing.applyDefaults(keys)
	c.Signal.applyDefaults(keys)
	c.Fundamentals.applyDefaults(keys)
	c.Schedule.applyDefaults(keys)
	c.HTTP.applyDefaults(keys)
	c.Scraper.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys, stringFieldDefault("database.path", &d.Path, defaultDatabasePath))
}

func (b *BrokerConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("broker.provider", &b.Provider, defaultBrokerProvider),
		stringFieldDefault("broker.base_url", &b.BaseURL, defaultBrokerURL),
		intFieldDefault("broker.timeout_seconds", &b.TimeoutSeconds, defaultBrokerTimeout),
		floatFieldDefault("broker.rate_per_sec", &b.RatePerSec, defaultBrokerRate),
		intFieldDefault("broker.burst", &b.Burst, defaultBrokerBurst),
		intFieldDefault("broker.breaker_threshold", &b.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("broker.breaker_timeout_seconds", &b.BreakerTimeoutSeconds, defaultBreakerTimeout),
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		floatFieldDefault("risk.fraction", &r.Fraction, defaultRiskFraction),
		floatFieldDefault("risk.lot_scaling", &r.LotScaling, defaultLotScaling),
		stringFieldDefault("risk.account_currency", &r.AccountCurrency, defaultAccountCurrency),
	)
	r.AccountCurrency = strings.ToUpper(strings.TrimSpace(r.AccountCurrency))
	if len(r.ConversionMap) > 0 {
		norm := make(map[string]string, len(r.ConversionMap))
		for k, v := range r.ConversionMap {
			norm[strings.ToUpper(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
		}
		r.ConversionMap = norm
	}
}

func (t *TrailingConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		floatFieldDefault("trailing.atr_multiplier", &t.ATRMultiplier, defaultATRMultiplier),
		intFieldDefault("trailing.atr_period", &t.ATRPeriod, defaultATRPeriod),
		stringFieldDefault("trailing.period", &t.Period, defaultPeriod),
		intFieldDefault("trailing.candle_count", &t.CandleCount, defaultTrailingCandles),
	)
	t.Period = strings.ToUpper(t.Period)
}

func (s *SignalConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("signal.period", &s.Period, defaultPeriod),
		intFieldDefault("signal.candle_count", &s.CandleCount, defaultSignalCandles),
		intFieldDefault("signal.concurrency", &s.Concurrency, defaultSignalConcurrency),
		intFieldDefault("signal.rsi_period", &s.RSIPeriod, defaultRSIPeriod),
		intFieldDefault("signal.atr_period", &s.ATRPeriod, defaultATRPeriod),
		intFieldDefault("signal.sma_period", &s.SMAPeriod, defaultSMAPeriod),
		intFieldDefault("signal.adx_period", &s.ADXPeriod, defaultADXPeriod),
		intFieldDefault("signal.bollinger_period", &s.BollingerPeriod, defaultBollingerPeriod),
		floatFieldDefault("signal.oversold", &s.Oversold, defaultOversold),
		floatFieldDefault("signal.overbought", &s.Overbought, defaultOverbought),
		floatFieldDefault("signal.stop_atr_multiplier", &s.StopATRMultiplier, defaultStopATRMultiplier),
		fieldDefault{
			key:   "signal.pairs",
			need:  func() bool { return len(s.Pairs) == 0 },
			apply: func() { s.Pairs = append([]string(nil), DefaultPairs...) },
		},
	)
	s.Period = strings.ToUpper(s.Period)
	s.Pairs = normalizePairs(s.Pairs)
}

func (f *FundamentalsConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("fundamentals.stale_after_seconds", &f.StaleAfterSeconds, defaultStaleAfter),
		boolFieldDefault("fundamentals.weekdays_only", &f.WeekdaysOnly, true),
	)
}

func (s *ScheduleConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("schedule.timezone", &s.Timezone, defaultTimezone),
		stringFieldDefault("schedule.fundamentals", &s.Fundamentals, defaultCronFundamentals),
		stringFieldDefault("schedule.expire_fundamentals", &s.ExpireFundamentals, defaultCronExpire),
		stringFieldDefault("schedule.manage_open_trades", &s.ManageOpenTrades, defaultCronManageOpen),
		stringFieldDefault("schedule.manage_closed_trades", &s.ManageClosedTrades, defaultCronManageClosed),
		intFieldDefault("schedule.technical_offset_seconds", &s.TechnicalOffsetSeconds, defaultTechnicalOffset),
	)
}

func (h *HTTPConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		boolFieldDefault("http.enabled", &h.Enabled, true),
		stringFieldDefault("http.addr", &h.Addr, defaultHTTPAddr),
	)
}

func (s *ScraperConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("scraper.provider", &s.Provider, defaultScraperProvider),
		stringFieldDefault("scraper.base_url", &s.BaseURL, defaultScraperURL),
		intFieldDefault("scraper.timeout_seconds", &s.TimeoutSeconds, defaultScraperTimeout),
		boolFieldDefault("scraper.headless", &s.Headless, true),
		stringFieldDefault("scraper.timezone", &s.Timezone, defaultScraperTimezone),
	)
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

// applyFieldDefaults applies each default unless its key was set
// explicitly in the file or its need check says the value is fine.
func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

// boolFieldDefault only applies when the key is absent from the file.
func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:   key,
		apply: func() { *target = def },
	}
}

func normalizePairs(pairs []string) []string {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]string, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
