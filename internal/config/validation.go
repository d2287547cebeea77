package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"fxbot/internal/domain"
	"fxbot/internal/market"
)

func validate(c *Config) error {
	validators := []func() error{
		c.Broker.validate,
		c.Risk.validate,
		c.Trailing.validate,
		c.Signal.validate,
		c.Schedule.validate,
		c.Notifier.Telegram.validate,
		c.Scraper.validate,
	}
	for _, fn := range validators {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Validate re-checks a configuration assembled in code.
func (c *Config) Validate() error { return validate(c) }

func (b *BrokerConfig) validate() error {
	if !strings.EqualFold(b.Provider, "oanda") {
		return fmt.Errorf("broker.provider %q is not supported", b.Provider)
	}
	var missing []string
	if strings.TrimSpace(b.Token) == "" {
		missing = append(missing, EnvOandaToken)
	}
	if strings.TrimSpace(b.AccountID) == "" {
		missing = append(missing, EnvOandaAccount)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.Fraction <= 0 || r.Fraction >= 1 {
		return fmt.Errorf("risk.fraction must be in (0, 1), got %v", r.Fraction)
	}
	if len(r.AccountCurrency) != 3 {
		return fmt.Errorf("risk.account_currency %q is not a currency code", r.AccountCurrency)
	}
	for pair, conv := range r.ConversionMap {
		if _, _, err := domain.SplitPair(pair); err != nil {
			return fmt.Errorf("risk.conversion_map key: %w", err)
		}
		if _, _, err := domain.SplitPair(conv); err != nil {
			return fmt.Errorf("risk.conversion_map[%s]: %w", pair, err)
		}
	}
	return nil
}

func (t *TrailingConfig) validate() error {
	if market.Granularity(t.Period).Duration() == 0 {
		return fmt.Errorf("trailing.period %q is not a candle granularity", t.Period)
	}
	if t.CandleCount <= t.ATRPeriod {
		return fmt.Errorf("trailing.candle_count (%d) must exceed atr_period (%d)", t.CandleCount, t.ATRPeriod)
	}
	return nil
}

func (s *SignalConfig) validate() error {
	if market.Granularity(s.Period).Duration() == 0 {
		return fmt.Errorf("signal.period %q is not a candle granularity", s.Period)
	}
	for _, p := range s.Pairs {
		if _, _, err := domain.SplitPair(p); err != nil {
			return fmt.Errorf("signal.pairs: %w", err)
		}
	}
	if s.Oversold >= s.Overbought {
		return fmt.Errorf("signal.oversold (%v) must be below overbought (%v)", s.Oversold, s.Overbought)
	}
	longest := max(s.RSIPeriod, s.ATRPeriod, s.SMAPeriod, s.ADXPeriod, s.BollingerPeriod)
	if s.CandleCount <= longest {
		return fmt.Errorf("signal.candle_count (%d) must exceed the longest indicator period (%d)", s.CandleCount, longest)
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	specs := map[string]string{
		"schedule.fundamentals":         s.Fundamentals,
		"schedule.expire_fundamentals":  s.ExpireFundamentals,
		"schedule.manage_open_trades":   s.ManageOpenTrades,
		"schedule.manage_closed_trades": s.ManageClosedTrades,
	}
	for key, spec := range specs {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s %q: %w", key, spec, err)
		}
	}
	return nil
}

func (t *TelegramConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.BotToken) == "" || strings.TrimSpace(t.ChatID) == "" {
		return fmt.Errorf("notifier.telegram enabled but bot_token or chat_id missing")
	}
	return nil
}

func (s *ScraperConfig) validate() error {
	switch strings.ToLower(s.Provider) {
	case "forexfactory", "static":
	default:
		return fmt.Errorf("scraper.provider %q is not supported", s.Provider)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("scraper.timezone: %w", err)
	}
	return nil
}
