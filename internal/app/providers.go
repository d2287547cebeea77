package app

import (
	"context"
	"time"

	"fxbot/internal/config"
	"fxbot/internal/gateway"
	"fxbot/internal/gateway/broker"
	"fxbot/internal/gateway/notifier"
	"fxbot/internal/gateway/scraper"
	"fxbot/internal/jobs"
	"fxbot/internal/logger"
	"fxbot/internal/market"
	"fxbot/internal/scheduler"
	"fxbot/internal/store"
	"fxbot/internal/store/sqlite"
	"fxbot/internal/strategy/signal"
)

func buildStore(cfg config.DatabaseConfig) (store.Connector, error) {
	st, err := sqlite.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	logger.Infof("✓ sqlite store at %s", cfg.Path)
	return st, nil
}

func buildBroker(cfg config.BrokerConfig) (broker.Client, error) {
	return gateway.NewBrokerFromConfig(cfg)
}

func buildScraper(app config.AppConfig, cfg config.ScraperConfig) (scraper.Scraper, error) {
	if app.DryRun || cfg.Provider == "static" {
		logger.Infof("✓ scraper: static (no calendar source)")
		return scraper.NewStatic(), nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return scraper.NewForexFactory(scraper.ForexFactoryConfig{
		BaseURL:  cfg.BaseURL,
		Timeout:  seconds(cfg.TimeoutSeconds),
		Headless: cfg.Headless,
		Location: loc,
	})
}

func buildNotifier(cfg config.NotifierConfig) notifier.TextNotifier {
	if !cfg.Telegram.Enabled {
		return notifier.Nop{}
	}
	logger.Infof("✓ telegram notifier enabled for chat %s", cfg.Telegram.ChatID)
	return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
}

func jobsConfig(cfg *config.Config) jobs.Config {
	return jobs.Config{
		Pairs:             cfg.Signal.Pairs,
		SignalPeriod:      market.Granularity(cfg.Signal.Period),
		SignalCandleCount: cfg.Signal.CandleCount,
		Signal: signal.Config{
			SMAPeriod:         cfg.Signal.SMAPeriod,
			RSIPeriod:         cfg.Signal.RSIPeriod,
			ATRPeriod:         cfg.Signal.ATRPeriod,
			ADXPeriod:         cfg.Signal.ADXPeriod,
			BollingerPeriod:   cfg.Signal.BollingerPeriod,
			Oversold:          cfg.Signal.Oversold,
			Overbought:        cfg.Signal.Overbought,
			StopATRMultiplier: cfg.Signal.StopATRMultiplier,
			MinADX:            cfg.Signal.MinADX,
		},
		FetchConcurrency:    cfg.Signal.Concurrency,
		TrailingMultiplier:  cfg.Trailing.ATRMultiplier,
		TrailingATRPeriod:   cfg.Trailing.ATRPeriod,
		TrailingPeriod:      market.Granularity(cfg.Trailing.Period),
		TrailingCandleCount: cfg.Trailing.CandleCount,
		SyncBrokerStop:      cfg.Trailing.SyncBrokerStop,
		StaleAfter:          seconds(cfg.Fundamentals.StaleAfterSeconds),
		WeekdaysOnly:        cfg.Fundamentals.WeekdaysOnly,
		ForceOverwrite:      cfg.Fundamentals.ForceOverwrite,
	}
}

// registerJobs binds the cron-driven job entry points. The technical job
// runs on the candle-aligned scheduler instead.
func registerJobs(cr *scheduler.Cron, runner *jobs.Runner, sched config.ScheduleConfig, now func() time.Time) error {
	jobsBySpec := []struct {
		name string
		spec string
		fn   scheduler.JobFunc
	}{
		{"fetch_fundamentals", sched.Fundamentals, func(ctx context.Context) error {
			return runner.FetchFundamentals(ctx, now())
		}},
		{"expire_fundamentals", sched.ExpireFundamentals, func(ctx context.Context) error {
			return runner.ExpireStaleFundamentals(ctx, now())
		}},
		{"manage_open_trades", sched.ManageOpenTrades, runner.ManageOpenTrades},
		{"manage_closed_trades", sched.ManageClosedTrades, runner.ManageClosedTrades},
	}
	for _, j := range jobsBySpec {
		if err := cr.Add(j.name, j.spec, j.fn); err != nil {
			return err
		}
	}
	return nil
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
