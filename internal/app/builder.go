package app

import (
	"context"
	"fmt"
	"time"

	"fxbot/internal/config"
	"fxbot/internal/gateway/broker"
	"fxbot/internal/gateway/notifier"
	"fxbot/internal/gateway/scraper"
	"fxbot/internal/jobs"
	"fxbot/internal/logger"
	"fxbot/internal/market"
	"fxbot/internal/scheduler"
	"fxbot/internal/store"
	"fxbot/internal/strategy/risk"
	"fxbot/internal/trader"
	"fxbot/internal/transport/http/api"
)

// candleCacheSize bounds the bars kept per pair and period.
const candleCacheSize = 2000

// AppBuilder assembles an App. The constructor fields can be replaced with
// options so tests can run the whole wiring against fakes.
type AppBuilder struct {
	cfg *config.Config

	storeFn    func(config.DatabaseConfig) (store.Connector, error)
	brokerFn   func(config.BrokerConfig) (broker.Client, error)
	scraperFn  func(config.AppConfig, config.ScraperConfig) (scraper.Scraper, error)
	notifierFn func(config.NotifierConfig) notifier.TextNotifier
	now        func() time.Time
}

type AppBuilderOption func(*AppBuilder)

func WithStore(fn func(config.DatabaseConfig) (store.Connector, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.storeFn = fn }
}

func WithBroker(fn func(config.BrokerConfig) (broker.Client, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.brokerFn = fn }
}

func WithScraper(fn func(config.AppConfig, config.ScraperConfig) (scraper.Scraper, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.scraperFn = fn }
}

func WithNotifier(fn func(config.NotifierConfig) notifier.TextNotifier) AppBuilderOption {
	return func(b *AppBuilder) { b.notifierFn = fn }
}

func WithClock(now func() time.Time) AppBuilderOption {
	return func(b *AppBuilder) { b.now = now }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		storeFn:    buildStore,
		brokerFn:   buildBroker,
		scraperFn:  buildScraper,
		notifierFn: buildNotifier,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	st, err := b.storeFn(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	app, err := b.assemble(ctx, cfg, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return app, nil
}

func (b *AppBuilder) assemble(ctx context.Context, cfg *config.Config, st store.Connector) (*App, error) {
	brk, err := b.brokerFn(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}
	scr, err := b.scraperFn(cfg.App, cfg.Scraper)
	if err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	uow := trader.NewUnitOfWork(st, brk, scr, trader.Options{
		Risk:            risk.NewCalculator(cfg.Risk.Fraction, cfg.Risk.LotScaling),
		AccountCurrency: cfg.Risk.AccountCurrency,
		ConversionMap:   cfg.Risk.ConversionMap,
		Notifier:        b.notifierFn(cfg.Notifier),
		JournalEvents:   true,
		Now:             b.now,
	})
	logger.Infof("✓ event bus ready with %d handler(s)", uow.Registry().Count())

	cache := market.NewCandleCache(candleCacheSize)
	runner := jobs.NewRunner(uow, cache, jobsConfig(cfg))
	warmed := cache.Preheat(ctx, brk, cfg.Signal.Pairs, market.Granularity(cfg.Signal.Period), cfg.Signal.CandleCount)
	logger.Infof("✓ preheated %d/%d pair(s) at %s", warmed, len(cfg.Signal.Pairs), cfg.Signal.Period)

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	cr := scheduler.NewCron(loc)
	if err := registerJobs(cr, runner, cfg.Schedule, b.now); err != nil {
		return nil, err
	}

	var technical *scheduler.AlignedScheduler
	if interval, ok := scheduler.ParseInterval(cfg.Signal.Period); ok && len(cfg.Signal.Pairs) > 0 {
		technical = scheduler.NewAlignedScheduler("technical_signal", interval,
			time.Duration(cfg.Schedule.TechnicalOffsetSeconds)*time.Second)
		technical.RunImmediately = cfg.Schedule.TechnicalImmediately
	} else {
		logger.Warnf("technical signal job disabled: period=%q pairs=%d", cfg.Signal.Period, len(cfg.Signal.Pairs))
	}

	var httpSrv *api.Server
	if cfg.HTTP.Enabled {
		httpSrv, err = api.NewServer(api.ServerConfig{
			Addr:    cfg.HTTP.Addr,
			Runner:  uow,
			Running: uow.Bus().Running,
			Cache:   cache,
		})
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		cfg:       cfg,
		store:     st,
		uow:       uow,
		runner:    runner,
		cron:      cr,
		technical: technical,
		http:      httpSrv,
	}
	app.Summary = newStartupSummary(cfg, cr.Entries(), technical, cache)
	return app, nil
}
