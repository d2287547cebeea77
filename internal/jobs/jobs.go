// Package jobs holds the periodic entry points the scheduler drives. Each
// job opens its own unit-of-work scopes; per-item failures are logged and
// skipped so one bad pair or trade never stalls a cycle.
package jobs

import (
	"time"

	"fxbot/internal/market"
	"fxbot/internal/strategy/exit"
	"fxbot/internal/strategy/signal"
	"fxbot/internal/trader"
)

// Config carries the job settings.
type Config struct {
	Pairs             []string
	SignalPeriod      market.Granularity
	SignalCandleCount int
	Signal            signal.Config
	// FetchConcurrency bounds concurrent candle fetches in the technical job.
	FetchConcurrency int

	TrailingMultiplier  float64
	TrailingATRPeriod   int
	TrailingPeriod      market.Granularity
	TrailingCandleCount int
	SyncBrokerStop      bool

	StaleAfter   time.Duration
	WeekdaysOnly bool
	// ForceOverwrite lets a re-scrape overwrite events of processed records.
	ForceOverwrite bool
}

func (c Config) withDefaults() Config {
	if c.SignalPeriod == "" {
		c.SignalPeriod = market.M5
	}
	if c.SignalCandleCount <= 0 {
		c.SignalCandleCount = 1000
	}
	if c.Signal.RSIPeriod == 0 {
		c.Signal = signal.DefaultConfig()
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 4
	}
	if c.TrailingMultiplier <= 0 {
		c.TrailingMultiplier = exit.DefaultATRMultiplier
	}
	if c.TrailingATRPeriod <= 0 {
		c.TrailingATRPeriod = 14
	}
	if c.TrailingPeriod == "" {
		c.TrailingPeriod = market.M5
	}
	if c.TrailingCandleCount <= 0 {
		c.TrailingCandleCount = 100
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 10 * time.Minute
	}
	return c
}

// Runner binds the jobs to one unit of work and candle cache.
type Runner struct {
	uow     *trader.UnitOfWork
	cache   *market.CandleCache
	cfg     Config
	trailer exit.Trailer
}

func NewRunner(uow *trader.UnitOfWork, cache *market.CandleCache, cfg Config) *Runner {
	cfg = cfg.withDefaults()
	if cache == nil {
		cache = market.NewCandleCache(cfg.SignalCandleCount)
	}
	return &Runner{
		uow:     uow,
		cache:   cache,
		cfg:     cfg,
		trailer: exit.NewTrailer(cfg.TrailingMultiplier),
	}
}

func (r *Runner) Config() Config { return r.cfg }

func (r *Runner) Cache() *market.CandleCache { return r.cache }
