package jobs

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fxbot/internal/logger"
	"fxbot/internal/market"
	"fxbot/internal/strategy/signal"
	"fxbot/internal/trader"
)

// ComputeTechnicalSignal evaluates the divergence signal on every
// configured pair. Candles are fetched concurrently; events are published
// in pair order so the bus sees a deterministic sequence. A directional
// signal first closes the opposite side of the pair, then asks for a new
// trade.
func (r *Runner) ComputeTechnicalSignal(ctx context.Context) error {
	pairs := r.cfg.Pairs
	sigs := make([]*signal.Signal, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.FetchConcurrency)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			sig, err := r.evaluate(gctx, pair)
			if err != nil {
				logger.Errorf("technical: pair=%s: %v", pair, err)
				return nil
			}
			sigs[i] = sig
			return nil
		})
	}
	_ = g.Wait()

	published := 0
	for i, pair := range pairs {
		sig := sigs[i]
		if sig == nil {
			continue
		}
		logger.Debugf("technical: pair=%s sentiment=%s close=%.5f rsi=%.1f atr=%.5f",
			pair, sig.Sentiment, sig.Close, sig.RSI, sig.ATR)
		if !sig.Sentiment.IsDirectional() {
			continue
		}
		r.uow.Publish(trader.CloseForexPairEvent{ForexPair: pair, Sentiment: sig.Sentiment.Opposite()})
		r.uow.Publish(trader.OpenTradeEvent{ForexPair: pair, Sentiment: sig.Sentiment, Stop: sig.Stop, Close: sig.Close})
		published++
	}
	logger.Infof("technical: evaluated %d pair(s), %d signal(s)", len(pairs), published)
	return ctx.Err()
}

func (r *Runner) evaluate(ctx context.Context, pair string) (*signal.Signal, error) {
	candles, err := r.fetch(ctx, pair, r.cfg.SignalPeriod, r.cfg.SignalCandleCount)
	if err != nil {
		return nil, err
	}
	series := market.NewSeries(market.DropIncomplete(candles))
	if err := r.cfg.Signal.Prepare(series); err != nil {
		return nil, err
	}
	sig, err := r.cfg.Signal.Evaluate(series)
	if err != nil {
		return nil, err
	}
	return &sig, nil
}

// fetch pulls candles from the broker and merges them into the cache.
func (r *Runner) fetch(ctx context.Context, pair string, period market.Granularity, count int) ([]market.Candle, error) {
	candles, err := r.uow.Broker().Candles(ctx, pair, period, count)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(pair, period, candles); err != nil {
		logger.Warnf("technical: cache pair=%s: %v", pair, err)
	}
	return candles, nil
}
