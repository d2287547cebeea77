package jobs

import (
	"context"
	"errors"
	"fmt"

	"fxbot/internal/analysis/indicator"
	"fxbot/internal/domain"
	"fxbot/internal/gateway/broker"
	"fxbot/internal/logger"
	"fxbot/internal/market"
	"fxbot/internal/strategy/exit"
	"fxbot/internal/trader"
)

// ManageOpenTrades runs the trailing stop over every OPEN trade. Trades the
// broker no longer reports as open are reconciled locally; a ratchet only
// updates the stored stop (and the broker stop when SyncBrokerStop is set);
// a crossed stop closes the trade at the broker while the stop is still
// worse than entry.
func (r *Runner) ManageOpenTrades(ctx context.Context) error {
	trades, err := r.openTrades(ctx)
	if err != nil {
		return err
	}
	for i := range trades {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.manage(ctx, &trades[i]); err != nil {
			t := trades[i]
			logger.Errorf("manage trade_id=%s pair=%s units=%d: %v", t.TradeID, t.ForexPair, t.Units, err)
		}
	}
	return nil
}

func (r *Runner) manage(ctx context.Context, t *domain.Trade) error {
	open, err := r.reconcile(ctx, t)
	if err != nil || !open {
		return err
	}
	candles, err := r.fetch(ctx, t.ForexPair, r.cfg.TrailingPeriod, r.cfg.TrailingCandleCount)
	if err != nil {
		return err
	}
	series := market.NewSeries(candles)
	if err := indicator.AddATR(series, r.cfg.TrailingATRPeriod); err != nil {
		return err
	}
	atr, _ := series.Value(indicator.ColATR, -1)
	last, _ := series.Last()

	d, err := r.trailer.Evaluate(exit.Position{
		IsBuy:          t.IsBuy,
		Entry:          t.Close,
		Stop:           t.Stop,
		HalfSpreadCost: t.HalfSpreadCost,
		PriceDecimals:  domain.PipDecimals(t.BaseCurrency, t.QuoteCurrency) + 1,
	}, last.Close, atr)
	if err != nil {
		return err
	}

	if d.Moved {
		prev := t.Stop
		t.Stop = d.NewStop
		closePx := last.Close
		t.NewClose = &closePx
		if err := r.uow.Do(ctx, func(s *trader.Scope) error { return s.Trades().Save(ctx, t) }); err != nil {
			return fmt.Errorf("save trailed stop: %w", err)
		}
		logger.Infof("trailing stop moved trade_id=%s pair=%s stop=%.5f->%.5f close=%.5f atr=%.5f",
			t.TradeID, t.ForexPair, prev, t.Stop, last.Close, atr)
		if r.cfg.SyncBrokerStop {
			if _, err := r.uow.Broker().ModifyTrade(ctx, t.TradeID, t.Stop); err != nil {
				logger.Errorf("sync broker stop trade_id=%s stop=%.5f: %v", t.TradeID, t.Stop, err)
			}
		}
	}

	if !d.Close {
		if crossedStop(t.IsBuy, t.Stop, last.Close) {
			logger.Infof("stop crossed past entry, keeping trade_id=%s pair=%s stop=%.5f entry=%.5f close=%.5f protected=%t",
				t.TradeID, t.ForexPair, t.Stop, t.Close, last.Close, t.Protected())
		}
		return nil
	}
	reason := fmt.Sprintf("stop %.5f crossed by close %.5f", t.Stop, last.Close)
	if err := r.uow.Do(ctx, func(s *trader.Scope) error { return s.CloseTrade(ctx, t, reason) }); err != nil {
		return fmt.Errorf("close crossed trade: %w", err)
	}
	return nil
}

func crossedStop(isBuy bool, stop, px float64) bool {
	if isBuy {
		return stop > px
	}
	return stop < px
}

// ManageClosedTrades reconciles OPEN trades the broker has already closed.
func (r *Runner) ManageClosedTrades(ctx context.Context) error {
	trades, err := r.openTrades(ctx)
	if err != nil {
		return err
	}
	closed := 0
	for i := range trades {
		t := &trades[i]
		open, err := r.reconcile(ctx, t)
		if err != nil {
			logger.Errorf("reconcile trade_id=%s pair=%s: %v", t.TradeID, t.ForexPair, err)
			continue
		}
		if !open {
			closed++
		}
	}
	if closed > 0 {
		logger.Infof("reconciled %d trade(s) closed at the broker", closed)
	}
	return nil
}

// reconcile polls the broker state of t. A non-OPEN state records the
// trade CLOSED with the broker's realised P&L and reports open=false.
func (r *Runner) reconcile(ctx context.Context, t *domain.Trade) (bool, error) {
	st, err := r.uow.Broker().TradeState(ctx, t.TradeID)
	if err != nil {
		if errors.Is(err, broker.ErrTradeNotFound) {
			return false, fmt.Errorf("broker does not know trade: %w", err)
		}
		return false, err
	}
	if st.Status == broker.TradeOpen {
		return true, nil
	}
	err = r.uow.Do(ctx, func(s *trader.Scope) error {
		return s.RecordClosed(ctx, t, st.RealisedPL, fmt.Sprintf("broker state %s", st.Status))
	})
	return false, err
}

func (r *Runner) openTrades(ctx context.Context) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := r.uow.Do(ctx, func(s *trader.Scope) error {
		var err error
		trades, err = s.Trades().GetOpenTrades(ctx)
		return err
	})
	return trades, err
}
