package trader

import (
	"context"
	"fmt"

	"fxbot/internal/domain"
	"fxbot/internal/gateway/notifier"
	"fxbot/internal/logger"
	"fxbot/internal/strategy/risk"
)

// TradeParameters sizes ev against the current balance, converting the
// quote currency into the account currency through the broker's latest
// close of the conversion pair.
func (s *Scope) TradeParameters(ctx context.Context, ev OpenTradeEvent) (risk.Params, error) {
	opts := s.Options()
	convPair, err := risk.ConversionPair(ev.ForexPair, opts.AccountCurrency, opts.ConversionMap)
	if err != nil {
		return risk.Params{}, err
	}
	rate := 1.0
	if convPair != "" {
		rate, err = s.Broker().LatestClose(ctx, convPair)
		if err != nil {
			return risk.Params{}, fmt.Errorf("conversion rate %s: %w", convPair, err)
		}
	}
	balance, err := s.Broker().AccountBalance(ctx)
	if err != nil {
		return risk.Params{}, fmt.Errorf("account balance: %w", err)
	}
	return opts.Risk.Compute(risk.Input{
		ForexPair: ev.ForexPair,
		Sentiment: ev.Sentiment,
		Stop:      ev.Stop,
		Close:     ev.Close,
		Balance:   balance,
		QuoteRate: rate,
	})
}

// CloseTrade closes t at the broker, then records it CLOSED with the
// realised P&L. On a broker error the local trade is left untouched.
func (s *Scope) CloseTrade(ctx context.Context, t *domain.Trade, reason string) error {
	if !t.IsOpen() {
		return fmt.Errorf("%w: %s", domain.ErrTradeClosed, t.TradeID)
	}
	units := t.Units
	if units < 0 {
		units = -units
	}
	res, err := s.Broker().CloseTrade(ctx, t.TradeID, units)
	if err != nil {
		return err
	}
	return s.RecordClosed(ctx, t, res.RealisedPL, reason)
}

// RecordClosed marks t CLOSED locally without calling the broker.
func (s *Scope) RecordClosed(ctx context.Context, t *domain.Trade, realisedPL float64, reason string) error {
	if err := t.MarkClosed(realisedPL); err != nil {
		return err
	}
	if err := s.Trades().Save(ctx, t); err != nil {
		return fmt.Errorf("save closed trade %s: %w", t.TradeID, err)
	}
	logger.Infof("trade closed trade_id=%s pair=%s units=%d pl=%.2f reason=%s",
		t.TradeID, t.ForexPair, t.Units, realisedPL, reason)
	s.Notify(ctx, notifier.TradeClosed(*t, reason))
	return nil
}
