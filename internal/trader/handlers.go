package trader

import (
	"context"
	"errors"
	"fmt"

	"fxbot/internal/domain"
	"fxbot/internal/gateway/broker"
	"fxbot/internal/gateway/notifier"
	"fxbot/internal/logger"
)

// CloseTradeHandler unwinds open trades positioned against a fresh
// fundamental read: BULLISH on a currency closes the trades bearish on it,
// BEARISH closes the bullish ones.
type CloseTradeHandler struct{}

func (CloseTradeHandler) Kind() EventKind { return KindCloseTrade }
func (CloseTradeHandler) Name() string    { return "close_trade" }

func (CloseTradeHandler) Handle(ctx context.Context, s *Scope, ev Event) error {
	e, ok := ev.(CloseTradeEvent)
	if !ok {
		return unexpected(KindCloseTrade, ev)
	}
	logger.Infof("close trade event currency=%s sentiment=%s", e.Currency, e.Sentiment)
	var (
		trades []domain.Trade
		err    error
	)
	switch e.Sentiment {
	case domain.Bullish:
		trades, err = s.Trades().GetBearish(ctx, e.Currency)
	case domain.Bearish:
		trades, err = s.Trades().GetBullish(ctx, e.Currency)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return closeAll(ctx, s, trades, fmt.Sprintf("%s turned %s", e.Currency, e.Sentiment))
}

// CloseForexPairHandler closes the open trades on a pair whose side agrees
// with the sentiment being reversed.
type CloseForexPairHandler struct{}

func (CloseForexPairHandler) Kind() EventKind { return KindCloseForexPair }
func (CloseForexPairHandler) Name() string    { return "close_forex_pair" }

func (CloseForexPairHandler) Handle(ctx context.Context, s *Scope, ev Event) error {
	e, ok := ev.(CloseForexPairEvent)
	if !ok {
		return unexpected(KindCloseForexPair, ev)
	}
	if !e.Sentiment.IsDirectional() {
		return nil
	}
	isBuy := e.Sentiment == domain.Bullish
	trades, err := s.Trades().GetOpenTradesByPair(ctx, e.ForexPair, &isBuy)
	if err != nil {
		return err
	}
	return closeAll(ctx, s, trades, fmt.Sprintf("%s signal reversed from %s", e.ForexPair, e.Sentiment))
}

// closeAll closes each trade in turn. Broker failures are logged with the
// trade context and skipped; persistence failures are returned.
func closeAll(ctx context.Context, s *Scope, trades []domain.Trade, reason string) error {
	var errs []error
	for i := range trades {
		t := &trades[i]
		if err := s.CloseTrade(ctx, t, reason); err != nil {
			if broker.IsBrokerError(err) {
				logger.Errorf("close trade failed trade_id=%s pair=%s units=%d: %v", t.TradeID, t.ForexPair, t.Units, err)
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenTradeHandler opens at most one trade per pair, only when the
// technical signal agrees with the freshest fundamentals.
type OpenTradeHandler struct{}

func (OpenTradeHandler) Kind() EventKind { return KindOpenTrade }
func (OpenTradeHandler) Name() string    { return "open_trade" }

func (OpenTradeHandler) Handle(ctx context.Context, s *Scope, ev Event) error {
	e, ok := ev.(OpenTradeEvent)
	if !ok {
		return unexpected(KindOpenTrade, ev)
	}
	base, quote, err := domain.SplitPair(e.ForexPair)
	if err != nil {
		return err
	}
	pair := domain.JoinPair(base, quote)
	e.ForexPair = pair

	open, err := s.Trades().GetOpenTradesByPair(ctx, pair, nil)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		logger.Infof("open trade skipped pair=%s: %d trade(s) already open", pair, len(open))
		return nil
	}

	combined, err := CombinedSentiment(ctx, s.Fundamentals(), e.Sentiment, base, quote)
	if err != nil {
		return err
	}
	if !combined.IsDirectional() || combined != e.Sentiment {
		logger.Infof("open trade skipped pair=%s: technical=%s combined=%s", pair, e.Sentiment, combined)
		return nil
	}

	params, err := s.TradeParameters(ctx, e)
	if err != nil {
		if broker.IsBrokerError(err) {
			logger.Errorf("open trade sizing failed pair=%s: %v", pair, err)
			return nil
		}
		return err
	}
	if err := broker.ValidateStops(params.IsBuy, params.Stop, e.Limit); err != nil {
		return err
	}

	res, err := s.Broker().OpenTrade(ctx, broker.OpenRequest{
		Pair:  pair,
		IsBuy: params.IsBuy,
		Units: params.Units,
		Stop:  params.Stop,
		Limit: e.Limit,
	})
	if err != nil {
		logger.Errorf("open trade failed pair=%s units=%d stop=%v: %v", pair, params.Units, params.Stop, err)
		return nil
	}

	t := domain.Trade{
		TradeID:        res.TradeID,
		Units:          params.Units,
		Stop:           params.Stop,
		Limit:          e.Limit,
		IsBuy:          params.IsBuy,
		BaseCurrency:   base,
		QuoteCurrency:  quote,
		ForexPair:      pair,
		Close:          e.Close,
		Position:       domain.PositionOpen,
		InitiatedDate:  s.Now().UTC(),
		SLPips:         params.StopLossPips,
		HalfSpreadCost: res.HalfSpreadCost,
	}
	if err := s.Trades().Save(ctx, &t); err != nil {
		return fmt.Errorf("save opened trade %s: %w", t.TradeID, err)
	}
	logger.Infof("trade opened trade_id=%s pair=%s side=%s units=%d stop=%v sl_pips=%.1f",
		t.TradeID, pair, t.Sentiment(), t.Units, t.Stop, t.SLPips)
	s.Notify(ctx, notifier.TradeOpened(t))
	return nil
}

// FundamentalNotifyHandler reports a completed calendar read.
type FundamentalNotifyHandler struct{}

func (FundamentalNotifyHandler) Kind() EventKind { return KindFundamental }
func (FundamentalNotifyHandler) Name() string    { return "fundamental_notify" }

func (FundamentalNotifyHandler) Handle(ctx context.Context, s *Scope, ev Event) error {
	e, ok := ev.(FundamentalEvent)
	if !ok {
		return unexpected(KindFundamental, ev)
	}
	fd, err := s.Fundamentals().GetFundamentalData(ctx, e.Currency, e.LastUpdated)
	if err != nil {
		return err
	}
	logger.Infof("fundamentals processed currency=%s at=%s aggregate=%s events=%d",
		fd.Currency, fd.LastUpdated.Format("15:04"), fd.AggregateSentiment, len(fd.CalendarEvents))
	s.Notify(ctx, notifier.FundamentalProcessed(*fd))
	return nil
}

func unexpected(want EventKind, ev Event) error {
	got := EventKind("<nil>")
	if ev != nil {
		got = ev.Kind()
	}
	return fmt.Errorf("handler for %s got %s event", want, got)
}
