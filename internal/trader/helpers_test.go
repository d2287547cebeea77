package trader

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
	"fxbot/internal/gateway/broker/brokertest"
	"fxbot/internal/gateway/scraper"
	"fxbot/internal/store/sqlite"
)

var testNow = time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC)

func newTestUoW(t *testing.T, opts Options) (*UnitOfWork, *brokertest.MockClient) {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "fxbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	brk := new(brokertest.MockClient)
	if opts.AccountCurrency == "" {
		opts.AccountCurrency = "USD"
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return NewUnitOfWork(st, brk, scraper.NewStatic(), opts), brk
}

func seedTrade(t *testing.T, u *UnitOfWork, id, pair string, isBuy bool) {
	t.Helper()
	base, quote, err := domain.SplitPair(pair)
	require.NoError(t, err)
	tr := &domain.Trade{
		TradeID: id, ForexPair: pair, BaseCurrency: base, QuoteCurrency: quote,
		IsBuy: isBuy, Units: 1000, Stop: 1.2, Close: 1.25,
		Position: domain.PositionOpen, InitiatedDate: testNow.Add(-time.Hour),
	}
	require.NoError(t, u.Do(context.Background(), func(s *Scope) error {
		return s.Trades().Save(context.Background(), tr)
	}))
}

func seedFundamental(t *testing.T, u *UnitOfWork, currency string, at time.Time, agg domain.Sentiment, processed bool) {
	t.Helper()
	fd := domain.NewFundamentalData(currency, at)
	fd.AggregateSentiment = agg
	fd.Processed = processed
	require.NoError(t, u.Do(context.Background(), func(s *Scope) error {
		return s.Fundamentals().Save(context.Background(), fd)
	}))
}

func loadTrade(t *testing.T, u *UnitOfWork, id string) domain.Trade {
	t.Helper()
	var out domain.Trade
	require.NoError(t, u.Do(context.Background(), func(s *Scope) error {
		tr, err := s.Trades().GetByTradeID(context.Background(), id)
		if err != nil {
			return err
		}
		out = *tr
		return nil
	}))
	return out
}

func openTrades(t *testing.T, u *UnitOfWork, pair string) []domain.Trade {
	t.Helper()
	var out []domain.Trade
	require.NoError(t, u.Do(context.Background(), func(s *Scope) error {
		var err error
		out, err = s.Trades().GetOpenTradesByPair(context.Background(), pair, nil)
		return err
	}))
	return out
}

// handle runs h in a fresh scope, the way the bus does.
func handle(u *UnitOfWork, h EventHandler, ev Event) error {
	ctx := context.Background()
	return u.Do(ctx, func(s *Scope) error { return h.Handle(ctx, s, ev) })
}
