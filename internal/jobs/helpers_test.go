package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
	"fxbot/internal/gateway/broker/brokertest"
	"fxbot/internal/gateway/scraper"
	"fxbot/internal/market"
	"fxbot/internal/store"
	"fxbot/internal/store/sqlite"
	"fxbot/internal/trader"
)

var testNow = time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC)

type env struct {
	runner  *Runner
	uow     *trader.UnitOfWork
	broker  *brokertest.MockClient
	scraper *scraper.Static
}

func newEnv(t *testing.T, cfg Config, scr scraper.Scraper) *env {
	t.Helper()
	return newEnvWith(t, cfg, scr, nil)
}

// newEnvWith lets a test wrap the sqlite connector.
func newEnvWith(t *testing.T, cfg Config, scr scraper.Scraper, wrap func(store.Connector) store.Connector) *env {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	var conn store.Connector = st
	if wrap != nil {
		conn = wrap(st)
	}
	static, _ := scr.(*scraper.Static)
	if scr == nil {
		static = scraper.NewStatic()
		scr = static
	}
	brk := new(brokertest.MockClient)
	uow := trader.NewUnitOfWork(conn, brk, scr, trader.Options{
		AccountCurrency: "USD",
		Now:             func() time.Time { return testNow },
	})
	return &env{
		runner:  NewRunner(uow, market.NewCandleCache(200), cfg),
		uow:     uow,
		broker:  brk,
		scraper: static,
	}
}

func (e *env) saveTrade(t *testing.T, tr domain.Trade) {
	t.Helper()
	base, quote, err := domain.SplitPair(tr.ForexPair)
	require.NoError(t, err)
	tr.BaseCurrency, tr.QuoteCurrency = base, quote
	tr.Position = domain.PositionOpen
	if tr.InitiatedDate.IsZero() {
		tr.InitiatedDate = testNow.Add(-time.Hour)
	}
	require.NoError(t, e.uow.Do(context.Background(), func(s *trader.Scope) error {
		return s.Trades().Save(context.Background(), &tr)
	}))
}

func (e *env) trade(t *testing.T, id string) domain.Trade {
	t.Helper()
	var out domain.Trade
	require.NoError(t, e.uow.Do(context.Background(), func(s *trader.Scope) error {
		tr, err := s.Trades().GetByTradeID(context.Background(), id)
		if err != nil {
			return err
		}
		out = *tr
		return nil
	}))
	return out
}

func (e *env) fundamental(t *testing.T, currency string, at time.Time) domain.FundamentalData {
	t.Helper()
	var out domain.FundamentalData
	require.NoError(t, e.uow.Do(context.Background(), func(s *trader.Scope) error {
		fd, err := s.Fundamentals().GetFundamentalData(context.Background(), currency, at)
		if err != nil {
			return err
		}
		out = *fd
		return nil
	}))
	return out
}

// flatCandles builds n bars closing at px with a constant true range.
func flatCandles(n int, px, rng float64) []market.Candle {
	out := make([]market.Candle, n)
	start := testNow.Add(-time.Duration(n) * 5 * time.Minute)
	for i := range out {
		out[i] = market.Candle{
			Time: start.Add(time.Duration(i) * 5 * time.Minute),
			Open: px, High: px + rng/2, Low: px - rng/2, Close: px, Complete: true,
		}
	}
	return out
}

func f(v float64) *float64 { return &v }
