package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
	"fxbot/internal/store"
)

func openSession(t *testing.T) store.Session {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "fxbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	sess, err := st.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func trade(id, pair string, isBuy bool, pos domain.Position) *domain.Trade {
	base, quote, _ := domain.SplitPair(pair)
	return &domain.Trade{
		TradeID: id, ForexPair: pair, BaseCurrency: base, QuoteCurrency: quote,
		IsBuy: isBuy, Units: 1000, Stop: 1.09, Close: 1.1, Position: pos,
		InitiatedDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func boolPtr(b bool) *bool { return &b }

func TestTradeRepository(t *testing.T) {
	ctx := context.Background()
	repo := openSession(t).Trades()

	require.NoError(t, repo.Save(ctx, trade("1", "EUR/USD", true, domain.PositionOpen)))
	require.NoError(t, repo.Save(ctx, trade("2", "USD/CAD", false, domain.PositionOpen)))
	require.NoError(t, repo.Save(ctx, trade("3", "USD/CAD", true, domain.PositionOpen)))
	closed := trade("4", "GBP/USD", true, domain.PositionOpen)
	require.NoError(t, closed.MarkClosed(-20))
	require.NoError(t, repo.Save(ctx, closed))

	got, err := repo.GetByTradeID(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, domain.PositionClosed, got.Position)
	require.NotNil(t, got.RealisedPL)
	assert.Equal(t, -20.0, *got.RealisedPL)
	assert.False(t, got.IsWinner)
	assert.True(t, got.InitiatedDate.Equal(closed.InitiatedDate))

	_, err = repo.GetByTradeID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	open, err := repo.GetOpenTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 3)

	byPair, err := repo.GetOpenTradesByPair(ctx, "USD/CAD", nil)
	require.NoError(t, err)
	assert.Len(t, byPair, 2)
	sells, err := repo.GetOpenTradesByPair(ctx, "USD/CAD", boolPtr(false))
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.Equal(t, "2", sells[0].TradeID)

	// USD: long EUR/USD is bearish USD, short USD/CAD bearish, long USD/CAD bullish.
	bull, err := repo.GetBullish(ctx, "usd")
	require.NoError(t, err)
	require.Len(t, bull, 1)
	assert.Equal(t, "3", bull[0].TradeID)
	bear, err := repo.GetBearish(ctx, "USD")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, ids(bear))

	pairs, err := repo.GetDistinctPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR/USD", "GBP/USD", "USD/CAD"}, pairs)

	sum, err := repo.SumRealisedPL(ctx)
	require.NoError(t, err)
	assert.Equal(t, -20.0, sum)
}

func TestTradeSaveUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := openSession(t).Trades()
	tr := trade("9", "EUR/USD", true, domain.PositionOpen)
	require.NoError(t, repo.Save(ctx, tr))
	nc := 1.105
	tr.Stop, tr.NewClose = 1.1, &nc
	require.NoError(t, repo.Save(ctx, tr))

	all, err := repo.GetAll(ctx, store.TradeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1.1, all[0].Stop)
	assert.True(t, all[0].Protected())
}

func TestTradeSaveRejectsMismatchedPair(t *testing.T) {
	repo := openSession(t).Trades()
	tr := trade("1", "EUR/USD", true, domain.PositionOpen)
	tr.QuoteCurrency = "JPY"
	assert.ErrorIs(t, repo.Save(context.Background(), tr), domain.ErrInvalidTradeParameter)
}

func TestFundamentalRepository(t *testing.T) {
	ctx := context.Background()
	repo := openSession(t).Fundamentals()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	usd := domain.NewFundamentalData("USD", day.Add(13*time.Hour+30*time.Minute))
	usd.Upsert(domain.CalendarEvent{CalendarEvent: "Non-Farm Employment Change", Sentiment: domain.Bullish}, false)
	require.NoError(t, repo.Save(ctx, usd))
	cad := domain.NewFundamentalData("CAD", day.Add(15*time.Hour))
	require.NoError(t, repo.Save(ctx, cad))
	old := domain.NewFundamentalData("USD", day.Add(-48*time.Hour))
	old.MarkProcessed()
	require.NoError(t, repo.Save(ctx, old))

	got, err := repo.GetFundamentalData(ctx, "usd", usd.LastUpdated)
	require.NoError(t, err)
	assert.Equal(t, domain.Bullish, got.AggregateSentiment)
	require.Len(t, got.CalendarEvents, 1)
	assert.Equal(t, "Non-Farm Employment Change", got.CalendarEvents[0].CalendarEvent)

	_, err = repo.GetFundamentalData(ctx, "USD", day)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	latest, err := repo.GetLatest(ctx, "USD")
	require.NoError(t, err)
	assert.True(t, latest.LastUpdated.Equal(usd.LastUpdated))
	_, err = repo.GetLatest(ctx, "JPY")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	unprocessed, err := repo.GetUnprocessed(ctx)
	require.NoError(t, err)
	assert.Len(t, unprocessed, 2)

	onDay, err := repo.GetAll(ctx, store.FundamentalFilter{Day: day})
	require.NoError(t, err)
	assert.Len(t, onDay, 2)
	processed, err := repo.GetAll(ctx, store.FundamentalFilter{Currency: "USD", Processed: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, processed, 1)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestFundamentalProcessedIsSticky(t *testing.T) {
	ctx := context.Background()
	repo := openSession(t).Fundamentals()
	fd := domain.NewFundamentalData("EUR", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	fd.MarkProcessed()
	require.NoError(t, repo.Save(ctx, fd))

	stale := *fd
	stale.Processed = false
	require.NoError(t, repo.Save(ctx, &stale))

	got, err := repo.GetLatest(ctx, "EUR")
	require.NoError(t, err)
	assert.True(t, got.Processed)
}

func TestEventJournal(t *testing.T) {
	ctx := context.Background()
	repo := openSession(t).Events()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, kind := range []string{"open_trade", "close_trade", "open_trade"} {
		require.NoError(t, repo.Append(ctx, store.EventRecord{
			ID: string(rune('a' + i)), Kind: kind, Payload: []byte(`{"x":1}`), CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	all, err := repo.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.JSONEq(t, `{"x":1}`, string(all[0].Payload))

	opens, err := repo.Recent(ctx, "open_trade", 1)
	require.NoError(t, err)
	require.Len(t, opens, 1)
	assert.Equal(t, "c", opens[0].ID)
}

func TestSessionsUseSeparateConnections(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "fxbot.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	a, err := st.Connect(ctx)
	require.NoError(t, err)
	b, err := st.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Trades().Save(ctx, trade("1", "EUR/USD", true, domain.PositionOpen)))
	got, err := b.Trades().GetByTradeID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "EUR/USD", got.ForexPair)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}

func ids(ts []domain.Trade) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.TradeID)
	}
	return out
}
