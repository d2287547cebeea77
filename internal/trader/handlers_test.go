package trader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
	"fxbot/internal/gateway/broker"
	"fxbot/internal/store"
)

type captureNotifier struct{ texts []string }

func (c *captureNotifier) SendText(_ context.Context, text string) error {
	c.texts = append(c.texts, text)
	return nil
}

func TestCloseTradeClosesTradesAgainstSentiment(t *testing.T) {
	u, brk := newTestUoW(t, Options{})
	seedTrade(t, u, "1", "USD/JPY", false)
	seedTrade(t, u, "2", "USD/CAD", true)
	seedTrade(t, u, "3", "EUR/USD", true)
	brk.On("CloseTrade", mock.Anything, "1", int64(1000)).Return(&broker.CloseResult{CloseID: "c1", RealisedPL: -4.5}, nil).Once()
	brk.On("CloseTrade", mock.Anything, "3", int64(1000)).Return(&broker.CloseResult{CloseID: "c3", RealisedPL: 7}, nil).Once()

	require.NoError(t, handle(u, CloseTradeHandler{}, CloseTradeEvent{Currency: "USD", Sentiment: domain.Bullish}))

	closed := loadTrade(t, u, "1")
	assert.Equal(t, domain.PositionClosed, closed.Position)
	require.NotNil(t, closed.RealisedPL)
	assert.Equal(t, -4.5, *closed.RealisedPL)
	assert.False(t, closed.IsWinner)

	assert.Equal(t, domain.PositionOpen, loadTrade(t, u, "2").Position)

	winner := loadTrade(t, u, "3")
	assert.Equal(t, domain.PositionClosed, winner.Position)
	assert.True(t, winner.IsWinner)
	brk.AssertExpectations(t)
}

func TestCloseTradeFlatDoesNothing(t *testing.T) {
	u, brk := newTestUoW(t, Options{})
	seedTrade(t, u, "1", "USD/JPY", false)
	require.NoError(t, handle(u, CloseTradeHandler{}, CloseTradeEvent{Currency: "USD", Sentiment: domain.Flat}))
	brk.AssertNotCalled(t, "CloseTrade", mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, loadTrade(t, u, "1").IsOpen())
}

func TestCloseTradeBrokerErrorKeepsTradeOpen(t *testing.T) {
	u, brk := newTestUoW(t, Options{})
	seedTrade(t, u, "1", "EUR/USD", true)
	seedTrade(t, u, "2", "GBP/USD", true)
	brk.On("CloseTrade", mock.Anything, "1", int64(1000)).
		Return(nil, &broker.BrokerError{Op: "close_trade", TradeID: "1", Err: broker.ErrUnavailable}).Once()
	brk.On("CloseTrade", mock.Anything, "2", int64(1000)).Return(&broker.CloseResult{RealisedPL: 1}, nil).Once()

	require.NoError(t, handle(u, CloseTradeHandler{}, CloseTradeEvent{Currency: "USD", Sentiment: domain.Bullish}))
	assert.True(t, loadTrade(t, u, "1").IsOpen())
	assert.False(t, loadTrade(t, u, "2").IsOpen())
}

func TestCloseForexPairClosesMatchingSide(t *testing.T) {
	u, brk := newTestUoW(t, Options{})
	seedTrade(t, u, "1", "EUR/USD", true)
	seedTrade(t, u, "2", "EUR/USD", false)
	brk.On("CloseTrade", mock.Anything, "2", int64(1000)).Return(&broker.CloseResult{RealisedPL: 3}, nil).Once()

	require.NoError(t, handle(u, CloseForexPairHandler{}, CloseForexPairEvent{ForexPair: "EUR/USD", Sentiment: domain.Bearish}))
	assert.True(t, loadTrade(t, u, "1").IsOpen())
	assert.False(t, loadTrade(t, u, "2").IsOpen())
	brk.AssertExpectations(t)
}

func TestOpenTradeOpensOncePerPair(t *testing.T) {
	note := &captureNotifier{}
	u, brk := newTestUoW(t, Options{Notifier: note})
	seedFundamental(t, u, "EUR", testNow.Add(-time.Hour), domain.Bullish, true)
	brk.On("AccountBalance", mock.Anything).Return(10000.0, nil)
	brk.On("OpenTrade", mock.Anything, mock.MatchedBy(func(r broker.OpenRequest) bool {
		return r.Pair == "EUR/USD" && r.IsBuy && r.Units == 4032 && r.Stop == 1.095
	})).Return(&broker.OpenResult{TradeID: "77", Price: 1.1, HalfSpreadCost: 0.00005}, nil).Once()

	ev := OpenTradeEvent{ForexPair: "eur/usd", Sentiment: domain.Bullish, Stop: 1.09504, Close: 1.1}
	require.NoError(t, handle(u, OpenTradeHandler{}, ev))
	require.NoError(t, handle(u, OpenTradeHandler{}, ev))

	tr := loadTrade(t, u, "77")
	assert.True(t, tr.IsBuy)
	assert.Equal(t, int64(4032), tr.Units)
	assert.Equal(t, 1.095, tr.Stop)
	assert.Equal(t, 1.1, tr.Close)
	assert.Equal(t, "EUR", tr.BaseCurrency)
	assert.InDelta(t, 49.6, tr.SLPips, 1e-6)
	assert.Equal(t, 0.00005, tr.HalfSpreadCost)
	assert.Len(t, openTrades(t, u, "EUR/USD"), 1)
	assert.Len(t, note.texts, 1)
	brk.AssertNumberOfCalls(t, "OpenTrade", 1)
}

func TestOpenTradeConvertsQuoteCurrency(t *testing.T) {
	u, brk := newTestUoW(t, Options{AccountCurrency: "GBP"})
	seedFundamental(t, u, "EUR", testNow, domain.Flat, true)
	brk.On("LatestClose", mock.Anything, "GBP/USD").Return(1.25, nil).Once()
	brk.On("AccountBalance", mock.Anything).Return(10000.0, nil)
	brk.On("OpenTrade", mock.Anything, mock.MatchedBy(func(r broker.OpenRequest) bool {
		return r.Units == 5040
	})).Return(&broker.OpenResult{TradeID: "9"}, nil).Once()

	require.NoError(t, handle(u, OpenTradeHandler{}, OpenTradeEvent{ForexPair: "EUR/USD", Sentiment: domain.Bullish, Stop: 1.09504, Close: 1.1}))
	brk.AssertExpectations(t)
}

func TestOpenTradeSkipsWhenFundamentalsDisagree(t *testing.T) {
	u, brk := newTestUoW(t, Options{})
	seedFundamental(t, u, "USD", testNow.Add(-time.Hour), domain.Bullish, true)
	seedFundamental(t, u, "CAD", testNow, domain.Bearish, false)

	require.NoError(t, handle(u, OpenTradeHandler{}, OpenTradeEvent{ForexPair: "USD/CAD", Sentiment: domain.Bullish, Stop: 1.35, Close: 1.36}))
	require.NoError(t, handle(u, OpenTradeHandler{}, OpenTradeEvent{ForexPair: "GBP/JPY", Sentiment: domain.Bearish, Stop: 190.5, Close: 190}))
	brk.AssertNotCalled(t, "AccountBalance", mock.Anything)
	brk.AssertNotCalled(t, "OpenTrade", mock.Anything, mock.Anything)
}

func TestOpenTradeBrokerErrorPersistsNothing(t *testing.T) {
	u, brk := newTestUoW(t, Options{})
	seedFundamental(t, u, "GBP", testNow, domain.Bearish, true)
	brk.On("AccountBalance", mock.Anything).Return(5000.0, nil)
	brk.On("OpenTrade", mock.Anything, mock.Anything).
		Return(nil, &broker.BrokerError{Op: "open_trade", Reason: "INSUFFICIENT_MARGIN", Err: broker.ErrRejected}).Once()

	require.NoError(t, handle(u, OpenTradeHandler{}, OpenTradeEvent{ForexPair: "GBP/USD", Sentiment: domain.Bearish, Stop: 1.28, Close: 1.27}))
	assert.Empty(t, openTrades(t, u, "GBP/USD"))
}

func TestOpenTradeRejectsBadLimitBeforeBroker(t *testing.T) {
	u, brk := newTestUoW(t, Options{})
	seedFundamental(t, u, "EUR", testNow, domain.Bullish, true)
	brk.On("AccountBalance", mock.Anything).Return(10000.0, nil)
	limit := 1.09

	err := handle(u, OpenTradeHandler{}, OpenTradeEvent{ForexPair: "EUR/USD", Sentiment: domain.Bullish, Stop: 1.095, Close: 1.1, Limit: &limit})
	assert.ErrorIs(t, err, domain.ErrInvalidTradeParameter)
	brk.AssertNotCalled(t, "OpenTrade", mock.Anything, mock.Anything)
}

func TestFundamentalNotify(t *testing.T) {
	note := &captureNotifier{}
	u, _ := newTestUoW(t, Options{Notifier: note})
	seedFundamental(t, u, "JPY", testNow, domain.Bearish, true)

	require.NoError(t, handle(u, FundamentalNotifyHandler{}, FundamentalEvent{Currency: "JPY", LastUpdated: testNow, Sentiment: domain.Bearish}))
	require.Len(t, note.texts, 1)
	assert.Contains(t, note.texts[0], "JPY")

	err := handle(u, FundamentalNotifyHandler{}, FundamentalEvent{Currency: "CHF", LastUpdated: testNow})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandlerRejectsWrongEvent(t *testing.T) {
	u, _ := newTestUoW(t, Options{})
	err := handle(u, OpenTradeHandler{}, TechnicalEvent{Currency: "USD"})
	assert.Error(t, err)
}

type failingConnector struct{}

func (failingConnector) Connect(context.Context) (store.Session, error) {
	return nil, errors.New("disk gone")
}
func (failingConnector) Close() error { return nil }

func TestUnitOfWorkConnectFailure(t *testing.T) {
	u := NewUnitOfWork(failingConnector{}, nil, nil, Options{})
	called := false
	err := u.Do(context.Background(), func(*Scope) error { called = true; return nil })
	assert.ErrorContains(t, err, "disk gone")
	assert.False(t, called)
}

func TestBusDispatchesThroughUnitOfWork(t *testing.T) {
	u, brk := newTestUoW(t, Options{JournalEvents: true})
	seedTrade(t, u, "1", "EUR/USD", true)
	brk.On("CloseTrade", mock.Anything, "1", int64(1000)).Return(&broker.CloseResult{RealisedPL: 2}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	u.Start(ctx)
	u.Publish(CloseForexPairEvent{ForexPair: "EUR/USD", Sentiment: domain.Bullish})
	require.Eventually(t, func() bool { return !loadTrade(t, u, "1").IsOpen() }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, u.Stop(context.Background()))

	require.NoError(t, u.Do(ctx, func(s *Scope) error {
		recs, err := s.Events().Recent(ctx, string(KindCloseForexPair), 10)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		ev, err := DecodeEvent(KindCloseForexPair, recs[0].Payload)
		require.NoError(t, err)
		assert.Equal(t, CloseForexPairEvent{ForexPair: "EUR/USD", Sentiment: domain.Bullish}, ev)
		return nil
	}))
}
