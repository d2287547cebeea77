package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
	"fxbot/internal/gateway/scraper"
	"fxbot/internal/store"
	"fxbot/internal/trader"
)

func calendarItems(at time.Time) []scraper.Item {
	return []scraper.Item{
		{Currency: "USD", Timestamp: at, Event: domain.CalendarEvent{CalendarEvent: "Non-Farm Employment Change", Sentiment: domain.Bullish, Forecast: f(200), Actual: f(275), Previous: f(229)}},
		{Currency: "USD", Timestamp: at, Event: domain.CalendarEvent{CalendarEvent: "Unemployment Rate", Sentiment: domain.Bearish, Forecast: f(3.7), Actual: f(3.9), Previous: f(3.7)}},
		{Currency: "USD", Timestamp: at, Event: domain.CalendarEvent{CalendarEvent: "Average Hourly Earnings m/m", Sentiment: domain.Bullish, Forecast: f(0.2), Actual: f(0.1), Previous: f(0.5)}},
		{Currency: "CAD", Timestamp: at, Event: domain.CalendarEvent{CalendarEvent: "Employment Change", Sentiment: domain.Flat, Forecast: f(20), Previous: f(37.3)}},
	}
}

func TestFetchFundamentalsPublishesCompleteRecords(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	at := testNow.Add(-30 * time.Minute)
	e.scraper.SetItems(calendarItems(at)...)
	ctx := context.Background()

	require.NoError(t, e.runner.FetchFundamentals(ctx, testNow))

	usd := e.fundamental(t, "USD", at)
	assert.True(t, usd.Processed)
	assert.Equal(t, domain.Bullish, usd.AggregateSentiment)
	assert.Len(t, usd.CalendarEvents, 3)

	cad := e.fundamental(t, "CAD", at)
	assert.False(t, cad.Processed)

	pending := e.uow.Bus().Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, trader.CloseTradeEvent{Currency: "USD", Sentiment: domain.Bullish}, pending[0].Event)
	fe, ok := pending[1].Event.(trader.FundamentalEvent)
	require.True(t, ok)
	assert.Equal(t, "USD", fe.Currency)
	assert.True(t, fe.LastUpdated.Equal(at))

	// A re-run of the same day publishes nothing new.
	require.NoError(t, e.runner.FetchFundamentals(ctx, testNow))
	assert.Len(t, e.uow.Bus().Pending(), 2)
	assert.Equal(t, 2, e.scraper.Calls)
}

func TestFetchFundamentalsCompletesOnLaterScrape(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	at := testNow.Add(-30 * time.Minute)
	items := calendarItems(at)[3:]
	e.scraper.SetItems(items...)
	ctx := context.Background()
	require.NoError(t, e.runner.FetchFundamentals(ctx, testNow))
	assert.Empty(t, e.uow.Bus().Pending())

	items[0].Event.Actual = f(40.7)
	items[0].Event.Sentiment = domain.Bullish
	e.scraper.SetItems(items...)
	require.NoError(t, e.runner.FetchFundamentals(ctx, testNow))

	cad := e.fundamental(t, "CAD", at)
	assert.True(t, cad.Processed)
	assert.Equal(t, domain.Bullish, cad.AggregateSentiment)
	assert.Len(t, e.uow.Bus().Pending(), 2)
}

func TestFetchFundamentalsFlatAggregateOnlyNotifies(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	at := testNow.Add(-time.Hour)
	e.scraper.SetItems(scraper.Item{Currency: "JPY", Timestamp: at, Event: domain.CalendarEvent{
		CalendarEvent: "Household Spending y/y", Sentiment: domain.Flat, Forecast: f(-2), Actual: f(-2), Previous: f(-2.5)}})

	require.NoError(t, e.runner.FetchFundamentals(context.Background(), testNow))
	pending := e.uow.Bus().Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, trader.KindFundamental, pending[0].Kind())
}

var errDiskFull = errors.New("disk full")

// failProcessed rejects saves that mark a fundamental processed.
type failProcessed struct{ store.Connector }

func (c failProcessed) Connect(ctx context.Context) (store.Session, error) {
	sess, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return failProcessedSession{sess}, nil
}

type failProcessedSession struct{ store.Session }

func (s failProcessedSession) Fundamentals() store.FundamentalRepository {
	return failProcessedRepo{s.Session.Fundamentals()}
}

type failProcessedRepo struct{ store.FundamentalRepository }

func (r failProcessedRepo) Save(ctx context.Context, fd *domain.FundamentalData) error {
	if fd.Processed {
		return errDiskFull
	}
	return r.FundamentalRepository.Save(ctx, fd)
}

func TestFetchFundamentalsPublishesNothingWhenMarkFails(t *testing.T) {
	e := newEnvWith(t, Config{}, nil, func(c store.Connector) store.Connector { return failProcessed{c} })
	at := testNow.Add(-30 * time.Minute)
	e.scraper.SetItems(calendarItems(at)...)

	err := e.runner.FetchFundamentals(context.Background(), testNow)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, e.uow.Bus().Pending())
	assert.False(t, e.fundamental(t, "USD", at).Processed)
}

// unseeded returns items without creating their records.
type unseeded struct{ items []scraper.Item }

func (unseeded) SetParams(time.Time)                {}
func (unseeded) MakeRequest(context.Context) error { return nil }
func (u unseeded) ScrapedCalendarItems(context.Context, store.FundamentalRepository) ([]scraper.Item, error) {
	return u.items, nil
}

func TestFetchFundamentalsMissingRecordAborts(t *testing.T) {
	e := newEnv(t, Config{}, unseeded{items: calendarItems(testNow)})
	err := e.runner.FetchFundamentals(context.Background(), testNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, e.uow.Bus().Pending())
}

func TestFetchFundamentalsSkipsWeekends(t *testing.T) {
	e := newEnv(t, Config{WeekdaysOnly: true}, nil)
	saturday := time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)
	require.NoError(t, e.runner.FetchFundamentals(context.Background(), saturday))
	assert.Zero(t, e.scraper.Calls)
}

func TestExpireStaleFundamentals(t *testing.T) {
	e := newEnv(t, Config{StaleAfter: 10 * time.Minute}, nil)
	old := testNow.Add(-20 * time.Minute)
	fresh := testNow.Add(-5 * time.Minute)
	ctx := context.Background()
	require.NoError(t, e.uow.Do(ctx, func(s *trader.Scope) error {
		if err := s.Fundamentals().Save(ctx, domain.NewFundamentalData("EUR", old)); err != nil {
			return err
		}
		return s.Fundamentals().Save(ctx, domain.NewFundamentalData("EUR", fresh))
	}))

	require.NoError(t, e.runner.ExpireStaleFundamentals(ctx, testNow))
	assert.True(t, e.fundamental(t, "EUR", old).Processed)
	assert.False(t, e.fundamental(t, "EUR", fresh).Processed)
}
