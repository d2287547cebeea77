package scraper

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
	"fxbot/internal/store"
	"fxbot/internal/store/sqlite"
)

const fixtureRows = `[
 {"day_breaker":true,"time":"","currency":"","event":"","impact":"","actual":"","actual_class":"","forecast":"","previous":""},
 {"day_breaker":false,"time":"8:30am","currency":"USD","event":"Non-Farm Employment Change","impact":"calendar__cell calendar__impact calendar__impact--high","actual":"275K","actual_class":"better","forecast":"198K","previous":"229K"},
 {"day_breaker":false,"time":"","currency":"USD","event":"Unemployment Rate","impact":"calendar__cell calendar__impact icon icon--ff-impact-red","actual":"3.9%","actual_class":"worse","forecast":"3.7%","previous":"3.7%"},
 {"day_breaker":false,"time":"","currency":"CAD","event":"Employment Change","impact":"calendar__impact icon--ff-impact-red","actual":"","actual_class":"","forecast":"20.3K","previous":"37.3K"},
 {"day_breaker":false,"time":"10:00am","currency":"USD","event":"Wholesale Inventories m/m","impact":"calendar__impact calendar__impact--low","actual":"-0.3%","actual_class":"","forecast":"-0.1%","previous":"0.4%"},
 {"day_breaker":false,"time":"All Day","currency":"EUR","event":"Bank Holiday","impact":"calendar__impact--high","actual":"","actual_class":"","forecast":"","previous":""},
 {"day_breaker":false,"time":"11:00am","currency":"XAU","event":"Gold thing","impact":"calendar__impact--high","actual":"1","actual_class":"","forecast":"1","previous":"1"},
 {"day_breaker":false,"time":"12:00pm","currency":"GBP","event":123}
]`

func newTestScraper(t *testing.T) *ForexFactory {
	t.Helper()
	f, err := NewForexFactory(ForexFactoryConfig{BaseURL: "http://calendar.test/calendar"})
	require.NoError(t, err)
	f.fetch = func(ctx context.Context, url string) ([]byte, error) {
		assert.Equal(t, "http://calendar.test/calendar?day=Mar08.2024", url)
		return []byte(fixtureRows), nil
	}
	return f
}

func TestParseRows(t *testing.T) {
	f := newTestScraper(t)
	day := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	items, err := f.parseRows([]byte(fixtureRows), day)
	require.NoError(t, err)
	require.Len(t, items, 3)

	nfp := items[0]
	assert.Equal(t, "USD", nfp.Currency)
	assert.Equal(t, "Non-Farm Employment Change", nfp.Event.CalendarEvent)
	assert.Equal(t, domain.Bullish, nfp.Event.Sentiment)
	require.NotNil(t, nfp.Event.Actual)
	assert.Equal(t, 275.0, *nfp.Event.Actual)
	assert.Equal(t, time.Date(2024, 3, 8, 8, 30, 0, 0, time.UTC), nfp.Timestamp)

	unemployment := items[1]
	assert.Equal(t, domain.Bearish, unemployment.Event.Sentiment)
	assert.Equal(t, nfp.Timestamp, unemployment.Timestamp)

	cad := items[2]
	assert.Equal(t, "CAD", cad.Currency)
	assert.Nil(t, cad.Event.Actual)
	assert.Equal(t, domain.Flat, cad.Event.Sentiment)
	assert.False(t, cad.Event.Complete())
}

func TestScrapedCalendarItemsSeedsRecords(t *testing.T) {
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "fx.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	sess, err := st.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	f := newTestScraper(t)
	_, err = f.ScrapedCalendarItems(ctx, sess.Fundamentals())
	assert.Error(t, err)

	f.SetParams(time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC))
	require.NoError(t, f.MakeRequest(ctx))
	items, err := f.ScrapedCalendarItems(ctx, sess.Fundamentals())
	require.NoError(t, err)
	require.Len(t, items, 3)

	all, err := sess.Fundamentals().GetAll(ctx, store.FundamentalFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "USD 8:30 shared by two prints, CAD 8:30")
	for _, fd := range all {
		assert.Empty(t, fd.CalendarEvents)
		assert.False(t, fd.Processed)
	}

	_, err = f.ScrapedCalendarItems(ctx, sess.Fundamentals())
	require.NoError(t, err)
	again, err := sess.Fundamentals().GetAll(ctx, store.FundamentalFilter{})
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestMakeRequestNeedsParams(t *testing.T) {
	f, err := NewForexFactory(ForexFactoryConfig{})
	require.NoError(t, err)
	assert.Error(t, f.MakeRequest(context.Background()))
}

func TestParseImpact(t *testing.T) {
	assert.Equal(t, ImpactHigh, ParseImpact("calendar__impact calendar__impact--high"))
	assert.Equal(t, ImpactMedium, ParseImpact("icon icon--ff-impact-ora"))
	assert.Equal(t, ImpactLow, ParseImpact("calendar__impact--low"))
	assert.Equal(t, ImpactUnknown, ParseImpact("calendar__impact"))
}

func TestParseNumber(t *testing.T) {
	cases := map[string]*float64{
		"0.3%":  ptr(0.3),
		"215K":  ptr(215),
		"-1.2B": ptr(-1.2),
		"<0.5%": ptr(0.5),
		"":      nil,
		"-":     nil,
	}
	for in, want := range cases {
		got := ParseNumber(in)
		if want == nil {
			assert.Nil(t, got, in)
			continue
		}
		require.NotNil(t, got, in)
		assert.InDelta(t, *want, *got, 1e-9, in)
	}
}

func TestDayURL(t *testing.T) {
	assert.Equal(t, "https://x/calendar?day=Jan05.2024", DayURL("https://x/calendar/", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestStaticSeedsAndStamps(t *testing.T) {
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "fx.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	sess, err := st.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	s := NewStatic(Item{Currency: "USD", Event: domain.CalendarEvent{CalendarEvent: "mock_event", Sentiment: domain.Bullish}})
	day := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	s.SetParams(day)
	require.NoError(t, s.MakeRequest(ctx))
	items, err := s.ScrapedCalendarItems(ctx, sess.Fundamentals())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, day, items[0].Timestamp)
	_, err = sess.Fundamentals().GetFundamentalData(ctx, "USD", day)
	assert.NoError(t, err)
	assert.Equal(t, 1, s.Calls)
}

func ptr(v float64) *float64 { return &v }
