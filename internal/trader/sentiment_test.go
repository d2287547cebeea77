package trader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
)

func fd(currency string, at time.Time, agg domain.Sentiment, processed bool) *domain.FundamentalData {
	out := domain.NewFundamentalData(currency, at)
	out.AggregateSentiment = agg
	out.Processed = processed
	return out
}

func TestCombineSentiment(t *testing.T) {
	early := testNow.Add(-2 * time.Hour)
	late := testNow
	cases := []struct {
		name      string
		technical domain.Sentiment
		base      *domain.FundamentalData
		quote     *domain.FundamentalData
		want      domain.Sentiment
	}{
		{"no fundamentals", domain.Bullish, nil, nil, domain.Flat},
		{"base latest bullish", domain.Bullish, fd("EUR", late, domain.Bullish, true), fd("USD", early, domain.Bullish, true), domain.Bullish},
		{"base latest flat allows buy", domain.Bullish, fd("EUR", late, domain.Flat, true), nil, domain.Bullish},
		{"base latest bearish blocks buy", domain.Bullish, fd("EUR", late, domain.Bearish, true), nil, domain.Flat},
		{"quote latest bullish blocks buy", domain.Bullish, fd("EUR", early, domain.Bullish, true), fd("USD", late, domain.Bullish, true), domain.Flat},
		{"quote latest bearish allows buy", domain.Bullish, nil, fd("USD", late, domain.Bearish, true), domain.Bullish},
		{"sell with base bearish", domain.Bearish, fd("GBP", late, domain.Bearish, true), nil, domain.Bearish},
		{"sell blocked by quote bearish", domain.Bearish, fd("GBP", early, domain.Bearish, true), fd("USD", late, domain.Bearish, true), domain.Flat},
		{"latest unprocessed is flat", domain.Bullish, fd("USD", early, domain.Bullish, true), fd("CAD", late, domain.Bearish, false), domain.Flat},
		{"tie goes to base", domain.Bullish, fd("EUR", late, domain.Flat, true), fd("USD", late, domain.Bullish, true), domain.Bullish},
		{"flat technical", domain.Flat, fd("EUR", late, domain.Bullish, true), nil, domain.Flat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CombineSentiment(tc.technical, tc.base, tc.quote))
		})
	}
}

func TestCombinedSentimentLoadsLatest(t *testing.T) {
	u, _ := newTestUoW(t, Options{})
	seedFundamental(t, u, "USD", testNow.Add(-3*time.Hour), domain.Bearish, true)
	seedFundamental(t, u, "USD", testNow.Add(-time.Hour), domain.Bullish, true)
	seedFundamental(t, u, "CAD", testNow, domain.Bearish, false)

	ctx := context.Background()
	require.NoError(t, u.Do(ctx, func(s *Scope) error {
		got, err := CombinedSentiment(ctx, s.Fundamentals(), domain.Bullish, "USD", "CAD")
		require.NoError(t, err)
		assert.Equal(t, domain.Flat, got)

		got, err = CombinedSentiment(ctx, s.Fundamentals(), domain.Bullish, "USD", "CHF")
		require.NoError(t, err)
		assert.Equal(t, domain.Bullish, got)
		return nil
	}))
}
