package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxbot/internal/domain"
)

func TestComputeRiskMatchesStopLossValue(t *testing.T) {
	calc := NewCalculator(0.02, 10000)
	cases := []struct {
		name string
		in   Input
	}{
		{"eurusd buy", Input{ForexPair: "EUR/USD", Sentiment: domain.Bullish, Close: 1.0850, Stop: 1.0820, Balance: 10000, QuoteRate: 1.27}},
		{"usdjpy sell", Input{ForexPair: "USD/JPY", Sentiment: domain.Bearish, Close: 151.20, Stop: 151.85, Balance: 25000, QuoteRate: 190.5}},
		{"gbpusd tight", Input{ForexPair: "GBP/USD", Sentiment: domain.Bullish, Close: 1.2710, Stop: 1.2702, Balance: 5000, QuoteRate: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := calc.Compute(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.in.Sentiment == domain.Bullish, p.IsBuy)
			assert.InDelta(t, tc.in.Balance*0.02, p.RiskAmount, 1e-9)

			// Truncation loses at most one unit.
			got := float64(p.Units) * p.StopLossValue / calc.LotScaling
			assert.InDelta(t, p.RiskAmount, got, p.StopLossValue/calc.LotScaling+1e-9)
		})
	}
}

func TestComputeValues(t *testing.T) {
	calc := NewCalculator(0, 0)
	p, err := calc.Compute(Input{
		ForexPair: "EUR/USD", Sentiment: domain.Bullish,
		Close: 1.1000, Stop: 1.09504, Balance: 10000, QuoteRate: 1.25,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0001, p.Pip)
	assert.InDelta(t, 49.6, p.StopLossPips, 1e-6)
	assert.InDelta(t, 8.0, p.AdjustedPipVal, 1e-9)
	assert.Equal(t, 1.095, p.Stop)
	// 200 / (49.6 * 8) * 10000 = 5040.32...
	assert.Equal(t, int64(5040), p.Units)
}

func TestComputeJPYRounding(t *testing.T) {
	p, err := NewCalculator(0.02, 10000).Compute(Input{
		ForexPair: "USD/JPY", Sentiment: domain.Bearish,
		Close: 150.00, Stop: 150.5049, Balance: 10000, QuoteRate: 150,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.01, p.Pip)
	assert.Equal(t, 150.5, p.Stop)
	assert.False(t, p.IsBuy)
}

func TestComputeRejects(t *testing.T) {
	calc := NewCalculator(0.02, 10000)
	_, err := calc.Compute(Input{ForexPair: "EUR/USD", Sentiment: domain.Flat, Close: 1, Stop: 0.99, Balance: 1, QuoteRate: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidTradeParameter)

	_, err = calc.Compute(Input{ForexPair: "EUR/USD", Sentiment: domain.Bullish, Close: 1, Balance: 1, QuoteRate: 1})
	assert.ErrorIs(t, err, domain.ErrNoStopDefined)

	_, err = calc.Compute(Input{ForexPair: "EUR/USD", Sentiment: domain.Bullish, Close: 1.1, Stop: 1.1, Balance: 1000, QuoteRate: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidTradeParameter)

	_, err = calc.Compute(Input{ForexPair: "EURUSD", Sentiment: domain.Bullish, Close: 1.1, Stop: 1.0, Balance: 1000, QuoteRate: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidTradeParameter)
}

func TestConversionPair(t *testing.T) {
	got, err := ConversionPair("EUR/USD", "GBP", nil)
	require.NoError(t, err)
	assert.Equal(t, "GBP/USD", got)

	got, err = ConversionPair("EUR/GBP", "GBP", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ConversionPair("usd/jpy", "GBP", map[string]string{"USD/JPY": "gbp/jpy"})
	require.NoError(t, err)
	assert.Equal(t, "GBP/JPY", got)
}
