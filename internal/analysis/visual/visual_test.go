package visual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxbot/internal/market"
)

func candles(n int) []market.Candle {
	start := time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)
	out := make([]market.Candle, n)
	for i := range out {
		px := 1.08 + float64(i%7)*0.0004
		out[i] = market.Candle{Time: start.Add(time.Duration(i) * 5 * time.Minute), Open: px, High: px + 0.0005, Low: px - 0.0005, Close: px + 0.0001, Complete: true}
	}
	return out
}

func TestRenderWithOverlays(t *testing.T) {
	page, err := Render(CandleChart{Pair: "EUR/USD", Period: market.M5, Candles: candles(40), SMAPeriod: 10, BollingerPeriod: 20})
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "SMA 10")
	assert.Contains(t, html, "BB upper")
}

func TestRenderSkipsOverlaysThatDoNotFit(t *testing.T) {
	page, err := Render(CandleChart{Pair: "EUR/USD", Period: market.M5, Candles: candles(5), SMAPeriod: 10})
	require.NoError(t, err)
	assert.NotContains(t, string(page), "SMA 10")
}

func TestRenderEmpty(t *testing.T) {
	_, err := Render(CandleChart{Pair: "EUR/USD", Period: market.M5})
	assert.Error(t, err)
}
