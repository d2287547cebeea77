package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]string{
		"EUR/USD":  "EUR/USD",
		"eur_usd":  "EUR/USD",
		"gbp-jpy":  "GBP/JPY",
		"USDCAD":   "USD/CAD",
		"USD/CADX": "",
		"BTC":      "",
		"":         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestOandaConverter(t *testing.T) {
	assert.Equal(t, "EUR_USD", Oanda.ToBroker("eur/usd"))
	assert.Equal(t, "USD/JPY", Oanda.FromBroker("USD_JPY"))
	assert.Equal(t, FormatOanda, Oanda.Format())
	var _ Converter = Oanda
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"EUR_USD", "eur/usd", "bad", "GBPUSD"})
	assert.Equal(t, []string{"EUR/USD", "GBP/USD"}, got)
	assert.True(t, IsValid("AUD/NZD"))
	assert.False(t, IsValid("AUD"))
}
