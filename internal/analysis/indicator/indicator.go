package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"fxbot/internal/market"
)

// Column names written into a market.Series.
const (
	ColSMA        = "sma"
	ColRSI        = "rsi"
	ColATR        = "atr"
	ColADX        = "adx"
	ColMACD       = "macd"
	ColMACDSignal = "macd_signal"
	ColMACDHist   = "macd_hist"
	ColBBUpper    = "bb_upper"
	ColBBMiddle   = "bb_middle"
	ColBBLower    = "bb_lower"
	ColMomentum   = "momentum"
)

func requireLen(s *market.Series, period int, name string) error {
	if s == nil || s.Len() == 0 {
		return fmt.Errorf("%s: no candles", name)
	}
	if period <= 0 {
		return fmt.Errorf("%s: period must be > 0", name)
	}
	if s.Len() <= period {
		return fmt.Errorf("%s: need more than %d candles, have %d", name, period, s.Len())
	}
	return nil
}

// AddSMA adds a simple moving average of closes.
func AddSMA(s *market.Series, period int) error {
	if err := requireLen(s, period, "sma"); err != nil {
		return err
	}
	return s.Set(ColSMA, sanitizeSeries(talib.Sma(s.Closes(), period)))
}

// AddRSI adds Wilder's RSI of closes.
func AddRSI(s *market.Series, period int) error {
	if err := requireLen(s, period, "rsi"); err != nil {
		return err
	}
	return s.Set(ColRSI, sanitizeSeries(talib.Rsi(s.Closes(), period)))
}

// AddATR adds the average true range.
func AddATR(s *market.Series, period int) error {
	if err := requireLen(s, period, "atr"); err != nil {
		return err
	}
	return s.Set(ColATR, sanitizeSeries(talib.Atr(s.Highs(), s.Lows(), s.Closes(), period)))
}

// AddADX adds the average directional index.
func AddADX(s *market.Series, period int) error {
	if err := requireLen(s, 2*period, "adx"); err != nil {
		return err
	}
	return s.Set(ColADX, sanitizeSeries(talib.Adx(s.Highs(), s.Lows(), s.Closes(), period)))
}

// AddMACD adds the MACD line, its signal line and histogram.
func AddMACD(s *market.Series, fast, slow, signal int) error {
	if err := requireLen(s, slow+signal, "macd"); err != nil {
		return err
	}
	macd, sig, hist := talib.Macd(s.Closes(), fast, slow, signal)
	if err := s.Set(ColMACD, sanitizeSeries(macd)); err != nil {
		return err
	}
	if err := s.Set(ColMACDSignal, sanitizeSeries(sig)); err != nil {
		return err
	}
	return s.Set(ColMACDHist, sanitizeSeries(hist))
}

// AddBollinger adds SMA-based Bollinger bands.
func AddBollinger(s *market.Series, period int, dev float64) error {
	if err := requireLen(s, period, "bollinger"); err != nil {
		return err
	}
	upper, middle, lower := talib.BBands(s.Closes(), period, dev, dev, talib.SMA)
	if err := s.Set(ColBBUpper, sanitizeSeries(upper)); err != nil {
		return err
	}
	if err := s.Set(ColBBMiddle, sanitizeSeries(middle)); err != nil {
		return err
	}
	return s.Set(ColBBLower, sanitizeSeries(lower))
}

// AddMomentum adds close minus its SMA. Requires AddSMA first.
func AddMomentum(s *market.Series) error {
	sma, ok := s.Column(ColSMA)
	if !ok {
		return fmt.Errorf("momentum: sma column missing")
	}
	closes := s.Closes()
	out := make([]float64, len(closes))
	for i := range closes {
		if sma[i] == 0 {
			continue
		}
		out[i] = closes[i] - sma[i]
	}
	return s.Set(ColMomentum, out)
}

// sanitizeSeries keeps length and replaces NaN/Inf with zero.
func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = v
	}
	return out
}
