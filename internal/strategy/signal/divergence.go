// Package signal turns indicator columns into a directional trade signal.
// The indicator math lives in analysis/indicator; only thresholds and the
// combination rule live here.
package signal

import (
	"fmt"

	"fxbot/internal/analysis/indicator"
	"fxbot/internal/domain"
	"fxbot/internal/market"
)

// Config holds the divergence thresholds.
type Config struct {
	SMAPeriod         int
	RSIPeriod         int
	ATRPeriod         int
	ADXPeriod         int
	BollingerPeriod   int
	Oversold          float64
	Overbought        float64
	StopATRMultiplier float64
	// MinADX filters out signals in trendless markets; 0 disables it.
	MinADX float64
}

func DefaultConfig() Config {
	return Config{
		SMAPeriod:         10,
		RSIPeriod:         14,
		ATRPeriod:         14,
		ADXPeriod:         14,
		BollingerPeriod:   5,
		Oversold:          30,
		Overbought:        70,
		StopATRMultiplier: 2.5,
	}
}

// Signal is the evaluation of the last bar.
type Signal struct {
	Sentiment domain.Sentiment
	Close     float64
	Stop      float64
	RSI       float64
	ATR       float64
	Momentum  float64
}

// Prepare adds every column Evaluate reads.
func (c Config) Prepare(s *market.Series) error {
	steps := []func() error{
		func() error { return indicator.AddSMA(s, c.SMAPeriod) },
		func() error { return indicator.AddMomentum(s) },
		func() error { return indicator.AddRSI(s, c.RSIPeriod) },
		func() error { return indicator.AddATR(s, c.ATRPeriod) },
		func() error { return indicator.AddADX(s, c.ADXPeriod) },
		func() error { return indicator.AddBollinger(s, c.BollingerPeriod, 2) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate applies the divergence rule on the last bar:
// bullish when close fell, momentum (close - SMA) rose and RSI is oversold;
// bearish is the mirror with RSI overbought. The stop sits
// StopATRMultiplier ATRs beyond close.
func (c Config) Evaluate(s *market.Series) (Signal, error) {
	if s.Len() < 2 {
		return Signal{}, fmt.Errorf("divergence: need at least 2 candles")
	}
	closes := s.Closes()
	last, prev := closes[len(closes)-1], closes[len(closes)-2]

	mom, ok1 := s.Value(indicator.ColMomentum, -1)
	momPrev, ok2 := s.Value(indicator.ColMomentum, -2)
	rsi, ok3 := s.Value(indicator.ColRSI, -1)
	atr, ok4 := s.Value(indicator.ColATR, -1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Signal{}, fmt.Errorf("divergence: indicator columns missing, call Prepare first")
	}

	out := Signal{Sentiment: domain.Flat, Close: last, RSI: rsi, ATR: atr, Momentum: mom}
	if c.MinADX > 0 {
		if adx, ok := s.Value(indicator.ColADX, -1); !ok || adx < c.MinADX {
			return out, nil
		}
	}
	k := c.StopATRMultiplier
	switch {
	case last < prev && mom > momPrev && rsi < c.Oversold:
		out.Sentiment = domain.Bullish
		out.Stop = last - k*atr
	case last > prev && mom < momPrev && rsi > c.Overbought:
		out.Sentiment = domain.Bearish
		out.Stop = last + k*atr
	}
	return out, nil
}
