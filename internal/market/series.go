package market

import (
	"fmt"
	"sort"
)

// Series is a candle slice augmented with named indicator columns. Every
// column has the same length as Candles.
type Series struct {
	Candles []Candle
	columns map[string][]float64
}

func NewSeries(candles []Candle) *Series {
	return &Series{Candles: candles, columns: make(map[string][]float64)}
}

func (s *Series) Len() int { return len(s.Candles) }

func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}

// Set stores a column; its length must match the candle count.
func (s *Series) Set(name string, values []float64) error {
	if len(values) != len(s.Candles) {
		return fmt.Errorf("column %s: %d values for %d candles", name, len(values), len(s.Candles))
	}
	if s.columns == nil {
		s.columns = make(map[string][]float64)
	}
	s.columns[name] = values
	return nil
}

func (s *Series) Column(name string) ([]float64, bool) {
	v, ok := s.columns[name]
	return v, ok
}

// Value returns column[name] at index i; negative i counts from the end.
func (s *Series) Value(name string, i int) (float64, bool) {
	col, ok := s.columns[name]
	if !ok || len(col) == 0 {
		return 0, false
	}
	if i < 0 {
		i += len(col)
	}
	if i < 0 || i >= len(col) {
		return 0, false
	}
	return col[i], true
}

// Last returns the last candle.
func (s *Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

func (s *Series) ColumnNames() []string {
	names := make([]string, 0, len(s.columns))
	for k := range s.columns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
