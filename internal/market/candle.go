package market

import "time"

// Candle is one mid-price bar.
type Candle struct {
	Time     time.Time `json:"time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Complete bool      `json:"complete"`
}

// Granularity is a broker candle period such as M5 or H1.
type Granularity string

const (
	M1  Granularity = "M1"
	M5  Granularity = "M5"
	M15 Granularity = "M15"
	M30 Granularity = "M30"
	H1  Granularity = "H1"
	H4  Granularity = "H4"
	D   Granularity = "D"
)

// Duration returns the bar length, or 0 for unknown granularities.
func (g Granularity) Duration() time.Duration {
	switch g {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case M30:
		return 30 * time.Minute
	case H1:
		return time.Hour
	case H4:
		return 4 * time.Hour
	case D:
		return 24 * time.Hour
	default:
		return 0
	}
}

// DropIncomplete trims a trailing in-progress bar. Indicator signals are
// evaluated on closed bars only.
func DropIncomplete(candles []Candle) []Candle {
	if n := len(candles); n > 0 && !candles[n-1].Complete {
		return candles[:n-1]
	}
	return candles
}
