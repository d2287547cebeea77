package exit

import (
	"math"

	"github.com/shopspring/decimal"
)

var decimalZero = decimal.Zero

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimalZero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// tightens reports whether candidate reduces risk relative to current:
// higher for a long, lower for a short.
func tightens(isBuy bool, candidate, current decimal.Decimal) bool {
	if isBuy {
		return candidate.GreaterThan(current)
	}
	return candidate.LessThan(current)
}

// crossed reports whether price has gone through the stop.
func crossed(isBuy bool, stop, price decimal.Decimal) bool {
	if isBuy {
		return stop.GreaterThan(price)
	}
	return stop.LessThan(price)
}

// worseThanEntry reports whether stop would realise a loss against entry.
func worseThanEntry(isBuy bool, stop, entry decimal.Decimal) bool {
	if isBuy {
		return stop.LessThan(entry)
	}
	return stop.GreaterThan(entry)
}
