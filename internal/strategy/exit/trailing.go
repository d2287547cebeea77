// Package exit holds the ATR trailing-stop state machine applied to every
// open trade on each management cycle.
package exit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const DefaultATRMultiplier = 3.0

// Position is the subset of a trade the trailing stop needs.
type Position struct {
	IsBuy          bool
	Entry          float64
	Stop           float64
	HalfSpreadCost float64
	// PriceDecimals rounds candidate stops; 0 means 5.
	PriceDecimals int32
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Candidate float64
	Moved     bool
	NewStop   float64
	Close     bool
}

// Trailer ratchets stops k*ATR (plus the half spread) behind price.
type Trailer struct {
	Multiplier float64
}

func NewTrailer(multiplier float64) Trailer {
	if multiplier <= 0 {
		multiplier = DefaultATRMultiplier
	}
	return Trailer{Multiplier: multiplier}
}

// Evaluate computes the next stop for p given the latest close and ATR.
// The candidate is close - half_spread - k*atr for a long (mirrored for a
// short) and is accepted only when it strictly tightens the stop. After
// any ratchet the stop is checked against close. A crossed stop asks the
// caller to close the position only while the stop is still worse than
// entry. Evaluate is pure, so running it twice on
// the result of the first call yields Moved=false.
func (tr Trailer) Evaluate(p Position, close, atr float64) (Decision, error) {
	if close <= 0 {
		return Decision{}, fmt.Errorf("trailing stop: invalid close %v", close)
	}
	if atr < 0 {
		return Decision{}, fmt.Errorf("trailing stop: invalid atr %v", atr)
	}
	if p.Entry <= 0 {
		return Decision{}, fmt.Errorf("trailing stop: invalid entry %v", p.Entry)
	}
	k := tr.Multiplier
	if k <= 0 {
		k = DefaultATRMultiplier
	}
	decimals := p.PriceDecimals
	if decimals <= 0 {
		decimals = 5
	}

	price := decFromFloat(close)
	offset := decFromFloat(p.HalfSpreadCost).Add(decFromFloat(k).Mul(decFromFloat(atr)))
	var candidate decimal.Decimal
	if p.IsBuy {
		candidate = price.Sub(offset)
	} else {
		candidate = price.Add(offset)
	}
	candidate = candidate.Round(decimals)

	stop := decFromFloat(p.Stop)
	d := Decision{Candidate: decToFloat(candidate), NewStop: p.Stop}
	if atr > 0 && candidate.IsPositive() && tightens(p.IsBuy, candidate, stop) {
		stop = candidate
		d.Moved = true
		d.NewStop = decToFloat(candidate)
	}
	d.Close = crossed(p.IsBuy, stop, price) && worseThanEntry(p.IsBuy, stop, decFromFloat(p.Entry))
	return d, nil
}
