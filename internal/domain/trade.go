package domain

import (
	"fmt"
	"strings"
	"time"
)

// Trade is the local record of one broker position. TradeID is assigned by
// the broker.
type Trade struct {
	TradeID        string
	Units          int64
	Stop           float64
	Limit          *float64
	IsBuy          bool
	BaseCurrency   string
	QuoteCurrency  string
	ForexPair      string
	Close          float64
	NewClose       *float64
	RealisedPL     *float64
	IsWinner       bool
	Position       Position
	InitiatedDate  time.Time
	SLPips         float64
	HalfSpreadCost float64
}

// Validate checks the pair/currency invariant and the required fields.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.TradeID) == "" {
		return fmt.Errorf("%w: empty trade id", ErrInvalidTradeParameter)
	}
	base, quote, err := SplitPair(t.ForexPair)
	if err != nil {
		return err
	}
	if !strings.EqualFold(base, t.BaseCurrency) || !strings.EqualFold(quote, t.QuoteCurrency) {
		return fmt.Errorf("%w: pair %s does not match %s/%s", ErrInvalidTradeParameter,
			t.ForexPair, t.BaseCurrency, t.QuoteCurrency)
	}
	switch t.Position {
	case PositionOpen, PositionClosed:
	default:
		return fmt.Errorf("%w: position %q", ErrInvalidTradeParameter, t.Position)
	}
	return nil
}

func (t Trade) IsOpen() bool { return t.Position == PositionOpen }

// MarkClosed transitions OPEN -> CLOSED once, recording the realised P&L.
func (t *Trade) MarkClosed(realisedPL float64) error {
	if t.Position == PositionClosed {
		return fmt.Errorf("%w: %s", ErrTradeClosed, t.TradeID)
	}
	pl := realisedPL
	t.RealisedPL = &pl
	t.IsWinner = pl > 0
	t.Position = PositionClosed
	return nil
}

// Sentiment is the trade's bias on the pair.
func (t Trade) Sentiment() Sentiment {
	if t.IsBuy {
		return Bullish
	}
	return Bearish
}

// Protected reports whether the stop has been ratcheted at least once.
func (t Trade) Protected() bool {
	return t.NewClose != nil
}
