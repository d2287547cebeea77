package domain

import (
	"fmt"
	"strings"
)

// Sentiment is the directional bias of a currency, pair or calendar print.
type Sentiment string

const (
	Bullish Sentiment = "BULLISH"
	Bearish Sentiment = "BEARISH"
	Flat    Sentiment = "FLAT"
)

// ParseSentiment is lenient about case and maps anything unknown to FLAT.
func ParseSentiment(s string) Sentiment {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Bullish), "BETTER":
		return Bullish
	case string(Bearish), "WORSE":
		return Bearish
	default:
		return Flat
	}
}

// Opposite flips BULLISH and BEARISH; FLAT stays FLAT.
func (s Sentiment) Opposite() Sentiment {
	switch s {
	case Bullish:
		return Bearish
	case Bearish:
		return Bullish
	default:
		return Flat
	}
}

func (s Sentiment) IsDirectional() bool {
	return s == Bullish || s == Bearish
}

// Position is the lifecycle state of a trade.
type Position string

const (
	PositionOpen   Position = "OPEN"
	PositionClosed Position = "CLOSED"
)

// SplitPair splits "EUR/USD" into its base and quote currencies.
func SplitPair(pair string) (base, quote string, err error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(pair)), "/")
	if len(parts) != 2 || len(parts[0]) != 3 || len(parts[1]) != 3 {
		return "", "", fmt.Errorf("%w: forex pair %q", ErrInvalidTradeParameter, pair)
	}
	return parts[0], parts[1], nil
}

// JoinPair is the inverse of SplitPair.
func JoinPair(base, quote string) string {
	return strings.ToUpper(base) + "/" + strings.ToUpper(quote)
}

// Pip is the smallest standard price increment: 0.01 when either side is JPY.
func Pip(currencies ...string) float64 {
	for _, c := range currencies {
		if strings.EqualFold(c, "JPY") {
			return 0.01
		}
	}
	return 0.0001
}

// PipDecimals is the number of decimal places of Pip(currencies...).
func PipDecimals(currencies ...string) int32 {
	if Pip(currencies...) == 0.01 {
		return 2
	}
	return 4
}
