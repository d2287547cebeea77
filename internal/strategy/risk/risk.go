// Package risk sizes positions so that a loss at the stop equals a fixed
// fraction of the account balance in account currency.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"fxbot/internal/domain"
)

const (
	DefaultFraction   = 0.02
	DefaultLotScaling = 10000
	standardLot       = 100000
)

// Calculator holds the account-level sizing settings.
type Calculator struct {
	Fraction   float64
	LotScaling float64
}

func NewCalculator(fraction, lotScaling float64) Calculator {
	if fraction <= 0 {
		fraction = DefaultFraction
	}
	if lotScaling <= 0 {
		lotScaling = DefaultLotScaling
	}
	return Calculator{Fraction: fraction, LotScaling: lotScaling}
}

// Input is everything the sizing formula needs. QuoteRate converts one
// unit of the quote currency into the account currency.
type Input struct {
	ForexPair string
	Sentiment domain.Sentiment
	Stop      float64
	Close     float64
	Balance   float64
	QuoteRate float64
}

// Params is the sized order.
type Params struct {
	IsBuy          bool
	Units          int64
	Stop           float64
	StopLossPips   float64
	RiskAmount     float64
	StopLossValue  float64
	AdjustedPipVal float64
	Pip            float64
}

// Compute applies the sizing formula. Units are truncated toward zero.
func (c Calculator) Compute(in Input) (Params, error) {
	base, quote, err := domain.SplitPair(in.ForexPair)
	if err != nil {
		return Params{}, err
	}
	if !in.Sentiment.IsDirectional() {
		return Params{}, fmt.Errorf("%w: sentiment %s", domain.ErrInvalidTradeParameter, in.Sentiment)
	}
	if in.Stop <= 0 {
		return Params{}, domain.ErrNoStopDefined
	}
	if in.QuoteRate <= 0 || in.Balance <= 0 || in.Close <= 0 {
		return Params{}, fmt.Errorf("%w: rate=%v balance=%v close=%v", domain.ErrInvalidTradeParameter,
			in.QuoteRate, in.Balance, in.Close)
	}
	if c.Fraction <= 0 || c.LotScaling <= 0 {
		c = NewCalculator(c.Fraction, c.LotScaling)
	}

	pip := domain.Pip(base, quote)
	stopLossPips := math.Abs(in.Close-in.Stop) / pip
	if stopLossPips == 0 {
		return Params{}, fmt.Errorf("%w: stop equals close", domain.ErrInvalidTradeParameter)
	}
	riskAmount := in.Balance * c.Fraction
	adjustedPipValue := standardLot * pip / in.QuoteRate
	stopLossValue := stopLossPips * adjustedPipValue
	units := int64((riskAmount / stopLossValue) * c.LotScaling)
	if units <= 0 {
		return Params{}, fmt.Errorf("%w: position size rounds to zero", domain.ErrInvalidTradeParameter)
	}

	stop, _ := decimal.NewFromFloat(in.Stop).Round(domain.PipDecimals(base, quote)).Float64()
	return Params{
		IsBuy:          in.Sentiment == domain.Bullish,
		Units:          units,
		Stop:           stop,
		StopLossPips:   stopLossPips,
		RiskAmount:     riskAmount,
		StopLossValue:  stopLossValue,
		AdjustedPipVal: adjustedPipValue,
		Pip:            pip,
	}, nil
}

// ConversionPair names the pair whose latest close converts the quote
// currency of pair into the account currency. An empty result means the
// quote already is the account currency and the rate is 1.
func ConversionPair(pair, accountCurrency string, overrides map[string]string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(pair))
	for k, v := range overrides {
		if strings.EqualFold(k, key) {
			return strings.ToUpper(strings.TrimSpace(v)), nil
		}
	}
	_, quote, err := domain.SplitPair(key)
	if err != nil {
		return "", err
	}
	acct := strings.ToUpper(strings.TrimSpace(accountCurrency))
	if acct == "" || acct == quote {
		return "", nil
	}
	return domain.JoinPair(acct, quote), nil
}
