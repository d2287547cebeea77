package broker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"fxbot/internal/domain"
)

func TestValidateStops(t *testing.T) {
	lim := func(v float64) *float64 { return &v }

	assert.ErrorIs(t, ValidateStops(true, 0, nil), domain.ErrNoStopDefined)
	assert.NoError(t, ValidateStops(true, 1.10, nil))
	assert.NoError(t, ValidateStops(true, 1.10, lim(1.12)))
	assert.ErrorIs(t, ValidateStops(true, 1.10, lim(1.09)), domain.ErrInvalidTradeParameter)
	assert.NoError(t, ValidateStops(false, 1.10, lim(1.08)))
	assert.ErrorIs(t, ValidateStops(false, 1.10, lim(1.11)), domain.ErrInvalidTradeParameter)
}

func TestBrokerError(t *testing.T) {
	err := fmt.Errorf("open: %w", &BrokerError{Op: "open_trade", Pair: "EUR/USD", Units: 1000, Reason: "MARKET_HALTED", Err: ErrRejected})
	assert.True(t, IsBrokerError(err))
	assert.True(t, errors.Is(err, ErrRejected))
	assert.False(t, Retryable(err))
	assert.Contains(t, err.Error(), "pair=EUR/USD")
	assert.Contains(t, err.Error(), "reason=MARKET_HALTED")

	assert.False(t, IsBrokerError(errors.New("plain")))
	assert.True(t, Retryable(&BrokerError{Op: "candles", Err: ErrUnavailable}))
}
