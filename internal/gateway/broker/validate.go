package broker

import (
	"fmt"

	"fxbot/internal/domain"
)

// ValidateStops checks an order's protective levels before it reaches the
// broker: a stop is mandatory, and a limit must sit on the profit side of
// the stop.
func ValidateStops(isBuy bool, stop float64, limit *float64) error {
	if stop <= 0 {
		return domain.ErrNoStopDefined
	}
	if limit == nil {
		return nil
	}
	if isBuy && *limit < stop {
		return fmt.Errorf("%w: buy limit %v below stop %v", domain.ErrInvalidTradeParameter, *limit, stop)
	}
	if !isBuy && *limit > stop {
		return fmt.Errorf("%w: sell limit %v above stop %v", domain.ErrInvalidTradeParameter, *limit, stop)
	}
	return nil
}
