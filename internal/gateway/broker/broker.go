// Package broker defines the capability set the trading core needs from a
// forex broker, independent of any wire format.
package broker

import (
	"context"

	"fxbot/internal/market"
)

// Client is implemented by every broker backend. All methods are safe for
// concurrent use; failures are *BrokerError values.
type Client interface {
	Name() string

	Candles(ctx context.Context, pair string, period market.Granularity, count int) ([]market.Candle, error)

	OpenPositions(ctx context.Context) ([]Position, error)

	OpenTrade(ctx context.Context, req OpenRequest) (*OpenResult, error)

	CloseTrade(ctx context.Context, tradeID string, units int64) (*CloseResult, error)

	ModifyTrade(ctx context.Context, tradeID string, stop float64) (*ModifyResult, error)

	AccountBalance(ctx context.Context) (float64, error)

	LatestClose(ctx context.Context, pair string) (float64, error)

	TradeState(ctx context.Context, tradeID string) (*TradeState, error)
}
