// Package brokertest provides a testify mock of broker.Client.
package brokertest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fxbot/internal/gateway/broker"
	"fxbot/internal/market"
)

type MockClient struct {
	mock.Mock
}

var _ broker.Client = (*MockClient)(nil)

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) Candles(ctx context.Context, pair string, period market.Granularity, count int) ([]market.Candle, error) {
	args := m.Called(ctx, pair, period, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Candle), args.Error(1)
}

func (m *MockClient) OpenPositions(ctx context.Context) ([]broker.Position, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]broker.Position), args.Error(1)
}

func (m *MockClient) OpenTrade(ctx context.Context, req broker.OpenRequest) (*broker.OpenResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*broker.OpenResult), args.Error(1)
}

func (m *MockClient) CloseTrade(ctx context.Context, tradeID string, units int64) (*broker.CloseResult, error) {
	args := m.Called(ctx, tradeID, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*broker.CloseResult), args.Error(1)
}

func (m *MockClient) ModifyTrade(ctx context.Context, tradeID string, stop float64) (*broker.ModifyResult, error) {
	args := m.Called(ctx, tradeID, stop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*broker.ModifyResult), args.Error(1)
}

func (m *MockClient) AccountBalance(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockClient) LatestClose(ctx context.Context, pair string) (float64, error) {
	args := m.Called(ctx, pair)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockClient) TradeState(ctx context.Context, tradeID string) (*broker.TradeState, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*broker.TradeState), args.Error(1)
}
