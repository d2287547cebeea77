// Package store declares the persistence contracts the trading core works
// against. Implementations live in sub-packages.
package store

import (
	"context"
	"encoding/json"
	"time"

	"fxbot/internal/domain"
)

// Connector hands out short-lived sessions. Each session owns exactly one
// database connection until Close.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
	Close() error
}

// Session groups the repositories bound to one connection.
type Session interface {
	Trades() TradeRepository
	Fundamentals() FundamentalRepository
	Events() EventRepository
	Close() error
}

// TradeFilter narrows TradeRepository.GetAll. Zero fields do not filter.
type TradeFilter struct {
	Pair     string
	Position domain.Position
	IsBuy    *bool
	Since    time.Time
	Limit    int
}

// TradeRepository persists trades keyed by broker trade id.
type TradeRepository interface {
	// Save inserts or fully replaces the trade with the same id.
	Save(ctx context.Context, t *domain.Trade) error
	GetAll(ctx context.Context, f TradeFilter) ([]domain.Trade, error)
	// GetByTradeID returns domain.ErrNotFound for unknown ids.
	GetByTradeID(ctx context.Context, id string) (*domain.Trade, error)
	GetOpenTrades(ctx context.Context) ([]domain.Trade, error)
	// GetOpenTradesByPair optionally filters on side when isBuy is non-nil.
	GetOpenTradesByPair(ctx context.Context, pair string, isBuy *bool) ([]domain.Trade, error)
	// GetBullish returns open trades that profit when currency strengthens.
	GetBullish(ctx context.Context, currency string) ([]domain.Trade, error)
	// GetBearish returns open trades that profit when currency weakens.
	GetBearish(ctx context.Context, currency string) ([]domain.Trade, error)
	GetDistinctPairs(ctx context.Context) ([]string, error)
	SumRealisedPL(ctx context.Context) (float64, error)
}

// FundamentalFilter narrows FundamentalRepository.GetAll. Day selects
// records updated within [Day, Day+24h].
type FundamentalFilter struct {
	Currency  string
	Day       time.Time
	Processed *bool
}

// FundamentalRepository persists FundamentalData keyed by
// (currency, last_updated).
type FundamentalRepository interface {
	Save(ctx context.Context, fd *domain.FundamentalData) error
	GetAll(ctx context.Context, f FundamentalFilter) ([]domain.FundamentalData, error)
	// GetFundamentalData returns domain.ErrNotFound when the key is absent.
	GetFundamentalData(ctx context.Context, currency string, at time.Time) (*domain.FundamentalData, error)
	// GetLatest returns the most recently updated record for currency or
	// domain.ErrNotFound.
	GetLatest(ctx context.Context, currency string) (*domain.FundamentalData, error)
	GetUnprocessed(ctx context.Context) ([]domain.FundamentalData, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// EventRecord is one journaled bus event.
type EventRecord struct {
	ID        string
	Kind      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// EventRepository is the append-only event journal.
type EventRepository interface {
	Append(ctx context.Context, rec EventRecord) error
	Recent(ctx context.Context, kind string, limit int) ([]EventRecord, error)
}
