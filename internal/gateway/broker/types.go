package broker

import "time"

// Position is an open trade as reported by the broker.
type Position struct {
	TradeID      string
	Pair         string
	Units        int64 // negative for shorts
	Price        float64
	Stop         float64
	UnrealisedPL float64
	OpenedAt     time.Time
}

// OpenRequest is a market order with an attached stop and optional limit.
type OpenRequest struct {
	Pair  string
	IsBuy bool
	Units int64
	Stop  float64
	Limit *float64
}

// OpenResult carries the broker trade id and the fill's half-spread cost.
type OpenResult struct {
	TradeID        string
	Price          float64
	HalfSpreadCost float64
}

type CloseResult struct {
	CloseID    string
	RealisedPL float64
}

type ModifyResult struct {
	TransactionID string
	Stop          float64
}

// TradeStatus is the broker-side trade state.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

type TradeState struct {
	Status     TradeStatus
	RealisedPL float64
}
