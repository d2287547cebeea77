package model

import (
	"time"

	"gorm.io/datatypes"
)

type TradeModel struct {
	TradeID        string   `gorm:"column:trade_id;primaryKey"`
	Units          int64    `gorm:"column:units"`
	Stop           float64  `gorm:"column:stop"`
	LimitPrice     *float64 `gorm:"column:limit_price"`
	IsBuy          bool     `gorm:"column:is_buy"`
	BaseCurrency   string   `gorm:"column:base_currency;index"`
	QuoteCurrency  string   `gorm:"column:quote_currency;index"`
	ForexPair      string   `gorm:"column:forex_pair;index"`
	ClosePrice     float64  `gorm:"column:close_price"`
	NewClose       *float64 `gorm:"column:new_close"`
	RealisedPL     *float64 `gorm:"column:realised_pl"`
	IsWinner       bool     `gorm:"column:is_winner"`
	Position       string   `gorm:"column:position;index"`
	InitiatedAt    int64    `gorm:"column:initiated_date;index"`
	SLPips         float64  `gorm:"column:sl_pips"`
	HalfSpreadCost float64  `gorm:"column:half_spread_cost"`
	CreatedAtUnix  int64    `gorm:"column:created_at"`
	UpdatedAtUnix  int64    `gorm:"column:updated_at"`
}

func (TradeModel) TableName() string { return "trades" }

type FundamentalModel struct {
	Currency           string         `gorm:"column:currency;primaryKey"`
	LastUpdated        int64          `gorm:"column:last_updated;primaryKey;autoIncrement:false"`
	Processed          bool           `gorm:"column:processed;index"`
	AggregateSentiment string         `gorm:"column:aggregate_sentiment"`
	CalendarEvents     datatypes.JSON `gorm:"column:calendar_events;type:TEXT"`
	UpdatedAtUnix      int64          `gorm:"column:updated_at"`
}

func (FundamentalModel) TableName() string { return "fundamental_data" }

// EventLogModel maps to the append-only 'event_log' table.
type EventLogModel struct {
	ID        string         `gorm:"column:id;primaryKey"`
	Kind      string         `gorm:"column:kind;index"`
	Payload   datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAt int64          `gorm:"column:created_at;index"`
}

func (EventLogModel) TableName() string { return "event_log" }

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Millis converts a timestamp to the stored representation.
func Millis(t time.Time) int64 { return toMillis(t) }
