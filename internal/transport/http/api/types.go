package api

import (
	"time"

	"fxbot/internal/domain"
	"fxbot/internal/store"
)

type tradeView struct {
	TradeID        string    `json:"trade_id"`
	ForexPair      string    `json:"forex_pair"`
	IsBuy          bool      `json:"is_buy"`
	Units          int64     `json:"units"`
	Stop           float64   `json:"stop"`
	Limit          *float64  `json:"limit,omitempty"`
	Close          float64   `json:"close"`
	NewClose       *float64  `json:"new_close,omitempty"`
	RealisedPL     *float64  `json:"realised_pl,omitempty"`
	IsWinner       bool      `json:"is_winner"`
	Position       string    `json:"position"`
	InitiatedDate  time.Time `json:"initiated_date"`
	SLPips         float64   `json:"sl_pips"`
	HalfSpreadCost float64   `json:"half_spread_cost"`
}

func newTradeView(t domain.Trade) tradeView {
	return tradeView{
		TradeID:        t.TradeID,
		ForexPair:      t.ForexPair,
		IsBuy:          t.IsBuy,
		Units:          t.Units,
		Stop:           t.Stop,
		Limit:          t.Limit,
		Close:          t.Close,
		NewClose:       t.NewClose,
		RealisedPL:     t.RealisedPL,
		IsWinner:       t.IsWinner,
		Position:       string(t.Position),
		InitiatedDate:  t.InitiatedDate,
		SLPips:         t.SLPips,
		HalfSpreadCost: t.HalfSpreadCost,
	}
}

type fundamentalView struct {
	Currency           string                 `json:"currency"`
	LastUpdated        time.Time              `json:"last_updated"`
	Processed          bool                   `json:"processed"`
	AggregateSentiment string                 `json:"aggregate_sentiment"`
	CalendarEvents     []domain.CalendarEvent `json:"calendar_events"`
}

func newFundamentalView(fd domain.FundamentalData) fundamentalView {
	events := fd.CalendarEvents
	if events == nil {
		events = []domain.CalendarEvent{}
	}
	return fundamentalView{
		Currency:           fd.Currency,
		LastUpdated:        fd.LastUpdated,
		Processed:          fd.Processed,
		AggregateSentiment: string(fd.AggregateSentiment),
		CalendarEvents:     events,
	}
}

type eventView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func newEventView(rec store.EventRecord) eventView {
	return eventView{ID: rec.ID, Kind: rec.Kind, Payload: rec.Payload, CreatedAt: rec.CreatedAt}
}
