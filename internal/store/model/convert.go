package model

import (
	"encoding/json"
	"fmt"
	"time"

	"fxbot/internal/domain"
	"fxbot/internal/store"
)

func NewTradeModel(t *domain.Trade, now time.Time) TradeModel {
	return TradeModel{
		TradeID:        t.TradeID,
		Units:          t.Units,
		Stop:           t.Stop,
		LimitPrice:     t.Limit,
		IsBuy:          t.IsBuy,
		BaseCurrency:   t.BaseCurrency,
		QuoteCurrency:  t.QuoteCurrency,
		ForexPair:      t.ForexPair,
		ClosePrice:     t.Close,
		NewClose:       t.NewClose,
		RealisedPL:     t.RealisedPL,
		IsWinner:       t.IsWinner,
		Position:       string(t.Position),
		InitiatedAt:    toMillis(t.InitiatedDate),
		SLPips:         t.SLPips,
		HalfSpreadCost: t.HalfSpreadCost,
		CreatedAtUnix:  now.Unix(),
		UpdatedAtUnix:  now.Unix(),
	}
}

func (m TradeModel) ToDomain() domain.Trade {
	return domain.Trade{
		TradeID:        m.TradeID,
		Units:          m.Units,
		Stop:           m.Stop,
		Limit:          m.LimitPrice,
		IsBuy:          m.IsBuy,
		BaseCurrency:   m.BaseCurrency,
		QuoteCurrency:  m.QuoteCurrency,
		ForexPair:      m.ForexPair,
		Close:          m.ClosePrice,
		NewClose:       m.NewClose,
		RealisedPL:     m.RealisedPL,
		IsWinner:       m.IsWinner,
		Position:       domain.Position(m.Position),
		InitiatedDate:  fromMillis(m.InitiatedAt),
		SLPips:         m.SLPips,
		HalfSpreadCost: m.HalfSpreadCost,
	}
}

func NewFundamentalModel(fd *domain.FundamentalData, now time.Time) (FundamentalModel, error) {
	events := fd.CalendarEvents
	if events == nil {
		events = []domain.CalendarEvent{}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return FundamentalModel{}, fmt.Errorf("encode calendar events: %w", err)
	}
	k := fd.Key()
	return FundamentalModel{
		Currency:           k.Currency,
		LastUpdated:        toMillis(k.LastUpdated),
		Processed:          fd.Processed,
		AggregateSentiment: string(fd.AggregateSentiment),
		CalendarEvents:     raw,
		UpdatedAtUnix:      now.Unix(),
	}, nil
}

func (m FundamentalModel) ToDomain() (domain.FundamentalData, error) {
	fd := domain.FundamentalData{
		Currency:           m.Currency,
		LastUpdated:        fromMillis(m.LastUpdated),
		Processed:          m.Processed,
		AggregateSentiment: domain.ParseSentiment(m.AggregateSentiment),
	}
	if len(m.CalendarEvents) > 0 {
		if err := json.Unmarshal(m.CalendarEvents, &fd.CalendarEvents); err != nil {
			return fd, fmt.Errorf("decode calendar events %s@%d: %w", m.Currency, m.LastUpdated, err)
		}
	}
	return fd, nil
}

func NewEventLogModel(rec store.EventRecord) EventLogModel {
	return EventLogModel{
		ID:        rec.ID,
		Kind:      rec.Kind,
		Payload:   []byte(rec.Payload),
		CreatedAt: toMillis(rec.CreatedAt),
	}
}

func (m EventLogModel) ToRecord() store.EventRecord {
	return store.EventRecord{
		ID:        m.ID,
		Kind:      m.Kind,
		Payload:   []byte(m.Payload),
		CreatedAt: fromMillis(m.CreatedAt),
	}
}
