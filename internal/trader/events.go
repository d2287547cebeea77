package trader

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fxbot/internal/domain"
)

// EventKind tags the closed set of bus events.
type EventKind string

const (
	KindFundamental    EventKind = "FUNDAMENTAL"
	KindCloseTrade     EventKind = "CLOSE_TRADE"
	KindCloseForexPair EventKind = "CLOSE_FOREX_PAIR"
	KindOpenTrade      EventKind = "OPEN_TRADE"
	KindTechnical      EventKind = "TECHNICAL"
)

// Event is implemented only by the event types in this file.
type Event interface {
	Kind() EventKind
	isEvent()
}

// FundamentalEvent announces that a currency's calendar read is complete.
type FundamentalEvent struct {
	Currency    string           `json:"currency"`
	LastUpdated time.Time        `json:"last_updated"`
	Sentiment   domain.Sentiment `json:"sentiment"`
}

// CloseTradeEvent closes open trades positioned against Sentiment on Currency.
type CloseTradeEvent struct {
	Currency  string           `json:"currency"`
	Sentiment domain.Sentiment `json:"sentiment"`
}

// CloseForexPairEvent closes open trades on ForexPair whose side agrees with
// Sentiment.
type CloseForexPairEvent struct {
	ForexPair string           `json:"forex_pair"`
	Sentiment domain.Sentiment `json:"sentiment"`
}

// OpenTradeEvent asks for a new position sized from Stop and Close.
type OpenTradeEvent struct {
	ForexPair string           `json:"forex_pair"`
	Sentiment domain.Sentiment `json:"sentiment"`
	Stop      float64          `json:"stop"`
	Close     float64          `json:"close"`
	Limit     *float64         `json:"limit,omitempty"`
}

type TechnicalEvent struct {
	Currency string `json:"currency"`
}

func (FundamentalEvent) Kind() EventKind    { return KindFundamental }
func (CloseTradeEvent) Kind() EventKind     { return KindCloseTrade }
func (CloseForexPairEvent) Kind() EventKind { return KindCloseForexPair }
func (OpenTradeEvent) Kind() EventKind      { return KindOpenTrade }
func (TechnicalEvent) Kind() EventKind      { return KindTechnical }

func (FundamentalEvent) isEvent()    {}
func (CloseTradeEvent) isEvent()     {}
func (CloseForexPairEvent) isEvent() {}
func (OpenTradeEvent) isEvent()      {}
func (TechnicalEvent) isEvent()      {}

// Envelope is what sits on the bus queue.
type Envelope struct {
	ID        string
	Event     Event
	CreatedAt time.Time
}

func newEnvelope(ev Event, now time.Time) Envelope {
	return Envelope{ID: uuid.NewString(), Event: ev, CreatedAt: now}
}

func (e Envelope) Kind() EventKind {
	if e.Event == nil {
		return ""
	}
	return e.Event.Kind()
}

// Payload is the JSON form of the event, as journaled.
func (e Envelope) Payload() (json.RawMessage, error) {
	raw, err := json.Marshal(e.Event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event %s: %w", e.Kind(), e.ID, err)
	}
	return raw, nil
}

// DecodeEvent rebuilds an event from its journaled kind and payload.
func DecodeEvent(kind EventKind, payload []byte) (Event, error) {
	var ev Event
	switch kind {
	case KindFundamental:
		var v FundamentalEvent
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		ev = v
	case KindCloseTrade:
		var v CloseTradeEvent
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		ev = v
	case KindCloseForexPair:
		var v CloseForexPairEvent
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		ev = v
	case KindOpenTrade:
		var v OpenTradeEvent
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		ev = v
	case KindTechnical:
		var v TechnicalEvent
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		ev = v
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	return ev, nil
}
