package domain

import (
	"strings"
	"time"
)

// CalendarEvent is one economic print inside a FundamentalData record.
type CalendarEvent struct {
	CalendarEvent string    `json:"calendar_event"`
	Sentiment     Sentiment `json:"sentiment"`
	Forecast      *float64  `json:"forecast"`
	Actual        *float64  `json:"actual"`
	Previous      *float64  `json:"previous"`
}

// Complete reports whether every numeric field has been published.
func (e CalendarEvent) Complete() bool {
	return e.Forecast != nil && e.Actual != nil && e.Previous != nil
}

// FundamentalKey is the composite identity of a FundamentalData record.
type FundamentalKey struct {
	Currency    string
	LastUpdated time.Time
}

func (k FundamentalKey) Normalize() FundamentalKey {
	return FundamentalKey{
		Currency:    strings.ToUpper(strings.TrimSpace(k.Currency)),
		LastUpdated: k.LastUpdated.UTC().Truncate(time.Millisecond),
	}
}

// FundamentalData groups the calendar events of one currency at one time.
type FundamentalData struct {
	Currency           string
	LastUpdated        time.Time
	Processed          bool
	AggregateSentiment Sentiment
	CalendarEvents     []CalendarEvent
}

func NewFundamentalData(currency string, at time.Time) *FundamentalData {
	k := FundamentalKey{Currency: currency, LastUpdated: at}.Normalize()
	return &FundamentalData{
		Currency:           k.Currency,
		LastUpdated:        k.LastUpdated,
		AggregateSentiment: Flat,
	}
}

func (f *FundamentalData) Key() FundamentalKey {
	return FundamentalKey{Currency: f.Currency, LastUpdated: f.LastUpdated}.Normalize()
}

// Event returns the calendar event with the given name, if present.
func (f *FundamentalData) Event(name string) (*CalendarEvent, bool) {
	for i := range f.CalendarEvents {
		if f.CalendarEvents[i].CalendarEvent == name {
			return &f.CalendarEvents[i], true
		}
	}
	return nil, false
}

// Upsert appends ev when its name is new. An existing event is overwritten
// only while the record is unprocessed or when force is set. The aggregate
// is recomputed whenever anything changed.
func (f *FundamentalData) Upsert(ev CalendarEvent, force bool) bool {
	existing, ok := f.Event(ev.CalendarEvent)
	switch {
	case !ok:
		f.CalendarEvents = append(f.CalendarEvents, ev)
	case !f.Processed || force:
		existing.Actual = ev.Actual
		existing.Previous = ev.Previous
		existing.Forecast = ev.Forecast
		existing.Sentiment = ev.Sentiment
	default:
		return false
	}
	f.Recompute()
	return true
}

// Recompute sets AggregateSentiment from the contained events: +1 per
// BULLISH, -1 per BEARISH, the sign decides.
func (f *FundamentalData) Recompute() {
	f.AggregateSentiment = AggregateSentiment(f.CalendarEvents)
}

// Complete reports whether the record has events and all are complete.
func (f *FundamentalData) Complete() bool {
	if len(f.CalendarEvents) == 0 {
		return false
	}
	for _, ev := range f.CalendarEvents {
		if !ev.Complete() {
			return false
		}
	}
	return true
}

// MarkProcessed sets the terminal processed flag. It never resets it.
func (f *FundamentalData) MarkProcessed() {
	f.Processed = true
}

func AggregateSentiment(events []CalendarEvent) Sentiment {
	score := 0
	for _, ev := range events {
		switch ev.Sentiment {
		case Bullish:
			score++
		case Bearish:
			score--
		}
	}
	switch {
	case score > 0:
		return Bullish
	case score < 0:
		return Bearish
	default:
		return Flat
	}
}
