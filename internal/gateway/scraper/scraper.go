// Package scraper produces calendar events for the fundamental job. The
// core never parses HTML; it consumes Items.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxbot/internal/domain"
	"fxbot/internal/store"
)

// Item is one scraped calendar print for a currency at a point in time.
type Item struct {
	Event     domain.CalendarEvent
	Currency  string
	Timestamp time.Time
}

// Scraper fetches one calendar day. SetParams selects the day, MakeRequest
// performs the fetch and ScrapedCalendarItems turns the last fetch into
// items, seeding an empty FundamentalData for every (currency, time) that
// has none yet.
type Scraper interface {
	SetParams(date time.Time)
	MakeRequest(ctx context.Context) error
	ScrapedCalendarItems(ctx context.Context, repo store.FundamentalRepository) ([]Item, error)
}

// Majors are the currencies whose calendar prints are kept.
var Majors = []string{"AUD", "CAD", "CHF", "CNY", "EUR", "GBP", "JPY", "NZD", "USD"}

func isMajor(currency string) bool {
	for _, c := range Majors {
		if c == currency {
			return true
		}
	}
	return false
}

// seed makes sure a FundamentalData record exists for the item's key.
func seed(ctx context.Context, repo store.FundamentalRepository, it Item) error {
	_, err := repo.GetFundamentalData(ctx, it.Currency, it.Timestamp)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err := repo.Save(ctx, domain.NewFundamentalData(it.Currency, it.Timestamp)); err != nil {
		return fmt.Errorf("seed fundamental %s@%s: %w", it.Currency, it.Timestamp.Format(time.RFC3339), err)
	}
	return nil
}
