package scraper

import (
	"context"
	"sync"
	"time"

	"fxbot/internal/store"
)

// Static replays a fixed set of items, stamped onto the requested day when
// their timestamp is zero. It backs dry runs and tests.
type Static struct {
	mu    sync.Mutex
	items []Item
	date  time.Time
	Calls int
}

func NewStatic(items ...Item) *Static {
	return &Static{items: items}
}

func (s *Static) SetItems(items ...Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *Static) SetParams(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
}

func (s *Static) MakeRequest(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	return nil
}

func (s *Static) ScrapedCalendarItems(ctx context.Context, repo store.FundamentalRepository) ([]Item, error) {
	s.mu.Lock()
	items := make([]Item, len(s.items))
	copy(items, s.items)
	date := s.date
	s.mu.Unlock()

	for i := range items {
		if items[i].Timestamp.IsZero() {
			if date.IsZero() {
				date = time.Now()
			}
			items[i].Timestamp = date
		}
		if err := seed(ctx, repo, items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}
