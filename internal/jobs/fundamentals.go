package jobs

import (
	"context"
	"fmt"
	"time"

	"fxbot/internal/domain"
	"fxbot/internal/logger"
	"fxbot/internal/trader"
)

// FetchFundamentals scrapes one calendar day and folds the prints into
// their FundamentalData records. A record that became complete is saved
// as processed and then published (CloseTradeEvent for a directional
// aggregate, then FundamentalEvent). A scraped item without a seeded
// record aborts the run with domain.ErrNotFound.
func (r *Runner) FetchFundamentals(ctx context.Context, date time.Time) error {
	if r.cfg.WeekdaysOnly && isWeekend(date) {
		logger.Debugf("fundamentals: skip weekend %s", date.Format("2006-01-02"))
		return nil
	}
	return r.uow.Do(ctx, func(s *trader.Scope) error {
		scr := s.Scraper()
		scr.SetParams(date)
		if err := scr.MakeRequest(ctx); err != nil {
			logger.Errorf("fundamentals: request for %s failed: %v", date.Format("2006-01-02"), err)
			return nil
		}
		items, err := scr.ScrapedCalendarItems(ctx, s.Fundamentals())
		if err != nil {
			logger.Errorf("fundamentals: scrape for %s failed: %v", date.Format("2006-01-02"), err)
			return nil
		}

		repo := s.Fundamentals()
		records := make(map[domain.FundamentalKey]*domain.FundamentalData)
		var order []domain.FundamentalKey
		changed := make(map[domain.FundamentalKey]bool)
		for _, it := range items {
			k := domain.FundamentalKey{Currency: it.Currency, LastUpdated: it.Timestamp}.Normalize()
			fd, ok := records[k]
			if !ok {
				fd, err = repo.GetFundamentalData(ctx, k.Currency, k.LastUpdated)
				if err != nil {
					logger.Errorf("fundamentals: no record for currency=%s at=%s event=%q: %v",
						k.Currency, k.LastUpdated.Format(time.RFC3339), it.Event.CalendarEvent, err)
					return fmt.Errorf("fundamentals %s@%s: %w", k.Currency, k.LastUpdated.Format(time.RFC3339), err)
				}
				records[k] = fd
				order = append(order, k)
			}
			if fd.Upsert(it.Event, r.cfg.ForceOverwrite) {
				changed[k] = true
			}
		}
		for _, k := range order {
			if !changed[k] {
				continue
			}
			if err := repo.Save(ctx, records[k]); err != nil {
				return fmt.Errorf("save fundamental %s: %w", k.Currency, err)
			}
		}

		published := 0
		for _, k := range order {
			fd := records[k]
			if fd.Processed || !fd.Complete() {
				continue
			}
			fd.MarkProcessed()
			if err := repo.Save(ctx, fd); err != nil {
				return fmt.Errorf("mark fundamental %s processed: %w", fd.Currency, err)
			}
			if fd.AggregateSentiment.IsDirectional() {
				s.Publish(trader.CloseTradeEvent{Currency: fd.Currency, Sentiment: fd.AggregateSentiment})
			}
			s.Publish(trader.FundamentalEvent{Currency: fd.Currency, LastUpdated: fd.LastUpdated, Sentiment: fd.AggregateSentiment})
			published++
		}
		logger.Infof("fundamentals: day=%s items=%d records=%d changed=%d processed=%d",
			date.Format("2006-01-02"), len(items), len(order), len(changed), published)
		return nil
	})
}

// ExpireStaleFundamentals marks processed every unprocessed record last
// updated more than StaleAfter before now.
func (r *Runner) ExpireStaleFundamentals(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-r.cfg.StaleAfter)
	return r.uow.Do(ctx, func(s *trader.Scope) error {
		pending, err := s.Fundamentals().GetUnprocessed(ctx)
		if err != nil {
			return err
		}
		expired := 0
		for i := range pending {
			fd := &pending[i]
			if !fd.LastUpdated.Before(cutoff) {
				continue
			}
			fd.MarkProcessed()
			if err := s.Fundamentals().Save(ctx, fd); err != nil {
				logger.Errorf("fundamentals: expire currency=%s at=%s: %v", fd.Currency, fd.LastUpdated.Format(time.RFC3339), err)
				continue
			}
			expired++
		}
		if expired > 0 {
			logger.Infof("fundamentals: expired %d stale record(s) older than %s", expired, cutoff.Format(time.RFC3339))
		}
		return nil
	})
}

func isWeekend(t time.Time) bool {
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}
