package trader

import (
	"context"
	"errors"

	"fxbot/internal/domain"
	"fxbot/internal/logger"
	"fxbot/internal/store"
)

// CombineSentiment reconciles a technical signal on base/quote with the
// freshest fundamental read of either currency. The more recently updated
// record decides (base wins ties); if it is still unprocessed the result is
// FLAT. A missing record simply does not participate.
func CombineSentiment(technical domain.Sentiment, base, quote *domain.FundamentalData) domain.Sentiment {
	latest := base
	switch {
	case base == nil && quote == nil:
		return domain.Flat
	case base == nil:
		latest = quote
	case quote != nil && quote.LastUpdated.After(base.LastUpdated):
		latest = quote
	}
	if !latest.Processed {
		return domain.Flat
	}
	isBase := latest == base
	agg := latest.AggregateSentiment
	switch technical {
	case domain.Bullish:
		if (isBase && agg != domain.Bearish) || (!isBase && agg != domain.Bullish) {
			return domain.Bullish
		}
	case domain.Bearish:
		if (isBase && agg != domain.Bullish) || (!isBase && agg != domain.Bearish) {
			return domain.Bearish
		}
	}
	return domain.Flat
}

// CombinedSentiment loads the latest fundamentals of both currencies and
// applies CombineSentiment.
func CombinedSentiment(ctx context.Context, repo store.FundamentalRepository, technical domain.Sentiment, base, quote string) (domain.Sentiment, error) {
	b, err := latestOrNil(ctx, repo, base)
	if err != nil {
		return domain.Flat, err
	}
	q, err := latestOrNil(ctx, repo, quote)
	if err != nil {
		return domain.Flat, err
	}
	combined := CombineSentiment(technical, b, q)
	logger.Infof("combined sentiment %s/%s technical=%s -> %s (base=%s quote=%s)",
		base, quote, technical, combined, describe(b), describe(q))
	return combined, nil
}

func latestOrNil(ctx context.Context, repo store.FundamentalRepository, currency string) (*domain.FundamentalData, error) {
	fd, err := repo.GetLatest(ctx, currency)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return fd, err
}

func describe(fd *domain.FundamentalData) string {
	if fd == nil {
		return "none"
	}
	state := "pending"
	if fd.Processed {
		state = string(fd.AggregateSentiment)
	}
	return fd.LastUpdated.Format("2006-01-02T15:04Z07:00") + ":" + state
}
