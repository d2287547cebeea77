package market

import (
	"context"
	"errors"
	"sync"
	"time"

	"fxbot/internal/logger"
)

// CandleFetcher is the part of a broker client the cache preheater uses.
type CandleFetcher interface {
	Candles(ctx context.Context, pair string, period Granularity, count int) ([]Candle, error)
}

// CandleCache keeps the most recent candles per pair and granularity.
// Keys are spread over shards so concurrent jobs rarely contend.
type CandleCache struct {
	max    int
	shards []candleShard
}

type candleShard struct {
	mu   sync.RWMutex
	data map[string][]Candle
}

const defaultShardCount = 16

func NewCandleCache(max int) *CandleCache {
	return newCandleCache(defaultShardCount, max)
}

func newCandleCache(shards, max int) *CandleCache {
	if shards <= 0 {
		shards = 1
	}
	if max <= 0 {
		max = 1000
	}
	c := &CandleCache{max: max, shards: make([]candleShard, shards)}
	for i := range c.shards {
		c.shards[i] = candleShard{data: make(map[string][]Candle)}
	}
	return c
}

func cacheKey(pair string, period Granularity) string { return pair + "@" + string(period) }

func (c *CandleCache) shardFor(key string) *candleShard {
	return &c.shards[hashKey(key)%uint32(len(c.shards))]
}

// Put merges candles into the cached series. A candle with the same open
// time as the newest cached one replaces it, which is how an incomplete bar
// is updated in place. Older candles than the newest cached are ignored.
func (c *CandleCache) Put(pair string, period Granularity, candles []Candle) error {
	if pair == "" || period == "" {
		return errors.New("candle cache: pair and period are required")
	}
	if len(candles) == 0 {
		return nil
	}
	k := cacheKey(pair, period)
	sh := c.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cur := sh.data[k]
	for _, candle := range candles {
		n := len(cur)
		switch {
		case n > 0 && cur[n-1].Time.Equal(candle.Time):
			cur[n-1] = candle
		case n > 0 && candle.Time.Before(cur[n-1].Time):
		default:
			cur = append(cur, candle)
		}
	}
	if len(cur) > c.max {
		cur = append([]Candle(nil), cur[len(cur)-c.max:]...)
	}
	sh.data[k] = cur
	return nil
}

// Get returns a copy of the newest limit candles; limit <= 0 returns all.
func (c *CandleCache) Get(pair string, period Granularity, limit int) []Candle {
	k := cacheKey(pair, period)
	sh := c.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	cur := sh.data[k]
	if limit <= 0 || limit > len(cur) {
		limit = len(cur)
	}
	out := make([]Candle, limit)
	copy(out, cur[len(cur)-limit:])
	return out
}

// Keys lists the cached pair@period keys.
func (c *CandleCache) Keys() []string {
	var out []string
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.RLock()
		for k := range sh.data {
			out = append(out, k)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Preheat fills the cache for every pair before the first job runs.
// Failures are logged per pair and skipped.
func (c *CandleCache) Preheat(ctx context.Context, src CandleFetcher, pairs []string, period Granularity, count int) int {
	loaded := 0
	for _, pair := range pairs {
		batch, err := src.Candles(ctx, pair, period, count)
		if err != nil {
			logger.Warnf("candle preheat pair=%s period=%s failed: %v", pair, period, err)
			continue
		}
		if err := c.Put(pair, period, batch); err != nil {
			logger.Warnf("candle preheat pair=%s period=%s: %v", pair, period, err)
			continue
		}
		if n := len(batch); n > 0 {
			logger.Debugf("candle preheat pair=%s period=%s count=%d first=%s last=%s close=%.5f",
				pair, period, n, batch[0].Time.Format(time.RFC3339), batch[n-1].Time.Format(time.RFC3339), batch[n-1].Close)
		}
		loaded++
	}
	return loaded
}

// FNV-1a.
func hashKey(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
