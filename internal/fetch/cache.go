package fetch

import (
	"context"
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/pkg/logger"
	"github.com/valueinvest/valueinvest/pkg/redis"
)

// CachingProvider wraps a Provider with the Redis cache. Fundamentals
// are cached for a day, history for an hour, news and insider trades
// for ten minutes. With Redis disabled every call passes straight
// through.
type CachingProvider struct {
	next   Provider
	cache  *redis.Cache
	logger *logger.Logger
}

// NewCachingProvider wraps next with caching.
func NewCachingProvider(next Provider, cache *redis.Cache, log *logger.Logger) *CachingProvider {
	return &CachingProvider{
		next:   next,
		cache:  cache,
		logger: log.WithField("module", "fetch_cache"),
	}
}

func (c *CachingProvider) Source() string { return c.next.Source() }

func (c *CachingProvider) Stock(ctx context.Context, ticker string) (*contracts.Stock, error) {
	var s contracts.Stock
	err := c.cache.GetOrSet(ctx, redis.FundamentalsKey(ticker), &s, redis.TTLDaily, func() (interface{}, error) {
		return c.next.Stock(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *CachingProvider) History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error) {
	var h contracts.PriceHistory
	err := c.cache.GetOrSet(ctx, redis.HistoryKey(ticker, days), &h, redis.TTLLong, func() (interface{}, error) {
		return c.next.History(ctx, ticker, days)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *CachingProvider) News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	var items []contracts.NewsItem
	key := fmt.Sprintf("%s:%d", redis.NewsKey(ticker), limit)
	err := c.cache.GetOrSet(ctx, key, &items, redis.TTLMedium, func() (interface{}, error) {
		return c.next.News(ctx, ticker, limit)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *CachingProvider) InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error) {
	var trades []contracts.InsiderTrade
	err := c.cache.GetOrSet(ctx, redis.InsiderKey(ticker), &trades, redis.TTLMedium, func() (interface{}, error) {
		return c.next.InsiderTrades(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return trades, nil
}
