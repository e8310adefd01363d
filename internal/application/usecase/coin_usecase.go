package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
	"github.com/bn-mk/fanwave-crypto/internal/domain/port"
)

const (
	topCacheKeyFmt = "crypto:top:%d"
	statsCacheKey  = "crypto:stats"
)

// CoinUseCase answers read queries over the coin store, cache-aside. The
// cache is best-effort: a broken cache degrades to plain storage reads and
// never fails a request.
type CoinUseCase struct {
	storage  port.StoragePort
	cache    port.CachePort
	topTTL   time.Duration
	statsTTL time.Duration
	logger   *slog.Logger
}

func NewCoinUseCase(storage port.StoragePort, cache port.CachePort, topTTL, statsTTL time.Duration, logger *slog.Logger) *CoinUseCase {
	if topTTL <= 0 {
		topTTL = time.Minute
	}
	if statsTTL <= 0 {
		statsTTL = 5 * time.Minute
	}
	return &CoinUseCase{
		storage:  storage,
		cache:    cache,
		topTTL:   topTTL,
		statsTTL: statsTTL,
		logger:   logger,
	}
}

// TopByRank returns up to limit coins ordered by market cap rank. The caller
// boundary validates limit; any positive value is accepted here. The cache
// key embeds the limit so different page sizes never collide.
func (uc *CoinUseCase) TopByRank(ctx context.Context, limit int) ([]model.Coin, error) {
	key := fmt.Sprintf(topCacheKeyFmt, limit)

	var cached []model.Coin
	if uc.cacheLookup(ctx, key, &cached) {
		return cached, nil
	}

	coins, err := uc.storage.GetTopByRank(ctx, limit)
	if err != nil {
		return nil, err
	}

	uc.cacheStore(ctx, key, coins, uc.topTTL)
	return coins, nil
}

// GetByCoinID returns (nil, nil) when the coin is unknown; absence is a
// normal outcome, not an error.
func (uc *CoinUseCase) GetByCoinID(ctx context.Context, coinID string) (*model.Coin, error) {
	return uc.storage.GetByCoinID(ctx, coinID)
}

// Search is uncached: queries are unbounded in variety, so a TTL cache would
// only hold dead keys.
func (uc *CoinUseCase) Search(ctx context.Context, query string, limit int) ([]model.Coin, error) {
	return uc.storage.Search(ctx, query, limit)
}

// Statistics aggregates over the whole table, cached with its own longer TTL.
// The freshness label is part of the cached value, mirroring how the data it
// describes ages in the cache.
func (uc *CoinUseCase) Statistics(ctx context.Context) (*model.MarketStats, error) {
	var cached model.MarketStats
	if uc.cacheLookup(ctx, statsCacheKey, &cached) {
		return &cached, nil
	}

	stats, err := uc.storage.GetStats(ctx)
	if err != nil {
		return nil, err
	}

	if stats.LastDataUpdate != nil {
		label := humanize.Time(*stats.LastDataUpdate)
		stats.DataFreshness = &label
	}

	uc.cacheStore(ctx, statsCacheKey, stats, uc.statsTTL)
	return stats, nil
}

func (uc *CoinUseCase) cacheLookup(ctx context.Context, key string, dest any) bool {
	data, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		uc.logger.Warn("cache entry is corrupt, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

func (uc *CoinUseCase) cacheStore(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		uc.logger.Warn("failed to marshal cache value", "key", key, "error", err)
		return
	}
	if err := uc.cache.Set(ctx, key, data, ttl); err != nil {
		uc.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
