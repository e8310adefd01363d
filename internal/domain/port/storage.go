package port

import (
	"context"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

// StoragePort is the durable coin store. The sync job is its only writer;
// everything else is read-only.
type StoragePort interface {
	// UpsertCoin inserts or fully overwrites the row keyed by coin.CoinID,
	// atomically with respect to that key.
	UpsertCoin(ctx context.Context, coin model.Coin) error
	// GetTopByRank returns up to limit coins with a non-null market cap rank,
	// ascending by rank.
	GetTopByRank(ctx context.Context, limit int) ([]model.Coin, error)
	// GetByCoinID returns (nil, nil) when the id is unknown.
	GetByCoinID(ctx context.Context, coinID string) (*model.Coin, error)
	// Search matches query case-insensitively against name, symbol and coin id,
	// ordered by rank ascending with null ranks last.
	Search(ctx context.Context, query string, limit int) ([]model.Coin, error)
	// GetStats aggregates over the whole table; DataFreshness is left for the
	// caller to fill in.
	GetStats(ctx context.Context) (*model.MarketStats, error)
	Ping(ctx context.Context) error
	Close() error
}
