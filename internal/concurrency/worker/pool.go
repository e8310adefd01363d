package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
	"github.com/bn-mk/fanwave-crypto/internal/domain/port"
)

// Pool upserts coins concurrently. Records target disjoint coin ids and the
// store's upsert is atomic per key, so workers never conflict with each other.
// A failed write costs exactly that record: it is logged and counted, and the
// rest of the batch keeps going.
type Pool struct {
	workers int
	storage port.StoragePort
	logger  *slog.Logger
}

func NewPool(workers int, storage port.StoragePort, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		storage: storage,
		logger:  logger,
	}
}

// Run feeds the batch through the workers and blocks until every record has
// been attempted. It returns how many records were stored and how many failed.
func (p *Pool) Run(ctx context.Context, coins []model.Coin) (stored, failed int) {
	workCh := make(chan model.Coin)
	var storedCount, failedCount atomic.Int64
	var wg sync.WaitGroup

	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func(id int) {
			defer wg.Done()
			for coin := range workCh {
				if err := p.storage.UpsertCoin(ctx, coin); err != nil {
					failedCount.Add(1)
					p.logger.Error("worker: failed to store coin",
						"worker", id, "coin_id", coin.CoinID, "error", err)
					continue
				}
				storedCount.Add(1)
				p.logger.Debug("worker: stored coin", "worker", id, "coin_id", coin.CoinID)
			}
		}(i)
	}

	for _, coin := range coins {
		select {
		case <-ctx.Done():
			// Remaining records are dropped; the next scheduled run picks
			// them up again.
			close(workCh)
			wg.Wait()
			return int(storedCount.Load()), int(failedCount.Load())
		case workCh <- coin:
		}
	}
	close(workCh)
	wg.Wait()

	return int(storedCount.Load()), int(failedCount.Load())
}
