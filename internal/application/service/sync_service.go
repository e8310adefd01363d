package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bn-mk/fanwave-crypto/internal/concurrency/worker"
	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
	"github.com/bn-mk/fanwave-crypto/internal/domain/port"
)

// SyncService pulls the upstream top-of-market page and reconciles it into
// storage. One run either fails as a whole (unreachable or malformed
// upstream) or succeeds with per-record failures isolated and counted.
// The service does not serialize overlapping runs; upserts keyed by coin id
// make a concurrent run converge instead of duplicating rows.
type SyncService struct {
	source port.MarketSourcePort
	pool   *worker.Pool
	logger *slog.Logger

	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

func NewSyncService(source port.MarketSourcePort, storage port.StoragePort, workers int, logger *slog.Logger) *SyncService {
	return &SyncService{
		source: source,
		pool:   worker.NewPool(workers, storage, logger),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the periodic sync loop. The first run happens after one
// full interval; callers wanting data immediately use RunOnce.
func (s *SyncService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.ticker = time.NewTicker(interval)
	select {
	case <-s.done:
		// A previous Stop closed the channel; a fresh one lets the
		// service restart.
		s.done = make(chan struct{})
	default:
	}
	tick, done := s.ticker, s.done
	s.mu.Unlock()

	s.logger.Info("sync service starting", "interval", interval.String())

	go s.syncLoop(ctx, tick, done)
}

// Stop halts the periodic loop. In-flight runs finish on their own.
func (s *SyncService) Stop() {
	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	s.logger.Info("sync service stopped")
}

func (s *SyncService) syncLoop(ctx context.Context, tick *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-tick.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("scheduled sync failed", "error", err)
			}
		case <-done:
			s.logger.Info("sync loop stopping")
			return
		case <-ctx.Done():
			s.logger.Info("sync loop cancelled")
			return
		}
	}
}

// RunOnce performs a single fetch-transform-upsert pass.
func (s *SyncService) RunOnce(ctx context.Context) (*model.SyncResult, error) {
	runID := uuid.New().String()
	log := s.logger.With("run_id", runID)
	start := time.Now()

	log.Info("starting market sync")

	snaps, err := s.source.FetchTopMarkets(ctx)
	if err != nil {
		log.Error("market sync failed", "error", err)
		return nil, fmt.Errorf("failed to fetch market data: %w", err)
	}

	if len(snaps) == 0 {
		log.Warn("no market data received from upstream")
		return &model.SyncResult{RunID: runID, Duration: time.Since(start)}, nil
	}

	log.Info("received market data", "count", len(snaps))

	now := time.Now().UTC()
	coins := make([]model.Coin, 0, len(snaps))
	mapFailed := 0
	for _, snap := range snaps {
		coin, err := model.CoinFromSnapshot(snap, now)
		if err != nil {
			mapFailed++
			log.Error("skipping malformed market entry", "coin_id", snap.ID, "error", err)
			continue
		}
		coins = append(coins, coin)
	}

	stored, writeFailed := s.pool.Run(ctx, coins)

	result := &model.SyncResult{
		RunID:    runID,
		Received: len(snaps),
		Stored:   stored,
		Failed:   mapFailed + writeFailed,
		Duration: time.Since(start),
	}

	log.Info("market sync completed",
		"received", result.Received,
		"stored", result.Stored,
		"failed", result.Failed,
		"duration", result.Duration)

	return result, nil
}
