package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

// MockMarketSource is a mock implementation of MarketSourcePort for testing
type MockMarketSource struct {
	mock.Mock
}

func (m *MockMarketSource) FetchTopMarkets(ctx context.Context) ([]model.MarketSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MarketSnapshot), args.Error(1)
}

// MockStorage is a mock implementation of StoragePort for testing
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UpsertCoin(ctx context.Context, coin model.Coin) error {
	args := m.Called(ctx, coin)
	return args.Error(0)
}

func (m *MockStorage) GetTopByRank(ctx context.Context, limit int) ([]model.Coin, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coin), args.Error(1)
}

func (m *MockStorage) GetByCoinID(ctx context.Context, coinID string) (*model.Coin, error) {
	args := m.Called(ctx, coinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coin), args.Error(1)
}

func (m *MockStorage) Search(ctx context.Context, query string, limit int) ([]model.Coin, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coin), args.Error(1)
}

func (m *MockStorage) GetStats(ctx context.Context) (*model.MarketStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MarketStats), args.Error(1)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatP(f float64) *float64 { return &f }

func validSnapshot(id string) model.MarketSnapshot {
	return model.MarketSnapshot{
		ID:           id,
		Symbol:       "sym",
		Name:         "Coin " + id,
		CurrentPrice: floatP(100),
	}
}

func TestRunOnce_StoresAllRecords(t *testing.T) {
	ctx := context.Background()
	src := new(MockMarketSource)
	store := new(MockStorage)

	snaps := []model.MarketSnapshot{
		validSnapshot("bitcoin"),
		validSnapshot("ethereum"),
		validSnapshot("solana"),
	}
	src.On("FetchTopMarkets", ctx).Return(snaps, nil)
	store.On("UpsertCoin", mock.Anything, mock.Anything).Return(nil).Times(3)

	svc := NewSyncService(src, store, 2, discardLogger())

	result, err := svc.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Received)
	assert.Equal(t, 3, result.Stored)
	assert.Equal(t, 0, result.Failed)
	assert.NotEmpty(t, result.RunID)

	src.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRunOnce_OneMalformedEntryDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	src := new(MockMarketSource)
	store := new(MockStorage)

	snaps := make([]model.MarketSnapshot, 0, 101)
	for i := 0; i < 100; i++ {
		snaps = append(snaps, validSnapshot(fmt.Sprintf("coin-%d", i)))
	}
	// No current price: rejected by the mapping, not by the store.
	snaps = append(snaps, model.MarketSnapshot{ID: "broken", Symbol: "brk", Name: "Broken"})

	src.On("FetchTopMarkets", ctx).Return(snaps, nil)
	store.On("UpsertCoin", mock.Anything, mock.Anything).Return(nil).Times(100)

	svc := NewSyncService(src, store, 4, discardLogger())

	result, err := svc.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 101, result.Received)
	assert.Equal(t, 100, result.Stored)
	assert.Equal(t, 1, result.Failed)
	store.AssertExpectations(t)
}

func TestRunOnce_WriteFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	src := new(MockMarketSource)
	store := new(MockStorage)

	snaps := []model.MarketSnapshot{
		validSnapshot("bitcoin"),
		validSnapshot("cursed"),
		validSnapshot("ethereum"),
	}
	src.On("FetchTopMarkets", ctx).Return(snaps, nil)
	store.On("UpsertCoin", mock.Anything, mock.MatchedBy(func(c model.Coin) bool {
		return c.CoinID == "cursed"
	})).Return(errors.New("constraint violation"))
	store.On("UpsertCoin", mock.Anything, mock.MatchedBy(func(c model.Coin) bool {
		return c.CoinID != "cursed"
	})).Return(nil)

	svc := NewSyncService(src, store, 1, discardLogger())

	result, err := svc.RunOnce(ctx)
	require.NoError(t, err, "a per-record write failure must not fail the run")

	assert.Equal(t, 3, result.Received)
	assert.Equal(t, 2, result.Stored)
	assert.Equal(t, 1, result.Failed)
}

func TestRunOnce_UpstreamFailureFailsWholeRun(t *testing.T) {
	ctx := context.Background()
	src := new(MockMarketSource)
	store := new(MockStorage)

	src.On("FetchTopMarkets", ctx).Return(nil, &model.UpstreamError{Status: 502})

	svc := NewSyncService(src, store, 2, discardLogger())

	_, err := svc.RunOnce(ctx)
	require.Error(t, err)

	var upErr *model.UpstreamError
	assert.True(t, errors.As(err, &upErr))
	store.AssertNotCalled(t, "UpsertCoin", mock.Anything, mock.Anything)
}

func TestStartAfterStop_LoopRunsAgain(t *testing.T) {
	src := new(MockMarketSource)
	store := new(MockStorage)

	fetched := make(chan struct{}, 1)
	src.On("FetchTopMarkets", mock.Anything).Run(func(mock.Arguments) {
		select {
		case fetched <- struct{}{}:
		default:
		}
	}).Return([]model.MarketSnapshot{}, nil)

	svc := NewSyncService(src, store, 1, discardLogger())
	ctx := context.Background()

	// First cycle never ticks before Stop closes it down.
	svc.Start(ctx, time.Hour)
	svc.Stop()

	svc.Start(ctx, 10*time.Millisecond)
	defer svc.Stop()

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("sync loop did not run after a restart")
	}
}

func TestRunOnce_EmptyPayloadSucceedsWithZeroWrites(t *testing.T) {
	ctx := context.Background()
	src := new(MockMarketSource)
	store := new(MockStorage)

	src.On("FetchTopMarkets", ctx).Return([]model.MarketSnapshot{}, nil)

	svc := NewSyncService(src, store, 2, discardLogger())

	result, err := svc.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Received)
	assert.Equal(t, 0, result.Stored)
	assert.Equal(t, 0, result.Failed)
	store.AssertNotCalled(t, "UpsertCoin", mock.Anything, mock.Anything)
}
