package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

// These tests need a real database; set TEST_POSTGRES_DSN to run them, e.g.
// "host=localhost port=5432 user=postgres password=postgres dbname=fanwave_test sslmode=disable".
func newTestAdapter(t *testing.T) *PostgresAdapter {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	adapter, err := NewPostgresAdapter(dsn, 5, 2)
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	require.NoError(t, adapter.InitSchema(context.Background()))
	return adapter
}

func TestUpsertCoin_SecondWriteOverwritesInPlace(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	coinID := "test-" + uuid.New().String()
	rank := 7
	lastUpdated := time.Now().UTC().Truncate(time.Second)
	coin := model.Coin{
		CoinID:        coinID,
		Symbol:        "TST",
		Name:          "Test Coin",
		CurrentPrice:  decimal.NewFromFloat(100.5),
		MarketCapRank: &rank,
		LastUpdated:   &lastUpdated,
	}

	require.NoError(t, adapter.UpsertCoin(ctx, coin))

	newRank := 9
	coin.CurrentPrice = decimal.NewFromFloat(99.25)
	coin.MarketCapRank = &newRank
	require.NoError(t, adapter.UpsertCoin(ctx, coin))

	got, err := adapter.GetByCoinID(ctx, coinID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CurrentPrice.Equal(decimal.NewFromFloat(99.25)),
		"expected %s, got %s", "99.25", got.CurrentPrice)
	assert.Equal(t, 9, *got.MarketCapRank)

	matches, err := adapter.Search(ctx, coinID, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1, "repeated upserts must not create a second row")
}

func TestGetByCoinID_UnknownIsNilNotError(t *testing.T) {
	adapter := newTestAdapter(t)

	got, err := adapter.GetByCoinID(context.Background(), "no-such-"+uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, got)
}
