package source

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

const marketsPayload = `[
	{
		"id": "bitcoin", "symbol": "btc", "name": "Bitcoin",
		"image": "https://img.example/btc.png",
		"current_price": 61234.56, "market_cap": 1200000000000, "market_cap_rank": 1,
		"total_volume": 35000000000.0, "high_24h": 62000, "low_24h": 60000,
		"price_change_percentage_24h": 1.25,
		"ath": 73750, "ath_date": "2024-03-14T07:10:36.635Z",
		"atl": 67.81, "atl_date": "2013-07-06T00:00:00.000Z",
		"last_updated": "2024-05-01T11:58:00.000Z"
	},
	{
		"id": "shiba-inu", "symbol": "shib", "name": "Shiba Inu",
		"current_price": 0.0000251, "market_cap": 14000000000, "market_cap_rank": 12,
		"fully_diluted_valuation": null, "max_supply": null,
		"last_updated": "2024-05-01T11:59:00.000Z"
	}
]`

func newTestClient(t *testing.T, baseURL string, opts func(*Options)) *Client {
	t.Helper()
	o := Options{
		BaseURL:    baseURL,
		VsCurrency: "usd",
		PerPage:    100,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
	if opts != nil {
		opts(&o)
	}
	return NewClient(o, slog.New(slog.NewTextHandler(&testWriter{t}, nil)))
}

type testWriter struct{ t *testing.T }

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestFetchTopMarkets_DecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "false", q.Get("sparkline"))
		assert.Equal(t, "24h", q.Get("price_change_percentage"))
		assert.Empty(t, q.Get("x_cg_demo_api_key"), "no api key configured, none should be sent")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	snaps, err := client.FetchTopMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	assert.Equal(t, "bitcoin", snaps[0].ID)
	assert.Equal(t, "btc", snaps[0].Symbol)
	require.NotNil(t, snaps[0].CurrentPrice)
	assert.InDelta(t, 61234.56, *snaps[0].CurrentPrice, 0.001)

	// Nulls and absent fields both come through as nil pointers.
	assert.Nil(t, snaps[1].FullyDilutedValuation)
	assert.Nil(t, snaps[1].MaxSupply)
	assert.Nil(t, snaps[1].ATHDate)
	require.NotNil(t, snaps[1].CurrentPrice)
	assert.InDelta(t, 0.0000251, *snaps[1].CurrentPrice, 1e-10)
}

func TestFetchTopMarkets_SendsAPIKeyWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("x_cg_demo_api_key"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(o *Options) { o.APIKey = "test-key" })

	snaps, err := client.FetchTopMarkets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestFetchTopMarkets_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	snaps, err := client.FetchTopMarkets(context.Background())
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchTopMarkets_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	_, err := client.FetchTopMarkets(context.Background())
	require.Error(t, err)

	var upErr *model.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusInternalServerError, upErr.Status)
	// First attempt plus three retries.
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetchTopMarkets_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	_, err := client.FetchTopMarkets(context.Background())
	require.Error(t, err)

	var upErr *model.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchTopMarkets_MalformedPayloadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"this is": "not an array"`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	_, err := client.FetchTopMarkets(context.Background())
	assert.Error(t, err)
}
