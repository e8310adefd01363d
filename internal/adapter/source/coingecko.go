package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bn-mk/fanwave-crypto/internal/domain/model"
)

// upstreamBodyLimit caps how much of an error body ends up in logs.
const upstreamBodyLimit = 512

// Client pulls market snapshots from a CoinGecko-compatible API.
type Client struct {
	baseURL    string
	apiKey     string
	vsCurrency string
	perPage    int
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

type Options struct {
	BaseURL        string
	APIKey         string
	VsCurrency     string
	PerPage        int
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 100
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		vsCurrency: opts.VsCurrency,
		perPage:    opts.PerPage,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		logger:     logger,
	}
}

// FetchTopMarkets requests one page of the top coins by market cap.
// Network errors and 5xx answers are retried with a fixed delay; a 4xx fails
// immediately since repeating the same request cannot help.
func (c *Client) FetchTopMarkets(ctx context.Context) ([]model.MarketSnapshot, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		snaps, retryable, err := c.fetchOnce(ctx)
		if err == nil {
			return snaps, nil
		}
		lastErr = err

		if !retryable {
			break
		}
		c.logger.Warn("market fetch attempt failed", "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("failed to fetch markets: %w", lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) (snaps []model.MarketSnapshot, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/markets", nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}

	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "24h")
	if c.apiKey != "" {
		q.Set("x_cg_demo_api_key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamBodyLimit))
		upErr := &model.UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		return nil, resp.StatusCode >= http.StatusInternalServerError, upErr
	}

	if err := json.NewDecoder(resp.Body).Decode(&snaps); err != nil {
		return nil, false, fmt.Errorf("failed to decode market payload: %w", err)
	}

	return snaps, false, nil
}
