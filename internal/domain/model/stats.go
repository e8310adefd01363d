package model

import "time"

// MarketStats is the on-demand aggregate over all stored coins.
// It is never persisted; the read cache bounds how often it is recomputed.
type MarketStats struct {
	TotalCryptocurrencies int        `json:"total_cryptocurrencies"`
	LastDataUpdate        *time.Time `json:"last_data_update"`
	HighestMarketCap      *int64     `json:"highest_market_cap"`
	AveragePrice          float64    `json:"average_price"`
	DataFreshness         *string    `json:"data_freshness"`
}

// SyncResult summarizes one ingestion run.
type SyncResult struct {
	RunID    string        `json:"run_id"`
	Received int           `json:"received"`
	Stored   int           `json:"stored"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}
